package output

import "fmt"

// Mode selects what the output stage does with emitted events.
type Mode string

const (
	// ModeText builds the transcript and feeds every sink.
	ModeText Mode = "text"
	// ModeEvents feeds sinks without touching the transcript.
	ModeEvents Mode = "events"
	// ModeSilent drops events entirely.
	ModeSilent Mode = "silent"
)

// ParseMode validates a mode string from config or the API.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeText, ModeEvents, ModeSilent:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown output mode %q", s)
}

// Command is a control message for the output stage. The concrete variants
// below are the only implementations.
type Command interface {
	isCommand()
}

// ClearTranscript empties the transcript and pushes the cleared state to
// text sinks.
type ClearTranscript struct{}

// SetMode switches the output mode.
type SetMode struct {
	Mode Mode
}

// Announce pushes literal text to text sinks, bypassing gesture input.
type Announce struct {
	Text string
}

func (ClearTranscript) isCommand() {}
func (SetMode) isCommand()         {}
func (Announce) isCommand()        {}
