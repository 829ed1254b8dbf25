package output

import "sync"

// MaxTranscript caps the transcript length in runes. Appends past the cap
// are dropped silently; the reader is expected to clear periodically.
const MaxTranscript = 128

// Gesture names with editing semantics instead of literal text.
const (
	NameSpace     = "SPACE"
	NameBackspace = "BACKSPACE"
	NameClear     = "CLEAR"
)

// Transcript accumulates emitted gesture names into text. Single-rune names
// append literally, multi-rune names append as words followed by a space,
// and the editing names above adjust the buffer instead.
type Transcript struct {
	mu    sync.Mutex
	runes []rune
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{runes: make([]rune, 0, MaxTranscript)}
}

// Apply folds one gesture name into the transcript.
func (t *Transcript) Apply(name string) {
	if name == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch name {
	case NameSpace:
		t.append(' ')
	case NameBackspace:
		if len(t.runes) > 0 {
			t.runes = t.runes[:len(t.runes)-1]
		}
	case NameClear:
		t.runes = t.runes[:0]
	default:
		runes := []rune(name)
		for _, r := range runes {
			t.append(r)
		}
		if len(runes) > 1 {
			t.append(' ')
		}
	}
}

// append drops the rune when the transcript is full.
func (t *Transcript) append(r rune) {
	if len(t.runes) < MaxTranscript {
		t.runes = append(t.runes, r)
	}
}

// String returns the current text.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.runes)
}

// Len returns the current length in runes.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.runes)
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.runes = t.runes[:0]
	t.mu.Unlock()
}
