// Package output fans emitted gesture events out to registered sinks and
// maintains the user-facing transcript.
package output

import (
	"context"
	"log"
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
)

// Sink receives emitted events. Sink failures are logged and never stall the
// dispatch loop.
type Sink interface {
	Name() string
	PublishEvent(ev gesture.Event) error
}

// TextSink additionally receives transcript updates and announcements.
type TextSink interface {
	Sink
	PublishText(text string) error
}

// Dispatcher consumes the event and command queues and drives the sinks.
// The sink set is fixed at construction; mode and transcript change at
// runtime.
type Dispatcher struct {
	sinks      []Sink
	transcript *Transcript

	mu   sync.Mutex
	mode Mode
}

// NewDispatcher creates a dispatcher in the given mode. Unknown modes fall
// back to text.
func NewDispatcher(mode Mode, sinks ...Sink) *Dispatcher {
	if _, err := ParseMode(string(mode)); err != nil {
		mode = ModeText
	}
	return &Dispatcher{
		sinks:      sinks,
		transcript: NewTranscript(),
		mode:       mode,
	}
}

// Run consumes events and commands until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context, events <-chan gesture.Event, commands <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			d.handleEvent(ev)
		case cmd := <-commands:
			d.handleCommand(cmd)
		}
	}
}

// Mode returns the current output mode.
func (d *Dispatcher) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Transcript returns the current transcript text.
func (d *Dispatcher) Transcript() string {
	return d.transcript.String()
}

// ClearTranscript empties the transcript and tells text sinks.
func (d *Dispatcher) ClearTranscript() {
	d.transcript.Clear()
	d.publishText("")
}

func (d *Dispatcher) handleEvent(ev gesture.Event) {
	mode := d.Mode()
	if mode == ModeSilent {
		return
	}

	for _, s := range d.sinks {
		if err := s.PublishEvent(ev); err != nil {
			log.Printf("output: sink %s: %v", s.Name(), err)
		}
	}

	if mode == ModeText {
		d.transcript.Apply(ev.Name)
		d.publishText(d.transcript.String())
	}
}

func (d *Dispatcher) handleCommand(cmd Command) {
	switch c := cmd.(type) {
	case ClearTranscript:
		d.ClearTranscript()
	case SetMode:
		if _, err := ParseMode(string(c.Mode)); err != nil {
			log.Printf("output: %v", err)
			return
		}
		d.mu.Lock()
		d.mode = c.Mode
		d.mu.Unlock()
		log.Printf("output: mode set to %s", c.Mode)
	case Announce:
		// Announcements are explicit operator actions and ignore the mode.
		d.publishText(c.Text)
	default:
		log.Printf("output: unhandled command %T", cmd)
	}
}

func (d *Dispatcher) publishText(text string) {
	for _, s := range d.sinks {
		ts, ok := s.(TextSink)
		if !ok {
			continue
		}
		if err := ts.PublishText(text); err != nil {
			log.Printf("output: sink %s: %v", s.Name(), err)
		}
	}
}

// LogSink prints emitted events. It is the always-available fallback sink.
type LogSink struct{}

// Name identifies the sink in logs.
func (LogSink) Name() string { return "log" }

// PublishEvent writes one line per event.
func (LogSink) PublishEvent(ev gesture.Event) error {
	log.Printf("gesture: %s confidence=%.2f", ev.Name, ev.Confidence)
	return nil
}
