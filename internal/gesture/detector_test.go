package gesture

import (
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/sensor"
)

func TestDetectorEmitsThenDebounces(t *testing.T) {
	d := NewDetector(builtinVocabulary(t), nil, 500*time.Millisecond)
	flat := postureVector(sensor.FlatHandPosture())
	t0 := time.Now()

	ev, outcome := d.Evaluate(flat, t0)
	if outcome != Emitted {
		t.Fatalf("first evaluation = %v, want Emitted", outcome)
	}
	if ev.Name != "B" || !ev.Timestamp.Equal(t0) {
		t.Errorf("event = %+v, want B stamped at t0", ev)
	}

	if _, outcome := d.Evaluate(flat, t0.Add(100*time.Millisecond)); outcome != Debounced {
		t.Errorf("repeat inside window = %v, want Debounced", outcome)
	}

	// The window measures from the last emission, and its boundary re-fires.
	if _, outcome := d.Evaluate(flat, t0.Add(500*time.Millisecond)); outcome != Emitted {
		t.Errorf("repeat at window boundary = %v, want Emitted", outcome)
	}
}

func TestDetectorDifferentNameBypassesDebounce(t *testing.T) {
	d := NewDetector(builtinVocabulary(t), nil, 500*time.Millisecond)
	t0 := time.Now()

	if _, outcome := d.Evaluate(postureVector(sensor.FlatHandPosture()), t0); outcome != Emitted {
		t.Fatalf("first evaluation = %v, want Emitted", outcome)
	}
	ev, outcome := d.Evaluate(postureVector(sensor.CurledFistPosture()), t0.Add(50*time.Millisecond))
	if outcome != Emitted || ev.Name != "A" {
		t.Errorf("different gesture = %v %q, want immediate A", outcome, ev.Name)
	}
}

func TestDetectorSuppressionKeepsDebounceClock(t *testing.T) {
	d := NewDetector(builtinVocabulary(t), nil, 500*time.Millisecond)
	flat := postureVector(sensor.FlatHandPosture())
	t0 := time.Now()

	if _, outcome := d.Evaluate(flat, t0); outcome != Emitted {
		t.Fatal("setup emission failed")
	}
	// A no-match cycle in between must not disturb the clock.
	if _, outcome := d.Evaluate(postureVector(sensor.FistPosture()), t0.Add(200*time.Millisecond)); outcome != NoMatch {
		t.Fatalf("fist = %v, want NoMatch", outcome)
	}
	if _, outcome := d.Evaluate(flat, t0.Add(400*time.Millisecond)); outcome != Debounced {
		t.Errorf("repeat at 400ms = %v, want Debounced against the t0 emission", outcome)
	}
	if _, outcome := d.Evaluate(flat, t0.Add(600*time.Millisecond)); outcome != Emitted {
		t.Errorf("repeat at 600ms = %v, want Emitted", outcome)
	}
}

func TestDetectorEmptyInputsAreNoMatch(t *testing.T) {
	d := NewDetector(builtinVocabulary(t), nil, 0)
	if _, outcome := d.Evaluate(feature.Vector{}, time.Now()); outcome != NoMatch {
		t.Errorf("empty vector = %v, want NoMatch", outcome)
	}

	empty := NewDetector(NewVocabulary(), nil, 0)
	if _, outcome := empty.Evaluate(postureVector(sensor.FlatHandPosture()), time.Now()); outcome != NoMatch {
		t.Errorf("empty vocabulary = %v, want NoMatch", outcome)
	}
}

func TestDetectorReset(t *testing.T) {
	d := NewDetector(builtinVocabulary(t), nil, time.Hour)
	flat := postureVector(sensor.FlatHandPosture())
	t0 := time.Now()

	if _, outcome := d.Evaluate(flat, t0); outcome != Emitted {
		t.Fatal("setup emission failed")
	}
	if _, outcome := d.Evaluate(flat, t0.Add(time.Second)); outcome != Debounced {
		t.Fatal("expected suppression under a huge window")
	}

	d.Reset()
	if _, outcome := d.Evaluate(flat, t0.Add(2*time.Second)); outcome != Emitted {
		t.Errorf("after Reset = %v, want Emitted", outcome)
	}
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		NoMatch:    "no_match",
		Debounced:  "debounced",
		Emitted:    "emitted",
		Outcome(9): "unknown",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
