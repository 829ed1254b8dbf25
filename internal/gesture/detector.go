package gesture

import (
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/feature"
)

// DefaultDebounce is how long a just-emitted gesture name suppresses
// re-emission of itself. A held pose re-fires once per window instead of
// once per pipeline cycle.
const DefaultDebounce = 500 * time.Millisecond

// Event is one emitted gesture detection.
type Event struct {
	ID         uint32        `json:"id"`         // Position of the matched template in the vocabulary
	Name       string        `json:"name"`       // Template name
	Confidence float64       `json:"confidence"` // Match score in (0, 1]
	Dynamic    bool          `json:"dynamic"`    // True for motion gestures
	Duration   time.Duration `json:"duration"`   // Motion span; zero for static poses
	Timestamp  time.Time     `json:"timestamp"`  // When the detector emitted it
}

// Outcome reports what a single evaluation cycle produced. Only Emitted
// carries an event; the other two are normal, frequent results kept distinct
// for diagnostics.
type Outcome int

const (
	// NoMatch means no template reached its threshold.
	NoMatch Outcome = iota
	// Debounced means the best match repeated the previous emission too soon.
	Debounced
	// Emitted means an event was produced.
	Emitted
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "no_match"
	case Debounced:
		return "debounced"
	case Emitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Detector wraps a classifier with emission debouncing. The only state kept
// across cycles is the last emitted name and its timestamp.
type Detector struct {
	classifier Classifier
	vocab      *Vocabulary
	debounce   time.Duration

	mu       sync.Mutex
	lastName string
	lastEmit time.Time
}

// NewDetector builds a detector over the vocabulary. A nil classifier gets
// the reference template matcher at the default threshold; a non-positive
// debounce gets the default window.
func NewDetector(vocab *Vocabulary, classifier Classifier, debounce time.Duration) *Detector {
	if classifier == nil {
		classifier = NewTemplateClassifier(DefaultThreshold)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Detector{classifier: classifier, vocab: vocab, debounce: debounce}
}

// Vocabulary returns the detector's template set.
func (d *Detector) Vocabulary() *Vocabulary {
	return d.vocab
}

// Evaluate runs one detection cycle at the given instant. A suppressed
// repeat does not refresh the debounce clock, so a held pose re-fires as
// soon as the window from its last emission elapses.
func (d *Detector) Evaluate(v feature.Vector, now time.Time) (Event, Outcome) {
	ev, ok := d.classifier.Classify(v, d.vocab)
	if !ok {
		return Event{}, NoMatch
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if ev.Name == d.lastName && !d.lastEmit.IsZero() && now.Sub(d.lastEmit) < d.debounce {
		return Event{}, Debounced
	}

	ev.Timestamp = now
	d.lastName = ev.Name
	d.lastEmit = now
	return ev, Emitted
}

// Reset clears the debounce state, letting the next match emit immediately.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.lastName = ""
	d.lastEmit = time.Time{}
	d.mu.Unlock()
}
