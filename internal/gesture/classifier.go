package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/feature"
)

// DefaultThreshold is the global confidence floor for accepting a match.
const DefaultThreshold = 0.7

// Classifier scores a feature vector against a vocabulary and proposes at
// most one event. Implementations must treat "no match" as a normal outcome,
// not an error.
type Classifier interface {
	Classify(v feature.Vector, vocab *Vocabulary) (Event, bool)
}

// TemplateClassifier is the reference matcher: per-slot similarity averaged
// over each template's populated range, best score wins, accepted when it
// reaches the effective threshold.
type TemplateClassifier struct {
	threshold float64
}

// NewTemplateClassifier creates a classifier with the given global threshold.
// Values outside (0, 1] fall back to the default.
func NewTemplateClassifier(threshold float64) *TemplateClassifier {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &TemplateClassifier{threshold: threshold}
}

// Classify scans the vocabulary for the best-scoring template. Templates
// whose populated count exceeds the input's are skipped: they reference
// feature groups the input never produced, and zero-filled slots would fake
// agreement. Empty archetypes are skipped for the same reason. The best
// score is accepted when it meets or exceeds the template's own threshold,
// or the global one if the template does not set it.
func (c *TemplateClassifier) Classify(v feature.Vector, vocab *Vocabulary) (Event, bool) {
	if v.IsEmpty() || vocab == nil {
		return Event{}, false
	}

	var best *Template
	var bestScore float64
	var bestID uint32

	for i, t := range vocab.Templates() {
		if t.Archetype.Count == 0 || t.Archetype.Count > v.Count {
			continue
		}
		if score := similarity(v, t.Archetype); score > bestScore {
			best, bestScore, bestID = t, score, uint32(i)
		}
	}
	if best == nil {
		return Event{}, false
	}

	threshold := best.Threshold
	if threshold <= 0 {
		threshold = c.threshold
	}
	if bestScore < threshold {
		return Event{}, false
	}

	return Event{
		ID:         bestID,
		Name:       best.Name,
		Confidence: bestScore,
		Dynamic:    best.Type == TypeDynamic,
	}, true
}

// similarity averages the per-slot score 1/(1+|in-ref|) over the archetype's
// populated range. Identical vectors score 1; the score decays smoothly with
// distance and never reaches zero.
func similarity(input, archetype feature.Vector) float64 {
	var sum float64
	for i := 0; i < archetype.Count; i++ {
		sum += 1 / (1 + math.Abs(input.Values[i]-archetype.Values[i]))
	}
	return sum / float64(archetype.Count)
}
