package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/feature"
)

// Trainer averages recorded samples into archetype vectors.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Train averages the samples element-wise into a single archetype. The
// result's populated count is the minimum across samples, so the archetype
// never claims feature groups that some recordings lacked.
func (t *Trainer) Train(samples []feature.Vector) (feature.Vector, error) {
	if len(samples) == 0 {
		return feature.Vector{}, fmt.Errorf("no samples provided")
	}

	minCount := samples[0].Count
	for i, s := range samples {
		if s.Count == 0 {
			return feature.Vector{}, fmt.Errorf("sample %d is empty", i)
		}
		if s.Count < minCount {
			minCount = s.Count
		}
	}

	var avg feature.Vector
	n := float64(len(samples))
	for _, s := range samples {
		for i, val := range s.Values {
			avg.Values[i] += val / n
		}
	}
	avg.Count = minCount
	return avg, nil
}
