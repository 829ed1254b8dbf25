// Package gesture matches feature vectors against a bounded template
// vocabulary and turns accepted matches into detection events.
package gesture

import (
	"errors"
	"sync"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/sensor"
)

// Type represents the type of gesture (static or dynamic).
type Type string

const (
	// TypeStatic represents a static gesture (single held pose).
	TypeStatic Type = "static"
	// TypeDynamic represents a dynamic gesture (motion over time).
	TypeDynamic Type = "dynamic"
)

// MaxTemplates bounds the vocabulary size.
const MaxTemplates = 50

// ErrVocabularyFull is returned when adding past the template bound.
var ErrVocabularyFull = errors.New("gesture: vocabulary full")

// Template is one recognizable gesture.
type Template struct {
	ID        string         // Persistent identifier, empty for unsaved templates
	Name      string         // Emitted with the event; letters feed the transcript
	Type      Type           // Static or dynamic
	Archetype feature.Vector // Reference vector; Count bounds the comparison range
	Threshold float64        // Per-template confidence override; 0 uses the global default
}

// Vocabulary is the bounded set of templates the detector matches against.
// It is safe for concurrent use; templates are treated as immutable once
// added.
type Vocabulary struct {
	mu        sync.RWMutex
	templates []*Template
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{templates: make([]*Template, 0, MaxTemplates)}
}

// Add registers a template. Nil templates are ignored.
func (v *Vocabulary) Add(t *Template) error {
	if t == nil {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.templates) >= MaxTemplates {
		return ErrVocabularyFull
	}
	v.templates = append(v.templates, t)
	return nil
}

// Replace swaps the whole vocabulary atomically, rejecting oversized sets
// without touching the current one.
func (v *Vocabulary) Replace(ts []*Template) error {
	if len(ts) > MaxTemplates {
		return ErrVocabularyFull
	}
	fresh := make([]*Template, 0, MaxTemplates)
	for _, t := range ts {
		if t != nil {
			fresh = append(fresh, t)
		}
	}
	v.mu.Lock()
	v.templates = fresh
	v.mu.Unlock()
	return nil
}

// Reset removes every template.
func (v *Vocabulary) Reset() {
	v.mu.Lock()
	v.templates = v.templates[:0]
	v.mu.Unlock()
}

// Templates returns a copy of the current template list in insertion order.
func (v *Vocabulary) Templates() []*Template {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*Template, len(v.templates))
	copy(out, v.templates)
	return out
}

// Len reports how many templates are registered.
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.templates)
}

// BuiltinTemplates returns the starter alphabet: a curled fist for "A" and a
// flat open hand for "B". Both derive from the canonical posture fixtures so
// the archetypes always agree with the extractor's slot layout.
func BuiltinTemplates() []*Template {
	a := sensor.CurledFistPosture()
	b := sensor.FlatHandPosture()
	return []*Template{
		{
			Name:      "A",
			Type:      TypeStatic,
			Archetype: feature.Extract(sensor.PostureSnapshot(0, a), nil),
		},
		{
			Name:      "B",
			Type:      TypeStatic,
			Archetype: feature.Extract(sensor.PostureSnapshot(0, b), nil),
		},
	}
}
