package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// TrainHandler averages a template's recorded samples into its archetype.
type TrainHandler struct {
	store    *store.Store
	pipeline Pipeline
}

// NewTrainHandler creates a new TrainHandler with the given store and
// optional pipeline.
func NewTrainHandler(s *store.Store, p Pipeline) *TrainHandler {
	return &TrainHandler{store: s, pipeline: p}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/templates/{id}/train
func (h *TrainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "train" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.train(w, r, parts[0])
}

// train handles POST /api/templates/{id}/train.
func (h *TrainHandler) train(w http.ResponseWriter, r *http.Request, templateID string) {
	template, err := h.store.Templates().GetByID(templateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	samples, err := h.store.Samples().GetByTemplateID(templateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load samples")
		return
	}
	if len(samples) == 0 {
		writeError(w, http.StatusBadRequest, "No samples recorded for this template")
		return
	}

	vectors := make([]feature.Vector, 0, len(samples))
	for _, s := range samples {
		vectors = append(vectors, s.Vector)
	}

	archetype, err := gesture.NewTrainer().Train(vectors)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Training failed: "+err.Error())
		return
	}

	template.Archetype = archetype
	if err := h.store.Templates().Update(template); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store archetype")
		return
	}

	reloadVocabulary(h.pipeline)
	writeJSON(w, http.StatusOK, toResponse(template))
}
