package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/store"
)

// SamplesHandler handles HTTP requests for template training samples.
type SamplesHandler struct {
	store    *store.Store
	pipeline Pipeline
}

// NewSamplesHandler creates a new SamplesHandler with the given store and
// optional pipeline.
func NewSamplesHandler(s *store.Store, p Pipeline) *SamplesHandler {
	return &SamplesHandler{store: s, pipeline: p}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/templates/{id}/samples
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse template ID from path: /api/templates/{id}/samples
	path := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "samples" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	templateID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, templateID)
	case http.MethodPost:
		h.record(w, r, templateID)
	case http.MethodDelete:
		h.clear(w, r, templateID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

// vectorPayload is the wire form of a feature vector. Values may be shorter
// than the full slot layout; missing slots are zero. A zero count is inferred
// from the value length.
type vectorPayload struct {
	Values []float64 `json:"values"`
	Count  int       `json:"count"`
}

func (p vectorPayload) toVector() (feature.Vector, error) {
	if len(p.Values) > feature.Size {
		return feature.Vector{}, fmt.Errorf("vector has %d values, limit is %d", len(p.Values), feature.Size)
	}
	count := p.Count
	if count == 0 {
		count = len(p.Values)
	}
	if count < 1 || count > feature.Size {
		return feature.Vector{}, fmt.Errorf("feature count %d out of range", count)
	}

	var v feature.Vector
	copy(v.Values[:], p.Values)
	v.Count = count
	return v, nil
}

func toPayload(v feature.Vector) vectorPayload {
	return vectorPayload{Values: v.Values[:], Count: v.Count}
}

type recordSamplesRequest struct {
	// Vectors carries explicit feature vectors to append.
	Vectors []vectorPayload `json:"vectors"`
	// Capture appends the pipeline's latest live vector instead.
	Capture bool `json:"capture"`
}

type sampleResponse struct {
	ID          int64         `json:"id"`
	TemplateID  string        `json:"template_id"`
	SampleIndex int           `json:"sample_index"`
	Vector      vectorPayload `json:"vector"`
	CreatedAt   string        `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// list handles GET /api/templates/{id}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, templateID string) {
	samples, err := h.store.Samples().GetByTemplateID(templateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}

	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			TemplateID:  s.TemplateID,
			SampleIndex: s.SampleIndex,
			Vector:      toPayload(s.Vector),
			CreatedAt:   s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// record handles POST /api/templates/{id}/samples. New vectors are appended
// to the template's existing recording, either supplied explicitly or
// captured live from the pipeline.
func (h *SamplesHandler) record(w http.ResponseWriter, r *http.Request, templateID string) {
	// Verify template exists
	if _, err := h.store.Templates().GetByID(templateID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify template")
		return
	}

	var req recordSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var incoming []feature.Vector
	switch {
	case req.Capture:
		if h.pipeline == nil {
			writeError(w, http.StatusServiceUnavailable, "Pipeline is not running")
			return
		}
		v, ok := h.pipeline.LatestVector()
		if !ok {
			writeError(w, http.StatusConflict, "No feature vector captured yet")
			return
		}
		incoming = append(incoming, v)
	case len(req.Vectors) > 0:
		for i, p := range req.Vectors {
			v, err := p.toVector()
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Sample %d: %v", i, err))
				return
			}
			incoming = append(incoming, v)
		}
	default:
		writeError(w, http.StatusBadRequest, "Provide vectors or set capture")
		return
	}

	existing, err := h.store.Samples().GetByTemplateID(templateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load existing samples")
		return
	}

	vectors := make([]feature.Vector, 0, len(existing)+len(incoming))
	for _, s := range existing {
		vectors = append(vectors, s.Vector)
	}
	vectors = append(vectors, incoming...)

	if err := h.store.Samples().Create(templateID, vectors); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"template_id": templateID,
		"samples":     len(vectors),
	})
}

// clear handles DELETE /api/templates/{id}/samples and discards the recording.
func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, templateID string) {
	if _, err := h.store.Templates().GetByID(templateID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify template")
		return
	}

	if err := h.store.Samples().DeleteByTemplateID(templateID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
