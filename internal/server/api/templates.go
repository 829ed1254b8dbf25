// Package api provides HTTP API handlers for the glove's control surface.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// TemplateHandler handles HTTP requests for gesture template resources.
type TemplateHandler struct {
	store    *store.Store
	pipeline Pipeline
}

// NewTemplateHandler creates a new TemplateHandler with the given store and
// optional pipeline.
func NewTemplateHandler(s *store.Store, p Pipeline) *TemplateHandler {
	return &TemplateHandler{store: s, pipeline: p}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *TemplateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/templates or /api/templates/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/templates")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/templates
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/templates/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createTemplateRequest struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Threshold float64 `json:"threshold"`
}

type updateTemplateRequest struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Threshold *float64 `json:"threshold"`
}

type templateResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Threshold    float64 `json:"threshold"`
	FeatureCount int     `json:"feature_count"`
	Samples      int     `json:"samples"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type listTemplatesResponse struct {
	Templates []templateResponse `json:"templates"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Template to a templateResponse.
func toResponse(t *store.Template) templateResponse {
	return templateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Type:         string(t.Type),
		Threshold:    t.Threshold,
		FeatureCount: t.Archetype.Count,
		Samples:      t.Samples,
		CreatedAt:    t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// reloadVocabulary pushes the stored templates into the live pipeline after a
// mutation. A nil pipeline (store-only server) is a no-op.
func reloadVocabulary(p Pipeline) {
	if p == nil {
		return
	}
	if err := p.ReloadVocabulary(); err != nil {
		log.Printf("api: reload vocabulary: %v", err)
	}
}

// list handles GET /api/templates and returns all templates in vocabulary order.
func (h *TemplateHandler) list(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	response := listTemplatesResponse{
		Templates: make([]templateResponse, 0, len(templates)),
	}

	for _, t := range templates {
		response.Templates = append(response.Templates, toResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/templates/{id} and returns a single template.
func (h *TemplateHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	template, err := h.store.Templates().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(template))
}

// create handles POST /api/templates and creates a new template.
func (h *TemplateHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate required fields
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	// Set default type if not provided
	templateType := store.TemplateType(req.Type)
	if templateType == "" {
		templateType = store.TemplateTypeStatic
	}

	// Validate template type
	if templateType != store.TemplateTypeStatic && templateType != store.TemplateTypeDynamic {
		writeError(w, http.StatusBadRequest, "Invalid template type")
		return
	}

	// A zero threshold means the template inherits the global default
	if req.Threshold < 0 || req.Threshold > 1 {
		writeError(w, http.StatusBadRequest, "Threshold must be between 0 and 1")
		return
	}

	// Reject duplicate names up front so the caller gets a conflict rather
	// than an opaque constraint failure
	if _, err := h.store.Templates().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Template name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check template name")
		return
	}

	template := &store.Template{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Type:      templateType,
		Threshold: req.Threshold,
		Samples:   0,
	}

	if err := h.store.Templates().Create(template); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	reloadVocabulary(h.pipeline)
	writeJSON(w, http.StatusCreated, toResponse(template))
}

// update handles PUT /api/templates/{id} and updates an existing template.
func (h *TemplateHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	// First, get the existing template
	template, err := h.store.Templates().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	var req updateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Update fields if provided
	if req.Name != "" {
		template.Name = req.Name
	}
	if req.Type != "" {
		templateType := store.TemplateType(req.Type)
		if templateType != store.TemplateTypeStatic && templateType != store.TemplateTypeDynamic {
			writeError(w, http.StatusBadRequest, "Invalid template type")
			return
		}
		template.Type = templateType
	}
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			writeError(w, http.StatusBadRequest, "Threshold must be between 0 and 1")
			return
		}
		template.Threshold = *req.Threshold
	}

	if err := h.store.Templates().Update(template); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update template")
		return
	}

	reloadVocabulary(h.pipeline)
	writeJSON(w, http.StatusOK, toResponse(template))
}

// delete handles DELETE /api/templates/{id} and removes a template.
func (h *TemplateHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Templates().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete template")
		return
	}

	reloadVocabulary(h.pipeline)
	w.WriteHeader(http.StatusNoContent)
}
