// Package server provides the HTTP server for the glove's control surface:
// template management, calibration, recent events, the live transcript, the
// WebSocket event stream, and the MJPEG camera preview.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  api.Pipeline
	Frames    capture.FrameSource
	Hub       *Hub
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Pipeline != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/transcript", s.handleTranscript)
		s.mux.HandleFunc("/api/mode", s.handleMode)

		calibrationHandler := api.NewCalibrationHandler(s.config.Pipeline)
		s.mux.Handle("/api/calibration", calibrationHandler)
		s.mux.Handle("/api/calibration/", calibrationHandler)
	}

	// Register template API handlers if Store is configured
	if s.config.Store != nil {
		templateHandler := api.NewTemplateHandler(s.config.Store, s.config.Pipeline)
		samplesHandler := api.NewSamplesHandler(s.config.Store, s.config.Pipeline)
		trainHandler := api.NewTrainHandler(s.config.Store, s.config.Pipeline)

		// Use a wrapper to route between the template, samples, and train
		// handlers sharing the /api/templates prefix
		templateRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(r.URL.Path, "/samples"):
				samplesHandler.ServeHTTP(w, r)
			case strings.HasSuffix(r.URL.Path, "/train"):
				trainHandler.ServeHTTP(w, r)
			default:
				templateHandler.ServeHTTP(w, r)
			}
		})

		s.mux.Handle("/api/templates", templateRouter)
		s.mux.Handle("/api/templates/", templateRouter)

		eventsHandler := api.NewEventsHandler(s.config.Store)
		s.mux.Handle("/api/events", eventsHandler)
	}

	// Register the WebSocket hub if one is configured
	if s.config.Hub != nil {
		s.mux.Handle("/ws", s.config.Hub)
	}

	// Register camera stream endpoint if a frame source is configured
	if s.config.Frames != nil {
		streamHandler := NewStreamHandler(s.config.Frames)
		s.mux.Handle("/stream", streamHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, s.config.Pipeline.Status())
}

// handleTranscript handles GET and DELETE requests to /api/transcript.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		text := s.config.Pipeline.Transcript()
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"transcript": text,
			"length":     len([]rune(text)),
		})
	case http.MethodDelete:
		s.config.Pipeline.ClearTranscript()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMode handles GET and PUT requests to /api/mode.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"mode": s.config.Pipeline.OutputMode(),
		})
	case http.MethodPut:
		var req struct {
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if err := s.config.Pipeline.SetOutputMode(req.Mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"mode": req.Mode})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
