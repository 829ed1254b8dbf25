package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// CalibrationHandler exposes the glove's calibration routines.
type CalibrationHandler struct {
	pipeline Pipeline
}

// NewCalibrationHandler creates a new CalibrationHandler backed by the given
// pipeline.
func NewCalibrationHandler(p Pipeline) *CalibrationHandler {
	return &CalibrationHandler{pipeline: p}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/calibration, /api/calibration/flex, /api/calibration/inertial
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/calibration")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.current(w, r)
	case "flex":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.flex(w, r)
	case "inertial":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.inertial(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type flexCalibrationRequest struct {
	Phase string `json:"phase"`
}

// current handles GET /api/calibration and returns the active profiles.
func (h *CalibrationHandler) current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flex":     h.pipeline.FlexProfile(),
		"inertial": h.pipeline.InertialBias(),
	})
}

// flex handles POST /api/calibration/flex. The caller holds the hand in the
// requested pose before posting; the pipeline averages live readings into the
// reference codes for that phase.
func (h *CalibrationHandler) flex(w http.ResponseWriter, r *http.Request) {
	var req flexCalibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Phase != "flat" && req.Phase != "bent" {
		writeError(w, http.StatusBadRequest, "Phase must be 'flat' or 'bent'")
		return
	}

	profile, err := h.pipeline.CalibrateFlex(req.Phase)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Flex calibration failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"phase": req.Phase,
		"flex":  profile,
	})
}

// inertial handles POST /api/calibration/inertial. The glove rests flat and
// still while the pipeline averages samples into the bias offsets.
func (h *CalibrationHandler) inertial(w http.ResponseWriter, r *http.Request) {
	bias, err := h.pipeline.CalibrateInertial()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Inertial calibration failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"inertial": bias,
	})
}
