package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/mudra/internal/calib"
)

func TestCalibrationHandler_Current(t *testing.T) {
	pipeline := &fakePipeline{
		bias: calib.InertialBias{Accel: [3]float64{0.01, -0.02, 0.03}},
	}
	handler := NewCalibrationHandler(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/api/calibration", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		Flex     calib.Profile      `json:"flex"`
		Inertial calib.InertialBias `json:"inertial"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Flex.Joints[0].Flat != calib.DefaultFlat {
		t.Errorf("flex joints[0].flat = %d, want %d", response.Flex.Joints[0].Flat, calib.DefaultFlat)
	}
	if response.Inertial.Accel[0] != 0.01 {
		t.Errorf("inertial accel[0] = %f, want 0.01", response.Inertial.Accel[0])
	}
}

func TestCalibrationHandler_FlexPhase(t *testing.T) {
	pipeline := &fakePipeline{}
	handler := NewCalibrationHandler(pipeline)

	body, _ := json.Marshal(flexCalibrationRequest{Phase: "flat"})
	req := httptest.NewRequest(http.MethodPost, "/api/calibration/flex", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	if len(pipeline.flexPhases) != 1 || pipeline.flexPhases[0] != "flat" {
		t.Errorf("recorded phases = %v, want [flat]", pipeline.flexPhases)
	}

	var response struct {
		Phase string        `json:"phase"`
		Flex  calib.Profile `json:"flex"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Phase != "flat" {
		t.Errorf("phase = %q, want flat", response.Phase)
	}
}

func TestCalibrationHandler_FlexInvalidPhase(t *testing.T) {
	handler := NewCalibrationHandler(&fakePipeline{})

	body, _ := json.Marshal(flexCalibrationRequest{Phase: "sideways"})
	req := httptest.NewRequest(http.MethodPost, "/api/calibration/flex", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCalibrationHandler_FlexInvalidJSON(t *testing.T) {
	handler := NewCalibrationHandler(&fakePipeline{})

	req := httptest.NewRequest(http.MethodPost, "/api/calibration/flex", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCalibrationHandler_FlexFailure(t *testing.T) {
	handler := NewCalibrationHandler(&fakePipeline{flexErr: errors.New("glove not responding")})

	body, _ := json.Marshal(flexCalibrationRequest{Phase: "bent"})
	req := httptest.NewRequest(http.MethodPost, "/api/calibration/flex", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestCalibrationHandler_Inertial(t *testing.T) {
	pipeline := &fakePipeline{
		bias: calib.InertialBias{Gyro: [3]float64{0.5, -0.5, 0.1}},
	}
	handler := NewCalibrationHandler(pipeline)

	req := httptest.NewRequest(http.MethodPost, "/api/calibration/inertial", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		Inertial calib.InertialBias `json:"inertial"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Inertial.Gyro[0] != 0.5 {
		t.Errorf("gyro[0] = %f, want 0.5", response.Inertial.Gyro[0])
	}
}

func TestCalibrationHandler_InertialFailure(t *testing.T) {
	handler := NewCalibrationHandler(&fakePipeline{biasErr: errors.New("glove not responding")})

	req := httptest.NewRequest(http.MethodPost, "/api/calibration/inertial", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestCalibrationHandler_UnknownPath(t *testing.T) {
	handler := NewCalibrationHandler(&fakePipeline{})

	req := httptest.NewRequest(http.MethodPost, "/api/calibration/other", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCalibrationHandler_MethodNotAllowed(t *testing.T) {
	handler := NewCalibrationHandler(&fakePipeline{})

	req := httptest.NewRequest(http.MethodDelete, "/api/calibration", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /api/calibration: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/calibration/flex", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/calibration/flex: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
