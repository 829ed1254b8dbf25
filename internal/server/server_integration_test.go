package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_TemplateWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a template
	createBody := `{"name": "HELLO", "type": "static"}`
	resp, err := client.Post(ts.URL+"/api/templates", "application/json", bytes.NewBufferString(createBody))
	if err != nil {
		t.Fatalf("POST /api/templates error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.Name != "HELLO" {
		t.Errorf("created name = %s, want HELLO", created.Name)
	}

	// 2. List templates
	resp, _ = client.Get(ts.URL + "/api/templates")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/templates status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Templates []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"templates"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Templates) != 1 {
		t.Fatalf("len(templates) = %d, want 1", len(listed.Templates))
	}

	// 3. Get single template
	resp, _ = client.Get(ts.URL + "/api/templates/" + created.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/templates/%s status = %d, want %d", created.ID, resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 4. Delete template
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/templates/"+created.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	// 5. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/templates/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_TrainingWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a template
	resp, err := client.Post(ts.URL+"/api/templates", "application/json",
		bytes.NewBufferString(`{"name": "POINT", "type": "static"}`))
	if err != nil {
		t.Fatalf("POST /api/templates error = %v", err)
	}
	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	// 2. Record two samples
	samplesBody := `{"vectors": [
		{"values": [20, 40, 70], "count": 18},
		{"values": [40, 40, 70], "count": 18}
	]}`
	resp, err = client.Post(ts.URL+"/api/templates/"+created.ID+"/samples", "application/json",
		bytes.NewBufferString(samplesBody))
	if err != nil {
		t.Fatalf("POST samples error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST samples status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp.Body.Close()

	// 3. Train the archetype
	resp, err = client.Post(ts.URL+"/api/templates/"+created.ID+"/train", "application/json", nil)
	if err != nil {
		t.Fatalf("POST train error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST train status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var trained struct {
		FeatureCount int `json:"feature_count"`
		Samples      int `json:"samples"`
	}
	json.NewDecoder(resp.Body).Decode(&trained)
	resp.Body.Close()

	if trained.FeatureCount != 18 {
		t.Errorf("feature_count = %d, want 18", trained.FeatureCount)
	}
	if trained.Samples != 2 {
		t.Errorf("samples = %d, want 2", trained.Samples)
	}

	// 4. The stored archetype is the sample average
	stored, err := s.Templates().GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Archetype.Values[0] != 30 {
		t.Errorf("archetype values[0] = %f, want 30", stored.Archetype.Values[0])
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
