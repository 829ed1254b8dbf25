package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/store"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestApp_PipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cfg := config.Default()
	cfg.Glove.Simulated = true

	a, err := New(cfg, s)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	sim, ok := a.glove.(*capture.SimulatedGlove)
	if !ok {
		t.Fatalf("expected a simulated glove, got %T", a.glove)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// 1. The simulated glove rests flat, which is the builtin B pose.
	waitFor(t, 3*time.Second, func() bool {
		return strings.Contains(a.Transcript(), "B")
	}, "expected B in the transcript")

	waitFor(t, time.Second, func() bool {
		n, err := s.Events().Count()
		return err == nil && n >= 1
	}, "expected at least one persisted event")

	// 2. Curl the fingers into the builtin A pose.
	sim.SetPosture(sensor.CurledFistPosture())
	waitFor(t, 3*time.Second, func() bool {
		return strings.Contains(a.Transcript(), "A")
	}, "expected A in the transcript")

	// 3. A full fist matches neither builtin, so the transcript stops
	// growing and a clear stays empty.
	sim.SetPosture(sensor.FistPosture())
	time.Sleep(200 * time.Millisecond)
	a.ClearTranscript()
	waitFor(t, 2*time.Second, func() bool {
		return a.Transcript() == ""
	}, "expected an empty transcript after clear")
	time.Sleep(200 * time.Millisecond)
	if got := a.Transcript(); got != "" {
		t.Errorf("expected the transcript to stay empty, got %q", got)
	}

	// 4. Switch to silent mode; nothing new is emitted even for B.
	if err := a.SetOutputMode("silent"); err != nil {
		t.Fatalf("SetOutputMode(silent) error = %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return a.OutputMode() == "silent"
	}, "expected the mode switch to apply")
	sim.SetPosture(sensor.FlatHandPosture())
	time.Sleep(300 * time.Millisecond)
	if got := a.Transcript(); got != "" {
		t.Errorf("expected no transcript growth in silent mode, got %q", got)
	}

	// 5. Shut down cleanly.
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after cancel")
	}

	status := a.Status()
	if status["emitted"].(uint64) < 2 {
		t.Errorf("expected at least 2 emissions, got %v", status["emitted"])
	}
}

func TestApp_StatusCountsSnapshots(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cfg := config.Default()
	cfg.Glove.Simulated = true

	a, err := New(cfg, s)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool {
		produced, _ := a.sampler.Stats()
		return produced >= 5
	}, "expected the sampler to produce snapshots")

	cancel()
	<-done

	doc := a.Status()
	if doc["snapshots"].(uint64) < 5 {
		t.Errorf("expected at least 5 snapshots in status, got %v", doc["snapshots"])
	}
	if _, ok := doc["uptime_s"]; !ok {
		t.Error("expected uptime_s in status")
	}
}
