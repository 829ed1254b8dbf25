package app

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/output"
	"github.com/ayusman/mudra/internal/sensor"
)

// Run drives the three pipeline stages until the context is canceled: the
// sampler producing snapshots, the processor turning them into events, and
// the dispatcher rendering events and control commands into output. A
// failure in any stage tears down the others through the shared group
// context.
func (a *App) Run(ctx context.Context) error {
	log.Printf("app: pipeline starting, mode=%s", a.dispatcher.Mode())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.sampler.Run(ctx, a.snapshots) })
	g.Go(func() error { return a.process(ctx) })
	g.Go(func() error { return a.dispatcher.Run(ctx, a.events, a.commands) })

	err := g.Wait()
	log.Printf("app: pipeline stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// process is the middle pipeline stage. It consumes snapshots, runs fusion
// and feature extraction, evaluates the detector, and forwards emissions.
// The status ticker shares the loop so housekeeping can never be starved by
// a quiet glove, only delayed by a busy one.
func (a *App) process(ctx context.Context) error {
	status := time.NewTicker(statusInterval)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			a.drain()
			return ctx.Err()
		case snap := <-a.snapshots:
			a.processSnapshot(snap)
		case <-status.C:
			a.housekeeping()
		}
	}
}

// drain releases queued snapshots and the history buffer so no camera frame
// outlives the pipeline.
func (a *App) drain() {
	for {
		select {
		case snap := <-a.snapshots:
			snap.Close()
		default:
			a.history.Close()
			return
		}
	}
}

// processSnapshot runs one pipeline cycle. The snapshot is owned by this
// call; the history buffer keeps its own copy, taken before fusion so the
// stored record stays the uncorrected reading.
func (a *App) processSnapshot(snap *sensor.Snapshot) {
	defer snap.Close()

	a.history.Push(snap)
	a.fuser.Process(snap, a.history.Recent(feature.TemporalWindow))

	a.mu.Lock()
	if snap.Posture != nil {
		a.lastRaw = snap.Posture.Raw
		a.hasRaw = true
	}
	if snap.Inertial != nil {
		a.lastAccel = snap.Inertial.Accel
		a.lastGyro = snap.Inertial.Gyro
		a.hasIMU = true
	}
	a.mu.Unlock()

	// Detection keys on fresh posture data. Snapshots without it still feed
	// history and the calibration caches, but their zero joint slots must
	// never reach the classifier as if measured.
	if snap.Posture == nil {
		return
	}
	vec := feature.Extract(snap, a.history.Recent(feature.TemporalWindow))
	if vec.IsEmpty() {
		return
	}
	a.mu.Lock()
	a.latest = vec
	a.hasLatest = true
	a.mu.Unlock()

	ev, outcome := a.detector.Evaluate(vec, snap.Timestamp)
	switch outcome {
	case gesture.Emitted:
		a.emitted.Add(1)
		a.mu.Lock()
		a.lastName = ev.Name
		a.lastAt = ev.Timestamp
		a.mu.Unlock()
		select {
		case a.events <- ev:
		default:
			a.eventDrops.Add(1)
			log.Printf("app: event queue full, dropped %s", ev.Name)
		}
	case gesture.Debounced:
		a.debounced.Add(1)
	case gesture.NoMatch:
		a.noMatch.Add(1)
	}
}

// housekeeping logs a status line, pushes the telemetry heartbeat, and
// prunes the event log.
func (a *App) housekeeping() {
	doc := a.Status()
	log.Printf("app: status snapshots=%v drops=%v emitted=%v debounced=%v no_match=%v transcript=%v",
		doc["snapshots"], doc["snapshot_drops"], doc["emitted"],
		doc["debounced"], doc["no_match"], doc["transcript_len"])

	if a.telemetry != nil {
		if err := a.telemetry.PublishStatus(doc); err != nil {
			log.Printf("app: status publish: %v", err)
		}
	}
	if err := a.store.Events().Prune(eventLogLimit); err != nil {
		log.Printf("app: prune events: %v", err)
	}
}

// sendCommand queues a control command for the dispatcher without ever
// blocking the caller.
func (a *App) sendCommand(cmd output.Command) {
	select {
	case a.commands <- cmd:
	default:
		a.commandDrops.Add(1)
		log.Printf("app: command queue full, dropped %T", cmd)
	}
}
