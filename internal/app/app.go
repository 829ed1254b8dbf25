// Package app wires the capture, fusion, detection, and output stages into
// the running glove pipeline and exposes the control surface the HTTP layer
// talks to.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/calib"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/fusion"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/output"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/telemetry"
)

// Stage queue depths. Snapshots tolerate a short burst; events and commands
// are clipped early because a stale detection is worse than a lost one.
const (
	snapshotQueueDepth = 10
	eventQueueDepth    = 5
	commandQueueDepth  = 5
)

// statusInterval is how often the pipeline logs its health, publishes the
// telemetry heartbeat, and prunes the event log.
const statusInterval = 5 * time.Second

// eventLogLimit bounds the persisted gesture log.
const eventLogLimit = 500

// glove is the sensor surface the pipeline needs from the hardware. The
// serial link provides it on a real glove; the simulated glove stands in for
// demo mode and tests.
type glove interface {
	capture.PostureSource
	capture.InertialSource
	capture.TouchSource
}

// App owns the full pipeline: the sampler feeding snapshots, the processor
// turning them into gesture events, and the dispatcher rendering events into
// output. It also implements the Pipeline surface the HTTP API is built on.
type App struct {
	cfg   config.Config
	store *store.Store

	glove  glove
	link   *capture.SerialLink // nil when the glove is simulated
	camera *capture.Camera     // nil when the camera is disabled

	sampler    *capture.Sampler
	history    *history.Buffer
	fuser      *fusion.Fuser
	detector   *gesture.Detector
	dispatcher *output.Dispatcher
	telemetry  *telemetry.Publisher // nil when MQTT is disabled

	snapshots chan *sensor.Snapshot
	events    chan gesture.Event
	commands  chan output.Command

	start time.Time

	mu        sync.RWMutex
	latest    feature.Vector
	hasLatest bool
	lastRaw   [sensor.JointCount]uint16
	hasRaw    bool
	lastAccel [3]float64
	lastGyro  [3]float64
	hasIMU    bool
	profile   *calib.Profile
	bias      calib.InertialBias
	lastName  string
	lastAt    time.Time

	emitted      atomic.Uint64
	debounced    atomic.Uint64
	noMatch      atomic.Uint64
	eventDrops   atomic.Uint64
	commandDrops atomic.Uint64
}

// New assembles the pipeline from configuration. Extra sinks (the WebSocket
// hub, typically) are registered with the output dispatcher alongside the
// builtin event-log and telemetry sinks. A glove link that cannot be opened
// is fatal; the camera and the MQTT broker degrade to disabled.
func New(cfg config.Config, st *store.Store, sinks ...output.Sink) (*App, error) {
	a := &App{
		cfg:       cfg,
		store:     st,
		snapshots: make(chan *sensor.Snapshot, snapshotQueueDepth),
		events:    make(chan gesture.Event, eventQueueDepth),
		commands:  make(chan output.Command, commandQueueDepth),
		start:     time.Now(),
	}

	// A calibration record that is missing or unreadable never blocks
	// startup; the glove runs on factory calibration until the next
	// calibration pass overwrites the row.
	profile := calib.DefaultProfile()
	if err := st.Profiles().Load(store.ProfileFlex, profile); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("app: no stored flex profile, using factory calibration")
		} else {
			log.Printf("app: stored flex profile unreadable, using factory calibration: %v", err)
			profile = calib.DefaultProfile()
		}
	} else {
		// Recompute so persisted reference codes always carry coherent
		// coefficients, whatever wrote the row.
		profile.Recompute()
	}
	a.profile = profile

	var bias calib.InertialBias
	if err := st.Profiles().Load(store.ProfileInertial, &bias); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("app: no stored inertial bias, starting uncorrected")
		} else {
			log.Printf("app: stored inertial bias unreadable, starting uncorrected: %v", err)
		}
		bias = calib.InertialBias{}
	}
	a.bias = bias

	if cfg.Glove.Simulated {
		a.glove = capture.NewSimulatedGlove()
		log.Printf("app: using simulated glove")
	} else {
		link, err := capture.OpenSerialLink(cfg.Glove.SerialPort, cfg.Glove.BaudRate, profile)
		if err != nil {
			return nil, fmt.Errorf("open glove link: %w", err)
		}
		link.SetBias(bias)
		a.link = link
		a.glove = link
	}

	if cfg.Camera.Enabled {
		cam, err := capture.OpenCamera(cfg.Camera.DeviceID)
		if err != nil {
			log.Printf("app: camera unavailable, continuing without: %v", err)
		} else {
			a.camera = cam
		}
	}

	hist, err := history.New(history.DefaultCapacity)
	if err != nil {
		return nil, err
	}
	a.history = hist
	a.fuser = fusion.NewFuser(cfg.Fusion.Damping)
	a.detector = gesture.NewDetector(gesture.NewVocabulary(),
		gesture.NewTemplateClassifier(cfg.Detection.Threshold),
		time.Duration(cfg.Detection.DebounceMs)*time.Millisecond)

	src := capture.Sources{Posture: a.glove, Inertial: a.glove}
	if cfg.Touch.Enabled {
		src.Touch = a.glove
	}
	if a.camera != nil {
		src.Frame = a.camera
	}
	a.sampler = capture.NewSampler(capture.SamplerConfig{
		Tick:          time.Duration(cfg.Sampling.TickMs) * time.Millisecond,
		FlexRate:      cfg.Sampling.FlexRateHz,
		InertialRate:  cfg.Sampling.InertialRateHz,
		CameraRate:    cfg.Sampling.CameraRateHz,
		TouchRate:     cfg.Sampling.TouchRateHz,
		CameraEnabled: a.camera != nil,
		TouchEnabled:  cfg.Touch.Enabled,
	}, src)

	mode, err := output.ParseMode(cfg.Output.Mode)
	if err != nil {
		return nil, fmt.Errorf("output mode: %w", err)
	}
	all := []output.Sink{&storeEventSink{store: st}}
	all = append(all, sinks...)
	if cfg.MQTT.Enabled {
		pub, err := telemetry.Connect(telemetry.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		})
		if err != nil {
			log.Printf("app: telemetry unavailable, continuing without: %v", err)
		} else {
			a.telemetry = pub
			all = append(all, pub)
		}
	}
	a.dispatcher = output.NewDispatcher(mode, all...)

	if err := a.ensureBuiltins(); err != nil {
		return nil, fmt.Errorf("seed builtin templates: %w", err)
	}
	if err := a.ReloadVocabulary(); err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return a, nil
}

// Close releases the hardware and broker handles. The store stays open; its
// owner closes it.
func (a *App) Close() {
	if a.link != nil {
		if err := a.link.Close(); err != nil {
			log.Printf("app: close glove link: %v", err)
		}
	}
	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			log.Printf("app: close camera: %v", err)
		}
	}
	if a.telemetry != nil {
		a.telemetry.Close()
	}
}

// Frames exposes the camera for the MJPEG preview, or nil when disabled.
func (a *App) Frames() capture.FrameSource {
	if a.camera == nil {
		return nil
	}
	return a.camera
}

// Simulated reports whether the pipeline runs against the simulated glove.
func (a *App) Simulated() bool {
	return a.link == nil
}

// Simulator returns the simulated glove in demo mode, or nil when a real
// link drives the pipeline. Tests and demo tooling use it to pose the hand.
func (a *App) Simulator() *capture.SimulatedGlove {
	if sim, ok := a.glove.(*capture.SimulatedGlove); ok {
		return sim
	}
	return nil
}

// ensureBuiltins seeds the starter alphabet into an empty template store so
// a fresh install recognizes something out of the box.
func (a *App) ensureBuiltins() error {
	count, err := a.store.Templates().Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	builtins := gesture.BuiltinTemplates()
	for _, t := range builtins {
		row := &store.Template{
			ID:        uuid.New().String(),
			Name:      t.Name,
			Type:      store.TemplateType(t.Type),
			Threshold: t.Threshold,
			Archetype: t.Archetype,
		}
		if err := a.store.Templates().Create(row); err != nil {
			return err
		}
	}
	log.Printf("app: seeded %d builtin templates", len(builtins))
	return nil
}

// ReloadVocabulary rebuilds the detector's vocabulary from the template
// store. Untrained templates load too; the classifier skips their empty
// archetypes, and keeping them holds event IDs stable across training.
func (a *App) ReloadVocabulary() error {
	rows, err := a.store.Templates().List()
	if err != nil {
		return err
	}
	loaded := make([]*gesture.Template, 0, len(rows))
	for _, row := range rows {
		loaded = append(loaded, &gesture.Template{
			ID:        row.ID,
			Name:      row.Name,
			Type:      gesture.Type(row.Type),
			Archetype: row.Archetype,
			Threshold: row.Threshold,
		})
	}
	if err := a.detector.Vocabulary().Replace(loaded); err != nil {
		return err
	}
	log.Printf("app: vocabulary loaded, %d templates", len(loaded))
	return nil
}

// LatestVector returns the most recent extracted feature vector. The second
// return is false until the pipeline has processed at least one snapshot.
func (a *App) LatestVector() (feature.Vector, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest, a.hasLatest
}

// FlexProfile returns a copy of the active flex calibration.
func (a *App) FlexProfile() *calib.Profile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p := *a.profile
	return &p
}

// InertialBias returns the active inertial bias offsets.
func (a *App) InertialBias() calib.InertialBias {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bias
}

// Transcript returns the accumulated transcript text.
func (a *App) Transcript() string {
	return a.dispatcher.Transcript()
}

// ClearTranscript queues a transcript wipe for the output stage.
func (a *App) ClearTranscript() {
	a.sendCommand(output.ClearTranscript{})
}

// OutputMode reports the dispatcher's current mode.
func (a *App) OutputMode() string {
	return string(a.dispatcher.Mode())
}

// SetOutputMode validates the mode and queues the switch. The change is
// applied by the dispatcher goroutine, not inline.
func (a *App) SetOutputMode(mode string) error {
	m, err := output.ParseMode(mode)
	if err != nil {
		return err
	}
	a.sendCommand(output.SetMode{Mode: m})
	return nil
}

// Announce queues literal text for the text sinks.
func (a *App) Announce(text string) {
	a.sendCommand(output.Announce{Text: text})
}

// LastGesture returns the name and time of the most recent emission.
func (a *App) LastGesture() (string, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastName, a.lastAt
}

// Status summarizes pipeline health for the API, the telemetry heartbeat,
// and the tray.
func (a *App) Status() map[string]interface{} {
	produced, dropped := a.sampler.Stats()
	doc := map[string]interface{}{
		"uptime_s":       int64(time.Since(a.start).Seconds()),
		"mode":           string(a.dispatcher.Mode()),
		"simulated":      a.link == nil,
		"snapshots":      produced,
		"snapshot_drops": dropped,
		"emitted":        a.emitted.Load(),
		"debounced":      a.debounced.Load(),
		"no_match":       a.noMatch.Load(),
		"event_drops":    a.eventDrops.Load(),
		"command_drops":  a.commandDrops.Load(),
		"vocabulary":     a.detector.Vocabulary().Len(),
		"transcript_len": len([]rune(a.dispatcher.Transcript())),
	}
	if a.link != nil {
		doc["bad_lines"] = a.link.BadLines()
	}
	return doc
}

// storeEventSink persists every emitted gesture into the rolling event log.
type storeEventSink struct {
	store *store.Store
}

func (s *storeEventSink) Name() string { return "store" }

func (s *storeEventSink) PublishEvent(ev gesture.Event) error {
	return s.store.Events().Insert(&store.Event{
		ID:         uuid.New().String(),
		Name:       ev.Name,
		Confidence: ev.Confidence,
		Dynamic:    ev.Dynamic,
		DurationMs: ev.Duration.Milliseconds(),
	})
}
