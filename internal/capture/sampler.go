package capture

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/sensor"
)

// Sampling defaults: the fine tick the scheduler runs on and the per-modality
// rates, matching what the glove hardware produces.
const (
	DefaultTick         = 5 * time.Millisecond
	DefaultFlexRate     = 50  // Hz
	DefaultInertialRate = 100 // Hz
	DefaultCameraRate   = 15  // Hz
	DefaultTouchRate    = 20  // Hz
)

// SamplerConfig sets the scheduler tick, the per-modality rates, and which
// optional modalities are administratively enabled.
type SamplerConfig struct {
	Tick          time.Duration
	FlexRate      int
	InertialRate  int
	CameraRate    int
	TouchRate     int
	CameraEnabled bool
	TouchEnabled  bool
}

func (c SamplerConfig) withDefaults() SamplerConfig {
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.FlexRate <= 0 {
		c.FlexRate = DefaultFlexRate
	}
	if c.InertialRate <= 0 {
		c.InertialRate = DefaultInertialRate
	}
	if c.CameraRate <= 0 {
		c.CameraRate = DefaultCameraRate
	}
	if c.TouchRate <= 0 {
		c.TouchRate = DefaultTouchRate
	}
	return c
}

// Sources collects the modality sources the sampler polls. A nil source
// behaves like a disabled modality.
type Sources struct {
	Posture  PostureSource
	Inertial InertialSource
	Frame    FrameSource
	Touch    TouchSource
}

// Sampler runs the multi-rate acquisition loop: each fine tick it reads every
// modality that has come due, assembles whatever freshened into a composite
// snapshot, and hands it downstream without ever blocking on the consumer.
// Touch edges bypass the interval checks and enqueue immediately.
type Sampler struct {
	cfg SamplerConfig
	src Sources

	flexEvery     time.Duration
	inertialEvery time.Duration
	cameraEvery   time.Duration
	touchEvery    time.Duration

	lastFlex     time.Time
	lastInertial time.Time
	lastCamera   time.Time
	lastTouch    time.Time

	seq      uint32
	produced atomic.Uint64
	dropped  atomic.Uint64
}

// NewSampler builds a sampler over the given sources.
func NewSampler(cfg SamplerConfig, src Sources) *Sampler {
	cfg = cfg.withDefaults()
	return &Sampler{
		cfg:           cfg,
		src:           src,
		flexEvery:     time.Second / time.Duration(cfg.FlexRate),
		inertialEvery: time.Second / time.Duration(cfg.InertialRate),
		cameraEvery:   time.Second / time.Duration(cfg.CameraRate),
		touchEvery:    time.Second / time.Duration(cfg.TouchRate),
	}
}

// Run drives the acquisition loop until the context is canceled. Snapshots
// go to out with a non-blocking send; when the queue is full the snapshot is
// dropped and released, favoring freshness over completeness.
func (s *Sampler) Run(ctx context.Context, out chan<- *sensor.Snapshot) error {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	// A nil edge channel never fires in the select below.
	var edges <-chan sensor.TouchReading
	if s.cfg.TouchEnabled && s.src.Touch != nil {
		edges = s.src.Touch.Edges()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case t := <-edges:
			// Edge events draw from the same sequence counter as polled
			// snapshots, so ordering stays total.
			s.emit(out, &sensor.Snapshot{Touch: &t}, time.Now())

		case now := <-ticker.C:
			if snap := s.poll(now); snap != nil {
				s.emit(out, snap, now)
			}
		}
	}
}

// poll reads every modality that is due. A read failure suppresses that
// modality for this tick and leaves its due time unchanged, so the next tick
// retries; it never aborts the other modalities.
func (s *Sampler) poll(now time.Time) *sensor.Snapshot {
	snap := &sensor.Snapshot{}
	fresh := false

	if s.src.Posture != nil && now.Sub(s.lastFlex) >= s.flexEvery {
		if p, err := s.src.Posture.ReadPosture(); err == nil {
			snap.Posture = p
			s.lastFlex = now
			fresh = true
		} else if !errors.Is(err, ErrNoData) {
			log.Printf("sampler: posture read: %v", err)
		}
	}

	if s.src.Inertial != nil && now.Sub(s.lastInertial) >= s.inertialEvery {
		if r, err := s.src.Inertial.ReadInertial(); err == nil {
			snap.Inertial = r
			s.lastInertial = now
			fresh = true
		} else if !errors.Is(err, ErrNoData) {
			log.Printf("sampler: inertial read: %v", err)
		}
	}

	if s.cfg.CameraEnabled && s.src.Frame != nil && now.Sub(s.lastCamera) >= s.cameraEvery {
		if f, err := s.src.Frame.CaptureFrame(); err == nil {
			snap.Frame = f
			s.lastCamera = now
			fresh = true
		} else {
			log.Printf("sampler: frame capture: %v", err)
		}
	}

	if s.cfg.TouchEnabled && s.src.Touch != nil && now.Sub(s.lastTouch) >= s.touchEvery {
		if t, err := s.src.Touch.ReadTouch(); err == nil {
			snap.Touch = t
			s.lastTouch = now
			fresh = true
		} else if !errors.Is(err, ErrNoData) {
			log.Printf("sampler: touch read: %v", err)
		}
	}

	if !fresh {
		return nil
	}
	return snap
}

func (s *Sampler) emit(out chan<- *sensor.Snapshot, snap *sensor.Snapshot, now time.Time) {
	s.seq++
	snap.Seq = s.seq
	snap.Timestamp = now

	select {
	case out <- snap:
		s.produced.Add(1)
	default:
		// Queue full: release the snapshot (and any frame it owns) rather
		// than block the acquisition loop.
		snap.Close()
		s.dropped.Add(1)
		log.Printf("sampler: snapshot queue full, dropped seq=%d", snap.Seq)
	}
}

// Stats returns how many snapshots have been delivered and dropped.
func (s *Sampler) Stats() (produced, dropped uint64) {
	return s.produced.Load(), s.dropped.Load()
}
