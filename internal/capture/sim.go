package capture

import (
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/sensor"
)

// SimulatedGlove is a programmable stand-in for the serial glove link, used
// by tests and by demo mode. Reads return whatever the current readings are
// set to; unlike the serial link it always has data unless an error is
// forced.
type SimulatedGlove struct {
	mu       sync.Mutex
	posture  sensor.PostureReading
	inertial sensor.InertialReading
	touch    sensor.TouchReading

	postureErr  error
	inertialErr error
	touchErr    error

	edges chan sensor.TouchReading
}

// NewSimulatedGlove returns a glove resting flat and still with no touches.
func NewSimulatedGlove() *SimulatedGlove {
	return &SimulatedGlove{
		posture:  sensor.FlatHandPosture(),
		inertial: sensor.RestingInertial(),
		touch:    sensor.NoTouch(),
		edges:    make(chan sensor.TouchReading, edgeQueueDepth),
	}
}

// SetPosture sets the posture returned by subsequent reads.
func (g *SimulatedGlove) SetPosture(p sensor.PostureReading) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posture = p
}

// SetInertial sets the inertial reading returned by subsequent reads.
func (g *SimulatedGlove) SetInertial(r sensor.InertialReading) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inertial = r
}

// SetTouch sets the touch reading returned by subsequent reads.
func (g *SimulatedGlove) SetTouch(t sensor.TouchReading) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch = t
}

// SetPostureError forces posture reads to fail until cleared with nil.
func (g *SimulatedGlove) SetPostureError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.postureErr = err
}

// SetInertialError forces inertial reads to fail until cleared with nil.
func (g *SimulatedGlove) SetInertialError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inertialErr = err
}

// SetTouchError forces touch reads to fail until cleared with nil.
func (g *SimulatedGlove) SetTouchError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touchErr = err
}

// EmitTouchEdge updates the touch state and pushes a transition on the edge
// channel, the way a pad interrupt would.
func (g *SimulatedGlove) EmitTouchEdge(t sensor.TouchReading) {
	g.mu.Lock()
	g.touch = t
	g.mu.Unlock()
	select {
	case g.edges <- t:
	default:
	}
}

// ReadPosture returns the configured posture with a fresh timestamp.
func (g *SimulatedGlove) ReadPosture() (*sensor.PostureReading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.postureErr != nil {
		return nil, g.postureErr
	}
	p := g.posture
	p.Timestamp = time.Now()
	return &p, nil
}

// ReadInertial returns the configured inertial reading with a fresh
// timestamp.
func (g *SimulatedGlove) ReadInertial() (*sensor.InertialReading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inertialErr != nil {
		return nil, g.inertialErr
	}
	r := g.inertial
	r.Timestamp = time.Now()
	return &r, nil
}

// ReadTouch returns the configured touch reading with a fresh timestamp.
func (g *SimulatedGlove) ReadTouch() (*sensor.TouchReading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.touchErr != nil {
		return nil, g.touchErr
	}
	t := g.touch
	t.Timestamp = time.Now()
	return &t, nil
}

// Edges returns the simulated interrupt channel.
func (g *SimulatedGlove) Edges() <-chan sensor.TouchReading {
	return g.edges
}

// SimulatedCamera produces small synthetic frames, for demo mode and tests
// that need the frame path without hardware.
type SimulatedCamera struct {
	mu  sync.Mutex
	seq uint32
}

// NewSimulatedCamera returns a camera producing 64x48 gray frames.
func NewSimulatedCamera() *SimulatedCamera {
	return &SimulatedCamera{}
}

// CaptureFrame returns a synthetic frame whose fill value tracks the
// sequence number, so tests can tell frames apart.
func (c *SimulatedCamera) CaptureFrame() (*sensor.FrameReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	fill := float64(c.seq % 256)
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(fill, fill, fill, 0), 48, 64, gocv.MatTypeCV8UC3)
	return &sensor.FrameReading{
		Mat:       &mat,
		Width:     64,
		Height:    48,
		Format:    sensor.FormatBGR,
		Seq:       c.seq,
		Timestamp: time.Now(),
	}, nil
}

// Close is a no-op for the simulated camera.
func (c *SimulatedCamera) Close() error { return nil }
