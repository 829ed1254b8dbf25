// Package sensor defines the reading types produced by the glove's sensor
// modalities and the composite snapshot that carries them through the pipeline.
package sensor

import (
	"time"

	"gocv.io/x/gocv"
)

// Joint indices into PostureReading, one flex channel per monitored joint.
// Even indices are MCP (knuckle) joints, odd indices are PIP (mid-finger)
// joints, ordered thumb to pinky.
const (
	ThumbMCP   = 0
	ThumbPIP   = 1
	IndexMCP   = 2
	IndexPIP   = 3
	MiddleMCP  = 4
	MiddlePIP  = 5
	RingMCP    = 6
	RingPIP    = 7
	PinkyMCP   = 8
	PinkyPIP   = 9
	JointCount = 10
)

// Touch channel indices, one capacitive pad per fingertip.
const (
	TouchThumb  = 0
	TouchIndex  = 1
	TouchMiddle = 2
	TouchRing   = 3
	TouchPinky  = 4
	TouchCount  = 5
)

// FormatBGR identifies the 8-bit 3-channel BGR pixel layout captured by the
// host webcam.
const FormatBGR = "bgr8"

// PostureReading holds one sample of the flex-sensor channels: the raw ADC
// codes and the calibrated joint angles derived from them, clamped to [0, 90]
// degrees.
type PostureReading struct {
	Raw       [JointCount]uint16
	Angles    [JointCount]float64
	Timestamp time.Time
}

// InertialReading holds one sample of the inertial unit: linear acceleration
// in g, angular rate in deg/s, and the filtered orientation estimate in
// degrees (roll, pitch, yaw).
type InertialReading struct {
	Accel       [3]float64
	Gyro        [3]float64
	Orientation [3]float64
	Timestamp   time.Time
}

// TouchReading holds one sample of the capacitive touch pads.
type TouchReading struct {
	Contacts  [TouchCount]bool
	Timestamp time.Time
}

// FrameReading owns one captured camera frame. The Mat is heap-allocated
// native memory: whoever holds the reading must either pass ownership on or
// call Close. Frames carry their own sequence number because the camera runs
// at its own rate.
type FrameReading struct {
	Mat       *gocv.Mat
	Width     int
	Height    int
	Format    string
	Seq       uint32
	Timestamp time.Time
}

// Clone returns an independently-owned copy of the frame, or nil if the
// frame has no usable pixel data to copy.
func (f *FrameReading) Clone() *FrameReading {
	if f == nil || f.Mat == nil || f.Mat.Empty() {
		return nil
	}
	mat := f.Mat.Clone()
	return &FrameReading{
		Mat:       &mat,
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
	}
}

// Close releases the frame's pixel buffer. Safe to call more than once.
func (f *FrameReading) Close() {
	if f == nil || f.Mat == nil {
		return
	}
	f.Mat.Close()
	f.Mat = nil
}

// Closed reports whether the frame's pixel buffer has been released.
func (f *FrameReading) Closed() bool {
	return f == nil || f.Mat == nil
}

// Snapshot is the composite record assembled by the sampler: the latest
// reading from each modality, or nil where the modality produced nothing
// fresh. Sequence numbers strictly increase across every snapshot the sampler
// emits, edge-triggered ones included.
type Snapshot struct {
	Seq       uint32
	Timestamp time.Time
	Posture   *PostureReading
	Inertial  *InertialReading
	Frame     *FrameReading
	Touch     *TouchReading
}

// Clone deep-copies the snapshot. The frame is duplicated into independently
// owned memory; if its pixel data cannot be copied the clone is inserted
// degraded, with the frame dropped, rather than failing.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{Seq: s.Seq, Timestamp: s.Timestamp}
	if s.Posture != nil {
		p := *s.Posture
		c.Posture = &p
	}
	if s.Inertial != nil {
		in := *s.Inertial
		c.Inertial = &in
	}
	if s.Touch != nil {
		t := *s.Touch
		c.Touch = &t
	}
	c.Frame = s.Frame.Clone()
	return c
}

// Close releases any frame buffer the snapshot owns.
func (s *Snapshot) Close() {
	if s == nil {
		return
	}
	s.Frame.Close()
}
