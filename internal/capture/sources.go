// Package capture provides the sensor sources feeding the pipeline (glove
// serial link, host webcam, simulated stand-ins) and the multi-rate sampler
// that assembles composite snapshots from them.
package capture

import (
	"errors"

	"github.com/ayusman/mudra/internal/sensor"
)

// ErrNoData is returned by a source read when nothing fresh has arrived since
// the previous read. The sampler treats it as "modality not fresh this tick",
// never as a fault.
var ErrNoData = errors.New("capture: no fresh data")

// PostureSource produces flex-sensor readings with calibration applied.
type PostureSource interface {
	ReadPosture() (*sensor.PostureReading, error)
}

// InertialSource produces bias-corrected inertial readings with a filtered
// orientation estimate.
type InertialSource interface {
	ReadInertial() (*sensor.InertialReading, error)
}

// FrameSource produces camera frames. The caller owns each returned frame
// and must Close it (or pass ownership on).
type FrameSource interface {
	CaptureFrame() (*sensor.FrameReading, error)

	// Close releases the underlying device.
	Close() error
}

// TouchSource produces touch-pad readings and, where the hardware supports
// it, pushes contact transitions on an edge channel so discrete touches reach
// the pipeline without waiting for the next poll.
type TouchSource interface {
	ReadTouch() (*sensor.TouchReading, error)

	// Edges returns the transition channel, or nil if the source only polls.
	Edges() <-chan sensor.TouchReading
}
