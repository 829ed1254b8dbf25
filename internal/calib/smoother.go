package calib

import "github.com/ayusman/mudra/internal/sensor"

// DefaultSmoothingWindow is the number of raw samples averaged per joint
// before calibration is applied.
const DefaultSmoothingWindow = 5

// Smoother applies a per-joint moving average to raw flex codes, knocking
// down single-sample ADC noise before the linear map runs.
type Smoother struct {
	window  int
	samples [][sensor.JointCount]uint16
	next    int
	count   int
}

// NewSmoother returns a smoother averaging over the given window. A window
// below one falls back to the default.
func NewSmoother(window int) *Smoother {
	if window < 1 {
		window = DefaultSmoothingWindow
	}
	return &Smoother{
		window:  window,
		samples: make([][sensor.JointCount]uint16, window),
	}
}

// Apply records one raw sample and returns the per-joint mean over the
// samples seen so far (up to the window size).
func (s *Smoother) Apply(raw [sensor.JointCount]uint16) [sensor.JointCount]uint16 {
	s.samples[s.next] = raw
	s.next = (s.next + 1) % s.window
	if s.count < s.window {
		s.count++
	}

	var out [sensor.JointCount]uint16
	for j := 0; j < sensor.JointCount; j++ {
		sum := 0
		for i := 0; i < s.count; i++ {
			sum += int(s.samples[i][j])
		}
		out[j] = uint16(sum / s.count)
	}
	return out
}

// Reset clears the sample window.
func (s *Smoother) Reset() {
	s.next = 0
	s.count = 0
}
