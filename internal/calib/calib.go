// Package calib holds the calibration state for the glove's sensors: the
// per-joint linear map from raw flex codes to angles, raw-code smoothing, and
// the inertial bias offsets.
package calib

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/sensor"
)

// Factory calibration points and the guard against degenerate spans.
const (
	DefaultFlat   = 2000 // raw code with the joint straight
	DefaultBent   = 3500 // raw code with the joint fully bent
	MinSeparation = 100  // minimum bent-flat span before falling back
	AngleMax      = 90.0
)

// ErrBadJoint is returned for joint indices outside the monitored range.
var ErrBadJoint = errors.New("calib: joint index out of range")

// Channel is one joint's calibration: the two reference raw codes and the
// derived linear coefficients satisfying angle = Scale*raw + Offset.
type Channel struct {
	Flat   uint16  `json:"flat"`
	Bent   uint16  `json:"bent"`
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

// Profile is the posture calibration for all monitored joints.
type Profile struct {
	Joints [sensor.JointCount]Channel `json:"joints"`
}

// DefaultProfile returns a profile at the factory calibration points.
func DefaultProfile() *Profile {
	p := &Profile{}
	for i := range p.Joints {
		p.Joints[i].Flat = DefaultFlat
		p.Joints[i].Bent = DefaultBent
	}
	p.Recompute()
	return p
}

// Recompute rederives every channel's scale and offset from its reference
// points. A channel whose span is below the minimum separation is reset to
// the factory points first, so a botched calibration can never produce a
// near-infinite scale.
func (p *Profile) Recompute() {
	for i := range p.Joints {
		ch := &p.Joints[i]
		if int(ch.Bent)-int(ch.Flat) < MinSeparation {
			ch.Flat = DefaultFlat
			ch.Bent = DefaultBent
		}
		ch.Scale = AngleMax / float64(ch.Bent-ch.Flat)
		ch.Offset = -ch.Scale * float64(ch.Flat)
	}
}

// SetFlat records new straight-hand reference codes and recomputes.
func (p *Profile) SetFlat(raw [sensor.JointCount]uint16) {
	for i := range p.Joints {
		p.Joints[i].Flat = raw[i]
	}
	p.Recompute()
}

// SetBent records new bent-hand reference codes and recomputes.
func (p *Profile) SetBent(raw [sensor.JointCount]uint16) {
	for i := range p.Joints {
		p.Joints[i].Bent = raw[i]
	}
	p.Recompute()
}

// Angle maps one joint's raw code to a calibrated angle, clamped to
// [0, AngleMax].
func (p *Profile) Angle(joint int, raw uint16) (float64, error) {
	if joint < 0 || joint >= sensor.JointCount {
		return 0, fmt.Errorf("%w: %d", ErrBadJoint, joint)
	}
	ch := p.Joints[joint]
	angle := ch.Scale*float64(raw) + ch.Offset
	if angle < 0 {
		angle = 0
	} else if angle > AngleMax {
		angle = AngleMax
	}
	return angle, nil
}

// Angles maps a full set of raw codes to calibrated angles.
func (p *Profile) Angles(raw [sensor.JointCount]uint16) [sensor.JointCount]float64 {
	var out [sensor.JointCount]float64
	for i := range raw {
		out[i], _ = p.Angle(i, raw[i])
	}
	return out
}
