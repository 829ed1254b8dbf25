// Package feature turns fused snapshots into fixed-layout feature vectors.
//
// Slots are positional: a group always lives at the same offsets whether or
// not earlier groups are populated, and Count records the high-water mark of
// populated groups. Templates and live vectors therefore stay comparable
// slot-for-slot even when a modality drops out.
package feature

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/sensor"
)

// Slot layout. Joint angles first, then adjacent-finger differences grouped
// knuckle row before middle row, then the inertial triplets, touch contacts,
// and the short-window acceleration average.
const (
	SlotJoints      = 0
	SlotKnuckleDiff = 10
	SlotMiddleDiff  = 14
	SlotOrientation = 18
	SlotAccel       = 21
	SlotGyro        = 24
	SlotTouch       = 27
	SlotAvgAccel    = 32

	Size = 35

	// TemporalWindow is how many recent snapshots feed the average
	// acceleration group.
	TemporalWindow = 5

	fingerPairs = sensor.JointCount/2 - 1
)

// Vector is one extracted feature set. Values beyond Count are zero and
// carry no information.
type Vector struct {
	Values    [Size]float64 `json:"values"`
	Count     int           `json:"count"`
	Timestamp time.Time     `json:"-"`
}

// IsEmpty reports whether no feature group was populated.
func (v Vector) IsEmpty() bool { return v.Count == 0 }

// Extract computes the feature vector for a fused snapshot. recent is the
// history window, newest first; it only feeds the temporal group. Extraction
// is a pure function of its arguments.
//
// Group prerequisites: joints and finger differences need posture;
// orientation, acceleration and angular rate need inertial; contacts need
// touch; the average-acceleration group needs inertial plus a full
// TemporalWindow of history. A group whose prerequisite is missing
// contributes nothing and leaves Count where it was.
func Extract(snap *sensor.Snapshot, recent []*sensor.Snapshot) Vector {
	var v Vector
	if snap == nil {
		return v
	}
	v.Timestamp = snap.Timestamp

	if snap.Posture != nil {
		for i, a := range snap.Posture.Angles {
			v.Values[SlotJoints+i] = a
		}
		for i := 0; i < fingerPairs; i++ {
			v.Values[SlotKnuckleDiff+i] = math.Abs(snap.Posture.Angles[2*i] - snap.Posture.Angles[2*i+2])
			v.Values[SlotMiddleDiff+i] = math.Abs(snap.Posture.Angles[2*i+1] - snap.Posture.Angles[2*i+3])
		}
		v.Count = SlotOrientation
	}

	if snap.Inertial != nil {
		for i := 0; i < 3; i++ {
			v.Values[SlotOrientation+i] = snap.Inertial.Orientation[i]
			v.Values[SlotAccel+i] = snap.Inertial.Accel[i]
			v.Values[SlotGyro+i] = snap.Inertial.Gyro[i]
		}
		v.Count = SlotTouch
	}

	if snap.Touch != nil {
		for i, pressed := range snap.Touch.Contacts {
			if pressed {
				v.Values[SlotTouch+i] = 1
			}
		}
		v.Count = SlotAvgAccel
	}

	if snap.Inertial != nil && len(recent) >= TemporalWindow {
		var sum [3]float64
		for _, s := range recent[:TemporalWindow] {
			if s != nil && s.Inertial != nil {
				for i := 0; i < 3; i++ {
					sum[i] += s.Inertial.Accel[i]
				}
			}
		}
		// Entries without inertial data contribute zero but still count
		// toward the window length.
		for i := 0; i < 3; i++ {
			v.Values[SlotAvgAccel+i] = sum[i] / TemporalWindow
		}
		v.Count = Size
	}

	return v
}
