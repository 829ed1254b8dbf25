// Package fusion reconciles the modalities of a composite snapshot into a
// single corrected view before feature extraction.
package fusion

import (
	"math"
	"sync"

	"github.com/ayusman/mudra/internal/sensor"
)

// DefaultDamping is the orientation correction gain. Tilting the hand loads
// the flex sensors slightly; the correction shrinks reported angles in
// proportion to how far the hand is from level.
const (
	DefaultDamping = 0.1
	MaxDamping     = 0.1
)

// Fuser applies cross-modality corrections in place and caches the most
// recent fused result for consumers that want last-known state without
// re-deriving it.
type Fuser struct {
	damping float64

	mu     sync.Mutex
	last   *sensor.Snapshot
	latest *sensor.Snapshot
}

// NewFuser returns a fuser with the given damping gain. Values outside
// (0, MaxDamping] fall back to the default.
func NewFuser(damping float64) *Fuser {
	if damping <= 0 || damping > MaxDamping {
		damping = DefaultDamping
	}
	return &Fuser{damping: damping}
}

// Process fuses the snapshot in place. When posture and inertial data are
// both present, every joint angle is scaled by
// 1 - (|roll|+|pitch|)/180 * damping. Absent modalities pass through
// untouched, and processing the same snapshot again is a no-op, so the call
// never compounds its own correction. Fusion never fails.
//
// recent is a read-only borrow of the newest history entries, newest first.
// The base correction needs only the snapshot itself; corrections that span
// snapshots consume the window.
func (f *Fuser) Process(snap *sensor.Snapshot, recent []*sensor.Snapshot) {
	if snap == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if snap != f.last {
		f.last = snap
		if snap.Posture != nil && snap.Inertial != nil {
			tilt := math.Abs(snap.Inertial.Orientation[0]) + math.Abs(snap.Inertial.Orientation[1])
			factor := 1 - tilt/180*f.damping
			for i := range snap.Posture.Angles {
				snap.Posture.Angles[i] *= factor
			}
		}
		// Frames carry no numeric correction today; a vision-assisted
		// refinement would consume snap.Frame and recent here.
	}
	f.latest = frameless(snap)
}

// Latest returns an independent copy of the most recently fused snapshot.
// Frame payloads are never cached; the copy's Frame is always nil. The second
// return is false until the first Process call.
func (f *Fuser) Latest() (*sensor.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return nil, false
	}
	return frameless(f.latest), true
}

// frameless copies everything but the frame, which stays owned by the
// pipeline.
func frameless(snap *sensor.Snapshot) *sensor.Snapshot {
	out := &sensor.Snapshot{Seq: snap.Seq, Timestamp: snap.Timestamp}
	if snap.Posture != nil {
		p := *snap.Posture
		out.Posture = &p
	}
	if snap.Inertial != nil {
		r := *snap.Inertial
		out.Inertial = &r
	}
	if snap.Touch != nil {
		t := *snap.Touch
		out.Touch = &t
	}
	return out
}
