package sensor

import "time"

// Preset readings used by tests across the pipeline packages. They mirror the
// factory calibration (flat raw 2000, bent raw 3500) so raw codes and angles
// stay consistent with each other.

// FlatHandPosture returns a posture with every joint straight: raw codes at
// the flat calibration point, all angles zero. Matches the ASL 'B' hand shape.
func FlatHandPosture() PostureReading {
	p := PostureReading{Timestamp: time.Now()}
	for i := 0; i < JointCount; i++ {
		p.Raw[i] = 2000
		p.Angles[i] = 0
	}
	return p
}

// FistPosture returns a posture with every joint fully bent: raw codes at the
// bent calibration point, all angles 90.
func FistPosture() PostureReading {
	p := PostureReading{Timestamp: time.Now()}
	for i := 0; i < JointCount; i++ {
		p.Raw[i] = 3500
		p.Angles[i] = 90
	}
	return p
}

// CurledFistPosture returns the ASL 'A' hand shape: fingers curled to 70
// degrees with the thumb alongside at 30/40.
func CurledFistPosture() PostureReading {
	p := PostureReading{Timestamp: time.Now()}
	for i := 0; i < JointCount; i++ {
		p.Angles[i] = 70
	}
	p.Angles[ThumbMCP] = 30
	p.Angles[ThumbPIP] = 40
	for i := 0; i < JointCount; i++ {
		p.Raw[i] = 2000 + uint16(p.Angles[i]/0.06)
	}
	return p
}

// RestingInertial returns an inertial reading for a still, level hand:
// gravity on Z, no rotation, zero orientation.
func RestingInertial() InertialReading {
	return InertialReading{
		Accel:     [3]float64{0, 0, 1},
		Timestamp: time.Now(),
	}
}

// TiltedInertial returns an inertial reading with the given roll and pitch in
// degrees, for exercising the orientation correction path.
func TiltedInertial(roll, pitch float64) InertialReading {
	r := RestingInertial()
	r.Orientation[0] = roll
	r.Orientation[1] = pitch
	return r
}

// NoTouch returns a touch reading with no pads in contact.
func NoTouch() TouchReading {
	return TouchReading{Timestamp: time.Now()}
}

// ThumbIndexTouch returns a touch reading with the thumb and index pads in
// contact.
func ThumbIndexTouch() TouchReading {
	t := TouchReading{Timestamp: time.Now()}
	t.Contacts[TouchThumb] = true
	t.Contacts[TouchIndex] = true
	return t
}

// PostureSnapshot wraps a posture reading in a snapshot with the given
// sequence number.
func PostureSnapshot(seq uint32, p PostureReading) *Snapshot {
	return &Snapshot{Seq: seq, Timestamp: time.Now(), Posture: &p}
}

// FullSnapshot returns a snapshot with posture, inertial, and touch all
// populated (no frame).
func FullSnapshot(seq uint32, p PostureReading, in InertialReading, t TouchReading) *Snapshot {
	return &Snapshot{
		Seq:       seq,
		Timestamp: time.Now(),
		Posture:   &p,
		Inertial:  &in,
		Touch:     &t,
	}
}
