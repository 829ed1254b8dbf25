package sensor

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestSnapshotClone_DeepCopiesModalities(t *testing.T) {
	snap := FullSnapshot(7, FlatHandPosture(), RestingInertial(), ThumbIndexTouch())

	clone := snap.Clone()
	if clone.Seq != 7 {
		t.Errorf("clone.Seq = %d, want 7", clone.Seq)
	}

	// Mutating the original must not leak into the clone.
	snap.Posture.Angles[IndexMCP] = 45
	snap.Inertial.Accel[0] = 9.9
	snap.Touch.Contacts[TouchPinky] = true

	if clone.Posture.Angles[IndexMCP] != 0 {
		t.Errorf("clone posture angle = %v, want 0", clone.Posture.Angles[IndexMCP])
	}
	if clone.Inertial.Accel[0] != 0 {
		t.Errorf("clone accel = %v, want 0", clone.Inertial.Accel[0])
	}
	if clone.Touch.Contacts[TouchPinky] {
		t.Error("clone touch contact leaked from original")
	}
}

func TestSnapshotClone_AbsentModalitiesStayAbsent(t *testing.T) {
	p := FlatHandPosture()
	snap := &Snapshot{Seq: 1, Timestamp: time.Now(), Posture: &p}

	clone := snap.Clone()
	if clone.Posture == nil {
		t.Fatal("posture missing from clone")
	}
	if clone.Inertial != nil || clone.Touch != nil || clone.Frame != nil {
		t.Error("clone invented modalities the original did not carry")
	}
}

func TestFrameClone_IndependentPixelBuffer(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(42, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC1)
	frame := &FrameReading{Mat: &mat, Width: 4, Height: 4, Format: FormatBGR, Seq: 3}

	clone := frame.Clone()
	if clone == nil {
		t.Fatal("Clone() returned nil for a valid frame")
	}
	defer clone.Close()

	// Releasing the original must leave the clone's pixels intact.
	frame.Close()
	if !frame.Closed() {
		t.Error("original frame still reports open after Close")
	}
	if got := clone.Mat.GetUCharAt(2, 2); got != 42 {
		t.Errorf("clone pixel = %d, want 42", got)
	}
}

func TestFrameClone_DegradesWithoutPixels(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	cases := []struct {
		name  string
		frame *FrameReading
	}{
		{"nil frame", nil},
		{"nil mat", &FrameReading{}},
		{"empty mat", &FrameReading{Mat: &empty}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.frame.Clone(); got != nil {
				t.Errorf("Clone() = %v, want nil", got)
			}
		})
	}
}

func TestFrameClose_Idempotent(t *testing.T) {
	mat := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)
	frame := &FrameReading{Mat: &mat}

	frame.Close()
	frame.Close() // second release must be a no-op

	if !frame.Closed() {
		t.Error("frame not closed after Close")
	}
}

func TestSnapshotClose_ReleasesFrame(t *testing.T) {
	mat := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)
	snap := &Snapshot{Seq: 1, Frame: &FrameReading{Mat: &mat}}

	snap.Close()
	if !snap.Frame.Closed() {
		t.Error("snapshot Close left the frame open")
	}
}
