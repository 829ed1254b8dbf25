package history

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/sensor"
)

func frameSnapshot(t *testing.T, seq uint32, fill float64) *sensor.Snapshot {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(fill, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC1)
	return &sensor.Snapshot{
		Seq: seq,
		Frame: &sensor.FrameReading{
			Mat: &mat, Width: 4, Height: 4, Format: sensor.FormatBGR, Seq: seq,
		},
	}
}

func TestNew_RejectsZeroCapacity(t *testing.T) {
	if _, err := New(0); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("New(0) error = %v, want ErrInvalidCapacity", err)
	}
	if _, err := New(-3); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("New(-3) error = %v, want ErrInvalidCapacity", err)
	}
}

func TestBuffer_SizeNeverExceedsCapacity(t *testing.T) {
	b, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	for seq := uint32(1); seq <= 10; seq++ {
		b.Push(sensor.PostureSnapshot(seq, sensor.FlatHandPosture()))
		if b.Size() > b.Capacity() {
			t.Fatalf("size %d exceeded capacity %d after push %d", b.Size(), b.Capacity(), seq)
		}
	}
	if !b.IsFull() {
		t.Error("buffer not full after capacity+6 pushes")
	}
}

func TestBuffer_FIFOOrder(t *testing.T) {
	b, _ := New(8)
	defer b.Close()

	for seq := uint32(1); seq <= 8; seq++ {
		b.Push(sensor.PostureSnapshot(seq, sensor.FlatHandPosture()))
	}

	for want := uint32(1); want <= 8; want++ {
		got, err := b.Pop()
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if got.Seq != want {
			t.Errorf("Pop() seq = %d, want %d", got.Seq, want)
		}
	}
	if !b.IsEmpty() {
		t.Error("buffer not empty after draining")
	}
	if _, err := b.Pop(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Pop() on empty error = %v, want ErrEmpty", err)
	}
}

func TestBuffer_EvictsOldestWhenFull(t *testing.T) {
	b, _ := New(3)
	defer b.Close()

	var evictee *sensor.FrameReading
	for seq := uint32(1); seq <= 4; seq++ {
		snap := frameSnapshot(t, seq, float64(seq))
		b.Push(snap)
		snap.Close() // caller keeps ownership of the original
		if seq == 1 {
			evictee = b.entries[b.tail].Frame
		}
	}

	if b.Size() != 3 {
		t.Fatalf("size = %d, want 3", b.Size())
	}
	if !evictee.Closed() {
		t.Error("evicted entry's frame buffer was not released")
	}

	// Entry 1 was evicted; 2..4 remain in order.
	for want := uint32(2); want <= 4; want++ {
		got, err := b.Pop()
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if got.Seq != want {
			t.Errorf("Pop() seq = %d, want %d", got.Seq, want)
		}
		got.Close()
	}
}

func TestBuffer_FrameOwnershipRoundTrip(t *testing.T) {
	b, _ := New(2)
	defer b.Close()

	original := frameSnapshot(t, 1, 42)
	b.Push(original)

	// The stored entry is an independent copy.
	original.Close()

	popped, err := b.Pop()
	if err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if popped.Frame == nil {
		t.Fatal("popped snapshot lost its frame")
	}
	if got := popped.Frame.Mat.GetUCharAt(3, 3); got != 42 {
		t.Errorf("popped frame pixel = %d, want 42", got)
	}

	// The slot was cleared on pop: closing the buffer must not touch the
	// frame the caller now owns.
	b.Close()
	if popped.Frame.Closed() {
		t.Fatal("buffer Close released a frame whose ownership had transferred out")
	}
	if got := popped.Frame.Mat.GetUCharAt(0, 0); got != 42 {
		t.Errorf("frame pixel after buffer close = %d, want 42", got)
	}
	popped.Close()
}

func TestBuffer_DegradedPushDropsUncopyableFrame(t *testing.T) {
	b, _ := New(2)
	defer b.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	snap := &sensor.Snapshot{Seq: 5, Frame: &sensor.FrameReading{Mat: &empty}}
	b.Push(snap)

	got, err := b.Pop()
	if err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if got.Frame != nil {
		t.Error("entry kept a frame that had no pixels to copy")
	}
	if got.Seq != 5 {
		t.Errorf("degraded entry seq = %d, want 5", got.Seq)
	}
}

func TestBuffer_RecentNewestFirst(t *testing.T) {
	b, _ := New(5)
	defer b.Close()

	for seq := uint32(1); seq <= 7; seq++ {
		b.Push(sensor.PostureSnapshot(seq, sensor.FlatHandPosture()))
	}

	recent := b.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Recent(3) returned %d entries", len(recent))
	}
	for i, want := range []uint32{7, 6, 5} {
		if recent[i].Seq != want {
			t.Errorf("Recent[%d].Seq = %d, want %d", i, recent[i].Seq, want)
		}
	}

	// Asking for more than stored caps at the current size.
	if got := len(b.Recent(100)); got != 5 {
		t.Errorf("Recent(100) returned %d entries, want 5", got)
	}
	if b.Recent(0) != nil {
		t.Error("Recent(0) should return nil")
	}
}

func TestBuffer_PushCopiesReadings(t *testing.T) {
	b, _ := New(2)
	defer b.Close()

	p := sensor.FlatHandPosture()
	snap := sensor.PostureSnapshot(1, p)
	b.Push(snap)

	// Mutating the caller's snapshot must not change the stored copy.
	snap.Posture.Angles[0] = 77

	got, _ := b.Pop()
	if got.Posture.Angles[0] != 0 {
		t.Errorf("stored angle = %v, want 0 (deep copy)", got.Posture.Angles[0])
	}
}
