// Package history provides the bounded circular buffer of sensor snapshots
// the pipeline keeps for temporal features.
//
// The buffer is owned by the processing goroutine alone; it is not safe for
// concurrent use and does not lock. Frame buffers follow a strict ownership
// discipline: Push stores an independent deep copy, eviction releases the
// evicted entry's frame, and Pop hands the frame to the caller along with the
// snapshot.
package history

import (
	"errors"

	"github.com/ayusman/mudra/internal/sensor"
)

// DefaultCapacity matches the device's snapshot history depth.
const DefaultCapacity = 20

var (
	// ErrInvalidCapacity is returned by New for a non-positive capacity.
	ErrInvalidCapacity = errors.New("history: capacity must be positive")

	// ErrEmpty is returned by Pop when no entries remain.
	ErrEmpty = errors.New("history: buffer empty")
)

// Buffer is a fixed-capacity FIFO of snapshot deep copies. Oldest entries are
// evicted (and their frames released) to admit new ones once full.
type Buffer struct {
	entries []*sensor.Snapshot
	head    int // next write slot
	tail    int // oldest occupied slot
	size    int
}

// New allocates a buffer holding up to capacity snapshots.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Buffer{entries: make([]*sensor.Snapshot, capacity)}, nil
}

// Push deep-copies the snapshot into the buffer. The caller keeps ownership
// of the original. When the buffer is full the oldest entry is evicted first,
// releasing any frame it owned; size never exceeds capacity. A frame whose
// pixels cannot be copied is dropped from the stored entry rather than
// failing the push.
func (b *Buffer) Push(snap *sensor.Snapshot) {
	if snap == nil {
		return
	}
	if b.size == len(b.entries) {
		b.evictOldest()
	}
	b.entries[b.head] = snap.Clone()
	b.head = (b.head + 1) % len(b.entries)
	b.size++
}

// Pop removes and returns the oldest snapshot. Ownership of any frame buffer
// transfers to the caller, who must Close the snapshot when done; the
// internal slot is cleared so the buffer can never release it again.
func (b *Buffer) Pop() (*sensor.Snapshot, error) {
	if b.size == 0 {
		return nil, ErrEmpty
	}
	out := b.entries[b.tail]
	b.entries[b.tail] = nil
	b.tail = (b.tail + 1) % len(b.entries)
	b.size--
	return out, nil
}

// Recent returns up to n of the most recent entries, newest first. The
// returned snapshots are borrowed: callers must not retain them past the next
// buffer operation and must not Close them.
func (b *Buffer) Recent(n int) []*sensor.Snapshot {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]*sensor.Snapshot, 0, n)
	for i := 1; i <= n; i++ {
		idx := (b.head - i + len(b.entries)) % len(b.entries)
		out = append(out, b.entries[idx])
	}
	return out
}

// IsEmpty reports whether no entries are stored.
func (b *Buffer) IsEmpty() bool { return b.size == 0 }

// IsFull reports whether the buffer is at capacity.
func (b *Buffer) IsFull() bool { return b.size == len(b.entries) }

// Size returns the number of stored entries.
func (b *Buffer) Size() int { return b.size }

// Capacity returns the fixed capacity.
func (b *Buffer) Capacity() int { return len(b.entries) }

// Close releases every frame buffer still resident and drops all entries.
func (b *Buffer) Close() {
	for i, e := range b.entries {
		if e != nil {
			e.Close()
			b.entries[i] = nil
		}
	}
	b.head, b.tail, b.size = 0, 0, 0
}

func (b *Buffer) evictOldest() {
	old := b.entries[b.tail]
	b.entries[b.tail] = nil
	b.tail = (b.tail + 1) % len(b.entries)
	b.size--
	if old != nil {
		old.Close()
	}
}
