package history

const (
	// DefaultCapacity is the history length used by the handheld sender screen.
	DefaultCapacity = 20
	// GatewayCapacity is the history length used by the gateway screen.
	GatewayCapacity = 30
)

// Buffer is a fixed-capacity circular buffer of recent samples for one metric.
// Once the write cursor wraps the buffer stays filled and the oldest sample is
// overwritten on every push.
//
// Buffer is not safe for concurrent use; it is owned by a single tick loop.
type Buffer struct {
	slots  []float32
	cursor int
	filled bool
}

// New creates a zero-initialised buffer. A non-positive capacity falls back
// to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		slots: make([]float32, capacity),
	}
}

// Push writes v at the cursor and advances it.
func (b *Buffer) Push(v float32) {
	b.slots[b.cursor] = v
	b.cursor++
	if b.cursor >= len(b.slots) {
		b.cursor = 0
		b.filled = true
	}
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.slots)
}

// Len returns the number of slots holding written data.
func (b *Buffer) Len() int {
	if b.filled {
		return len(b.slots)
	}
	return b.cursor
}

// Filled reports whether the cursor has wrapped at least once.
func (b *Buffer) Filled() bool {
	return b.filled
}

// Cursor returns the slot the next push writes to.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Values copies the active samples into dst in chronological order
// (oldest first) and returns it. dst is reused when it has enough capacity.
func (b *Buffer) Values(dst []float32) []float32 {
	n := b.Len()
	if cap(dst) >= n {
		dst = dst[:n]
	} else {
		dst = make([]float32, n)
	}

	if !b.filled {
		copy(dst, b.slots[:n])
		return dst
	}

	// Oldest sample sits at the cursor once the buffer has wrapped
	k := copy(dst, b.slots[b.cursor:])
	copy(dst[k:], b.slots[:b.cursor])
	return dst
}

// Last returns the most recently written sample.
func (b *Buffer) Last() (float32, bool) {
	if b.Len() == 0 {
		return 0, false
	}
	idx := (b.cursor - 1 + len(b.slots)) % len(b.slots)
	return b.slots[idx], true
}

// MinMax returns the smallest and largest active samples.
// ok is false when the buffer is empty.
func (b *Buffer) MinMax() (minVal, maxVal float32, ok bool) {
	n := b.Len()
	if n == 0 {
		return 0, 0, false
	}
	minVal, maxVal = b.slots[0], b.slots[0]
	for _, v := range b.slots[1:n] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal, true
}
