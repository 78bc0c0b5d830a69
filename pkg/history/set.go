package history

// Set maps metric names to buffers of one shared capacity.
// Buffers are created on first use and live for the lifetime of the set.
type Set struct {
	capacity int
	names    []string
	buffers  map[string]*Buffer
}

// NewSet creates a set whose buffers have the given capacity. Metrics listed
// in names are created up front so iteration order follows the caller.
func NewSet(capacity int, names ...string) *Set {
	s := &Set{
		capacity: capacity,
		buffers:  make(map[string]*Buffer),
	}
	for _, name := range names {
		s.Get(name)
	}
	return s
}

// Get returns the buffer for metric, creating it if needed.
func (s *Set) Get(metric string) *Buffer {
	if b, ok := s.buffers[metric]; ok {
		return b
	}
	b := New(s.capacity)
	s.buffers[metric] = b
	s.names = append(s.names, metric)
	return b
}

// Push appends v to the metric's buffer.
func (s *Set) Push(metric string, v float32) {
	s.Get(metric).Push(v)
}

// Names returns metric names in creation order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
