// Package viewer keeps the host-side history of gateway records.
package viewer

import (
	"sync"
	"time"

	"github.com/itohio/envlink/pkg/telemetry"
	"github.com/itohio/envlink/pkg/uart"
)

// MaxHistory is the default number of points kept per device.
const MaxHistory = 100

// Point is one received sample.
type Point struct {
	Timestamp time.Time // arrival time
	T, H, P   float64
	Seq       uint32
	From      string
}

// Value returns the value of a metric by name.
func (p Point) Value(metric string) float64 {
	switch metric {
	case telemetry.Temperature:
		return p.T
	case telemetry.Humidity:
		return p.H
	case telemetry.Pressure:
		return p.P
	}
	return 0
}

// Boot is a gateway boot announcement.
type Boot struct {
	Timestamp time.Time
	Channel   int
	MAC       string
}

// Store keeps a bounded FIFO of points per device, ordered oldest first.
// Devices are listed in the order they were first seen.
type Store struct {
	maxHistory int

	mu       sync.RWMutex
	devices  map[string][]Point
	order    []string
	lastBoot *Boot
	shutdown bool

	callbacks     []func(device string, points []Point)
	bootCallbacks []func(Boot)
	cbMu          sync.RWMutex
}

// New creates a store keeping at most maxHistory points per device.
func New(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = MaxHistory
	}
	return &Store{
		maxHistory: maxHistory,
		devices:    make(map[string][]Point),
	}
}

// Process consumes messages until in is closed. No callbacks are invoked
// after that.
func (s *Store) Process(in <-chan uart.Message) {
	for m := range in {
		s.Add(m)
	}
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
}

// Add stores one message and notifies the callbacks.
func (s *Store) Add(m uart.Message) {
	switch m.Type {
	case telemetry.RecordSample:
		s.addSample(m)
	case telemetry.RecordBoot:
		s.addBoot(m)
	}
}

func (s *Store) addSample(m uart.Message) {
	p := Point{
		Timestamp: m.Timestamp,
		T:         m.T,
		H:         m.H,
		P:         m.P,
		Seq:       m.Seq,
		From:      m.From,
	}

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	points, ok := s.devices[m.ID]
	if !ok {
		s.order = append(s.order, m.ID)
	}
	points = append(points, p)
	if len(points) > s.maxHistory {
		points = points[len(points)-s.maxHistory:]
	}
	s.devices[m.ID] = points

	pointsCopy := make([]Point, len(points))
	copy(pointsCopy, points)
	s.mu.Unlock()

	s.cbMu.RLock()
	callbacks := make([]func(string, []Point), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(m.ID, pointsCopy)
		}
	}
}

func (s *Store) addBoot(m uart.Message) {
	b := Boot{Timestamp: m.Timestamp, Channel: m.Channel, MAC: m.MAC}

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.lastBoot = &b
	s.mu.Unlock()

	s.cbMu.RLock()
	callbacks := make([]func(Boot), len(s.bootCallbacks))
	copy(callbacks, s.bootCallbacks)
	s.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(b)
		}
	}
}

// Devices returns the device ids in first-seen order.
func (s *Store) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// Points returns a copy of the history of a device.
func (s *Store) Points(device string) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.devices[device]
	result := make([]Point, len(points))
	copy(result, points)
	return result
}

// LastBoot returns the most recent gateway boot record.
func (s *Store) LastBoot() (Boot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastBoot == nil {
		return Boot{}, false
	}
	return *s.lastBoot, true
}

// OnUpdate registers a callback invoked with the full history of a device
// after each of its samples. The callback should return quickly.
func (s *Store) OnUpdate(callback func(device string, points []Point)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// OnBoot registers a callback invoked for each gateway boot record.
func (s *Store) OnBoot(callback func(Boot)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.bootCallbacks = append(s.bootCallbacks, callback)
}
