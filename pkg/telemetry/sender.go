package telemetry

import (
	"fmt"
	"sync/atomic"

	"github.com/itohio/envlink/pkg/radio"
)

// DefaultQueueSize is the capacity of the event queues between radio
// callbacks and the tick loop.
const DefaultQueueSize = 64

// SendStats are cumulative send counters. They are never reset.
type SendStats struct {
	Success  uint32
	Failure  uint32
	Overrun  uint32 // completions dropped because the queue was full
	Sequence uint32 // next sequence number
}

// Sender is the transmitting end of the link. Each sample is sent once;
// failed sends are counted, never retried.
//
// Send, Next, Drain and Stats must be called from one goroutine (the tick
// loop). OnSendComplete may be called from any goroutine.
type Sender struct {
	radio    radio.Radio
	deviceID string
	metrics  *LinkMetrics

	peer      radio.MAC
	channel   int
	peerReady bool
	seq       uint32

	completions chan bool
	success     uint32
	failure     uint32
	overrun     atomic.Uint32
}

// NewSender creates a sender for deviceID and registers its completion
// callback with r. metrics may be nil.
func NewSender(r radio.Radio, deviceID string, queueSize int, metrics *LinkMetrics) *Sender {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	s := &Sender{
		radio:       r,
		deviceID:    deviceID,
		metrics:     metrics,
		completions: make(chan bool, queueSize),
	}
	r.OnSendComplete(s.OnSendComplete)
	return s
}

// ConfigurePeer registers the gateway address, dropping any stale
// registration first so repeated calls leave exactly one entry.
// On failure the sender stays usable but every send fails until a later
// call succeeds.
func (s *Sender) ConfigurePeer(addr radio.MAC, channel int) error {
	s.peer = addr
	s.channel = channel
	s.peerReady = false

	if s.radio.HasPeer(addr) {
		if err := s.radio.RemovePeer(addr); err != nil {
			return fmt.Errorf("failed to remove stale peer %s: %w", addr, err)
		}
	}
	if err := s.radio.AddPeer(addr, channel); err != nil {
		return fmt.Errorf("failed to add peer %s on channel %d: %w", addr, channel, err)
	}

	s.peerReady = true
	return nil
}

// PeerReady reports whether the last ConfigurePeer succeeded.
func (s *Sender) PeerReady() bool {
	return s.peerReady
}

// Peer returns the configured gateway address and channel.
func (s *Sender) Peer() (radio.MAC, int) {
	return s.peer, s.channel
}

// DeviceID returns the id stamped on outgoing samples.
func (s *Sender) DeviceID() string {
	return s.deviceID
}

// Next builds a sample with the next sequence number.
func (s *Sender) Next(temperature, humidity, pressure float32) Sample {
	sample := Sample{
		DeviceID:    s.deviceID,
		Temperature: temperature,
		Humidity:    humidity,
		Pressure:    pressure,
		Sequence:    s.seq,
	}
	s.seq++
	return sample
}

// Send encodes sample and hands it to the radio. The error reports the
// hand-off only; the outcome arrives later through OnSendComplete.
func (s *Sender) Send(sample Sample) error {
	frame := Encode(sample)
	if err := s.radio.Send(s.peer, frame.Bytes()); err != nil {
		return fmt.Errorf("send seq %d: %w", sample.Sequence, err)
	}
	return nil
}

// OnSendComplete is the radio completion callback. It never blocks.
func (s *Sender) OnSendComplete(_ radio.MAC, ok bool) {
	select {
	case s.completions <- ok:
	default:
		s.overrun.Add(1)
		s.metrics.overrun()
	}
}

// Drain applies queued completions to the counters and returns how many
// were processed.
func (s *Sender) Drain() int {
	n := 0
	for {
		select {
		case ok := <-s.completions:
			if ok {
				s.success++
			} else {
				s.failure++
			}
			s.metrics.sent(ok)
			n++
		default:
			return n
		}
	}
}

// Stats returns the cumulative counters.
func (s *Sender) Stats() SendStats {
	return SendStats{
		Success:  s.success,
		Failure:  s.failure,
		Overrun:  s.overrun.Load(),
		Sequence: s.seq,
	}
}
