package telemetry

import (
	"log"
	"sync/atomic"

	"github.com/itohio/envlink/pkg/history"
	"github.com/itohio/envlink/pkg/radio"
)

// GatewayStats are cumulative receive counters.
type GatewayStats struct {
	Received uint32
	Rejected uint32 // frames with the wrong size
	Overrun  uint32 // frames dropped because the queue was full
}

type inbound struct {
	from  radio.MAC
	frame Frame
}

// Gateway is the receiving end of the link. Frames are queued by the radio
// callback and processed by Drain on the tick loop, which is the only writer
// of the history and the counters.
type Gateway struct {
	history *history.Set
	sink    Sink
	metrics *LinkMetrics

	frames   chan inbound
	received uint32
	rejected atomic.Uint32
	overrun  atomic.Uint32

	last     Sample
	lastFrom radio.MAC
	hasLast  bool
}

// NewGateway creates a gateway that appends to h and writes to sink.
// When r is not nil the gateway registers itself as its receive callback.
// sink and metrics may be nil.
func NewGateway(r radio.Radio, h *history.Set, sink Sink, queueSize int, metrics *LinkMetrics) *Gateway {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	g := &Gateway{
		history: h,
		sink:    sink,
		metrics: metrics,
		frames:  make(chan inbound, queueSize),
	}
	if r != nil {
		r.OnReceive(g.OnFrameReceived)
	}
	return g
}

// Boot writes the gateway boot record.
func (g *Gateway) Boot(channel int, mac radio.MAC) error {
	if g.sink == nil {
		return nil
	}
	return g.sink.WriteBoot(channel, mac)
}

// OnFrameReceived is the radio receive callback. Frames of the wrong size
// are dropped and counted. It never blocks.
func (g *Gateway) OnFrameReceived(from radio.MAC, raw []byte) {
	if len(raw) != FrameSize {
		g.rejected.Add(1)
		g.metrics.rejected()
		return
	}

	in := inbound{from: from}
	copy(in.frame[:], raw)

	select {
	case g.frames <- in:
	default:
		g.overrun.Add(1)
		g.metrics.overrun()
	}
}

// Drain processes queued frames in arrival order and returns how many were
// handled.
func (g *Gateway) Drain() int {
	n := 0
	for {
		select {
		case in := <-g.frames:
			g.handle(in)
			n++
		default:
			return n
		}
	}
}

func (g *Gateway) handle(in inbound) {
	s, err := Decode(in.frame[:])
	if err != nil {
		return
	}

	for _, m := range Metrics {
		v, _ := s.Value(m)
		g.history.Push(m, v)
	}

	if g.sink != nil {
		if err := g.sink.WriteSample(s, in.from); err != nil {
			log.Printf("[gateway] %v", err)
		}
	}

	g.received++
	g.metrics.received(s.DeviceID)
	g.last = s
	g.lastFrom = in.from
	g.hasLast = true
}

// Stats returns the cumulative counters.
func (g *Gateway) Stats() GatewayStats {
	return GatewayStats{
		Received: g.received,
		Rejected: g.rejected.Load(),
		Overrun:  g.overrun.Load(),
	}
}

// Last returns the most recently received sample and its sender.
func (g *Gateway) Last() (Sample, radio.MAC, bool) {
	return g.last, g.lastFrom, g.hasLast
}

// History returns the per-metric history the gateway appends to.
func (g *Gateway) History() *history.Set {
	return g.history
}
