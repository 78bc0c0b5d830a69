package telemetry

import "github.com/prometheus/client_golang/prometheus"

// LinkMetrics mirrors the link counters as prometheus collectors.
// A nil *LinkMetrics is valid and records nothing.
type LinkMetrics struct {
	SentOK   prometheus.Counter
	SentFail prometheus.Counter
	Received *prometheus.CounterVec
	Rejected prometheus.Counter
	Overrun  prometheus.Counter
}

// NewLinkMetrics creates the collectors and registers them with reg when it
// is not nil.
func NewLinkMetrics(reg prometheus.Registerer) *LinkMetrics {
	m := &LinkMetrics{
		SentOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "envlink_frames_sent_ok_total",
			Help: "Frames whose send completed successfully",
		}),
		SentFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "envlink_frames_sent_fail_total",
			Help: "Frames whose send failed",
		}),
		Received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envlink_frames_received_total",
			Help: "Frames accepted by the gateway",
		}, []string{"device"}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "envlink_frames_rejected_total",
			Help: "Inbound frames dropped for having the wrong size",
		}),
		Overrun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "envlink_events_overrun_total",
			Help: "Radio events dropped because the tick loop queue was full",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SentOK, m.SentFail, m.Received, m.Rejected, m.Overrun)
	}
	return m
}

func (m *LinkMetrics) sent(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.SentOK.Inc()
	} else {
		m.SentFail.Inc()
	}
}

func (m *LinkMetrics) received(device string) {
	if m == nil {
		return
	}
	m.Received.WithLabelValues(device).Inc()
}

func (m *LinkMetrics) rejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

func (m *LinkMetrics) overrun() {
	if m == nil {
		return
	}
	m.Overrun.Inc()
}
