// Package metrics exposes coordinator counters and gauges to Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Rooms                  prometheus.Gauge
	Members                *prometheus.GaugeVec
	Rejections             *prometheus.CounterVec
	Assignments            prometheus.Counter
	ReassignedParticipants prometheus.Counter
	ConnectAttempts        *prometheus.CounterVec
	StreamRestarts         *prometheus.CounterVec
	Paragraphs             prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moderator_rooms",
			Help: "Rooms currently held in memory.",
		}),
		Members: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "moderator_members",
			Help: "Ready room members by role.",
		}, []string{"role"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderator_rejections_total",
			Help: "Handshakes rejected, by reason.",
		}, []string{"reason"}),
		Assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moderator_assignments_total",
			Help: "Assignment recomputations.",
		}),
		ReassignedParticipants: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moderator_reassigned_participants_total",
			Help: "Participants told to connect to a new supervisor.",
		}),
		ConnectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderator_connect_attempts_total",
			Help: "Participant connection attempts by gate outcome.",
		}, []string{"outcome"}),
		StreamRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderator_stream_restarts_total",
			Help: "Upstream recognition stream rotations by cause.",
		}, []string{"cause"}),
		Paragraphs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moderator_paragraphs_total",
			Help: "Transcript paragraphs closed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Rooms, m.Members, m.Rejections, m.Assignments,
			m.ReassignedParticipants, m.ConnectAttempts, m.StreamRestarts, m.Paragraphs,
		)
	}
	return m
}

func (m *Metrics) RoomAdded() {
	if m != nil {
		m.Rooms.Inc()
	}
}

func (m *Metrics) RoomRemoved() {
	if m != nil {
		m.Rooms.Dec()
	}
}

func (m *Metrics) MemberJoined(role string) {
	if m != nil {
		m.Members.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) MemberLeft(role string) {
	if m != nil {
		m.Members.WithLabelValues(role).Dec()
	}
}

func (m *Metrics) Rejected(reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) Assigned(reassigned int) {
	if m != nil {
		m.Assignments.Inc()
		m.ReassignedParticipants.Add(float64(reassigned))
	}
}

func (m *Metrics) ConnectAttempt(outcome string) {
	if m != nil {
		m.ConnectAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) StreamRestarted(cause string) {
	if m != nil {
		m.StreamRestarts.WithLabelValues(cause).Inc()
	}
}

func (m *Metrics) ParagraphClosed() {
	if m != nil {
		m.Paragraphs.Inc()
	}
}
