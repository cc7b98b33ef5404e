package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Metrics holds the companion's custom Prometheus metrics. A nil *Metrics is
// valid and records nothing, which keeps tests and optional wiring simple.
type Metrics struct {
	MessagesClassified  *prometheus.CounterVec
	ResponsesSent       *prometheus.CounterVec
	FollowUpsCancelled  prometheus.Counter
	BadgesGranted       *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	ClassifyLatency     prometheus.Histogram
}

// NewMetrics registers the metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MessagesClassified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "farum_messages_classified_total",
			Help: "User messages classified, by category",
		}, []string{"category"}),
		ResponsesSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "farum_responses_sent_total",
			Help: "Bot responses emitted, by kind (greeting, primary, follow_up)",
		}, []string{"kind"}),
		FollowUpsCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "farum_follow_ups_cancelled_total",
			Help: "Scheduled follow-ups dropped because their session ended",
		}),
		BadgesGranted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "farum_badges_granted_total",
			Help: "Badges granted, by badge type",
		}, []string{"badge_type"}),
		PersistenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "farum_persistence_failures_total",
			Help: "Store operations that failed, by operation",
		}, []string{"op"}),
		ClassifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "farum_classify_duration_seconds",
			Help:    "Time spent classifying and generating a response",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
	}
}

func (m *Metrics) ObserveClassified(c domain.Category, seconds float64) {
	if m == nil {
		return
	}
	m.MessagesClassified.WithLabelValues(string(c)).Inc()
	m.ClassifyLatency.Observe(seconds)
}

func (m *Metrics) ResponseSent(kind string) {
	if m == nil {
		return
	}
	m.ResponsesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) FollowUpCancelled() {
	if m == nil {
		return
	}
	m.FollowUpsCancelled.Inc()
}

func (m *Metrics) BadgeGranted(t domain.BadgeType) {
	if m == nil {
		return
	}
	m.BadgesGranted.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) PersistenceFailed(op string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(op).Inc()
}
