package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CitizensProcessed prometheus.Counter
	Outcomes          *prometheus.CounterVec
	SoftFailures      prometheus.Counter
	ProcessDuration   prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		CitizensProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "joblog_audit_citizens_processed_total",
			Help: "Total number of citizens pulled from the workqueue",
		}),
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "joblog_audit_outcomes_total",
			Help: "Terminal audit outcomes by type",
		}, []string{"outcome"}),
		SoftFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "joblog_audit_soft_failures_total",
			Help: "Work items failed for manual review",
		}),
		ProcessDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "joblog_audit_citizen_duration_seconds",
			Help:    "Duration of one citizen's full audit pass",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	m.Outcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCitizen(start time.Time) {
	m.CitizensProcessed.Inc()
	m.ProcessDuration.Observe(time.Since(start).Seconds())
}
