package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the givve card sub-flow.
type Metrics struct {
	FlowsStarted        prometheus.Counter
	Submissions         prometheus.Counter
	SubmissionsRejected prometheus.Counter
	MilestonesRecorded  *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
}

// New registers the givve metrics with reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		FlowsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "cockpit_givve_flows_started_total",
			Help: "Total number of givve card flows started",
		}),
		Submissions: f.NewCounter(prometheus.CounterOpts{
			Name: "cockpit_givve_submissions_total",
			Help: "Total number of givve document submissions",
		}),
		SubmissionsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "cockpit_givve_submissions_rejected_total",
			Help: "Total number of repeated givve submissions that were rejected",
		}),
		MilestonesRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cockpit_givve_milestones_recorded_total",
			Help: "Total number of milestones reached, by milestone",
		}, []string{"milestone"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cockpit_givve_operation_duration_seconds",
			Help:    "Duration of givve operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementStarted() {
	m.FlowsStarted.Inc()
}

func (m *Metrics) IncrementSubmitted() {
	m.Submissions.Inc()
}

func (m *Metrics) IncrementSubmissionRejected() {
	m.SubmissionsRejected.Inc()
}

// IncrementMilestone records that milestone flipped to reached.
func (m *Metrics) IncrementMilestone(milestone string) {
	m.MilestonesRecorded.WithLabelValues(milestone).Inc()
}

func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
