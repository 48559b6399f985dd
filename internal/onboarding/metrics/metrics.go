package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the onboarding module.
type Metrics struct {
	StepsAdvanced       *prometheus.CounterVec
	OnboardingCompleted prometheus.Counter
	Retreats            prometheus.Counter
	TransitionsRejected prometheus.Counter
	OperationDuration   *prometheus.HistogramVec
}

// New registers the onboarding metrics with reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		StepsAdvanced: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cockpit_onboarding_steps_advanced_total",
			Help: "Total number of onboarding steps submitted, by step",
		}, []string{"step"}),
		OnboardingCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "cockpit_onboarding_completed_total",
			Help: "Total number of onboardings that reached the end of the wizard",
		}),
		Retreats: f.NewCounter(prometheus.CounterOpts{
			Name: "cockpit_onboarding_retreats_total",
			Help: "Total number of step retreats",
		}),
		TransitionsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "cockpit_onboarding_transitions_rejected_total",
			Help: "Total number of advances rejected as invalid transitions",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cockpit_onboarding_operation_duration_seconds",
			Help:    "Duration of onboarding operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementStepAdvanced records a successful advance past step.
func (m *Metrics) IncrementStepAdvanced(step string) {
	m.StepsAdvanced.WithLabelValues(step).Inc()
}

func (m *Metrics) IncrementCompleted() {
	m.OnboardingCompleted.Inc()
}

func (m *Metrics) IncrementRetreat() {
	m.Retreats.Inc()
}

func (m *Metrics) IncrementRejected() {
	m.TransitionsRejected.Inc()
}

// ObserveOperation records the duration of operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
