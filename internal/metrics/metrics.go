// README: Prometheus instrumentation for the matching engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Matching holds the collectors the engine reports into. A nil *Matching is
// valid and records nothing, so tests and tools can skip instrumentation.
type Matching struct {
	candidates prometheus.Histogram
	latency    prometheus.Histogram
	scores     prometheus.Histogram
	noMatch    prometheus.Counter
	evalErrors prometheus.Counter
}

func NewMatching(reg prometheus.Registerer) *Matching {
	m := &Matching{
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taskhive",
			Subsystem: "matching",
			Name:      "candidates_per_request",
			Help:      "Eligible candidates returned by the filter stage per request.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taskhive",
			Subsystem: "matching",
			Name:      "request_duration_seconds",
			Help:      "End-to-end duration of a matching request.",
			Buckets:   prometheus.DefBuckets,
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taskhive",
			Subsystem: "matching",
			Name:      "candidate_score",
			Help:      "Distribution of composite suitability scores.",
			Buckets:   []float64{0, 25, 50, 75, 100, 125, 150, 175, 200, 250},
		}),
		noMatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskhive",
			Subsystem: "matching",
			Name:      "no_match_total",
			Help:      "Requests that found zero eligible doers.",
		}),
		evalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskhive",
			Subsystem: "matching",
			Name:      "candidate_eval_errors_total",
			Help:      "Per-candidate evaluations skipped because of an error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.candidates, m.latency, m.scores, m.noMatch, m.evalErrors)
	}
	return m
}

func (m *Matching) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}

func (m *Matching) ObserveLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.latency.Observe(d.Seconds())
}

func (m *Matching) ObserveScore(score float64) {
	if m == nil {
		return
	}
	m.scores.Observe(score)
}

func (m *Matching) IncNoMatch() {
	if m == nil {
		return
	}
	m.noMatch.Inc()
}

func (m *Matching) IncEvalError() {
	if m == nil {
		return
	}
	m.evalErrors.Inc()
}
