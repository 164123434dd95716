// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"schooldocs/internal/model"
)

// Dispatch tracks documents sent to the signature webhook. A nil *Dispatch
// records nothing.
type Dispatch struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewDispatch creates the dispatch collectors and registers them on reg.
func NewDispatch(reg prometheus.Registerer) (*Dispatch, error) {
	m := &Dispatch{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_dispatches_total",
				Help: "Documents sent for electronic signature, by template and outcome.",
			},
			[]string{"template", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "document_dispatch_duration_seconds",
				Help:    "Time spent rendering and sending one document.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"template"},
		),
	}

	for _, c := range []prometheus.Collector{m.total, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one dispatch attempt.
func (m *Dispatch) Observe(template string, status model.DispatchStatus, took time.Duration) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(template, string(status)).Inc()
	m.duration.WithLabelValues(template).Observe(took.Seconds())
}
