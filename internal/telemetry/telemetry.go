// Package telemetry exposes board activity as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements the session and recognition observers.
type Metrics struct {
	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	items       prometheus.Counter
	annotations prometheus.Counter
	variables   prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mathboard_submissions_total",
				Help: "Drawings submitted, by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mathboard_recognition_duration_seconds",
				Help:    "Duration of recognition backend calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"outcome"},
		),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mathboard_recognized_items_total",
			Help: "Items returned by the recognition backend",
		}),
		annotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mathboard_annotations_created_total",
			Help: "Annotations placed on the board",
		}),
		variables: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mathboard_variables",
			Help: "Variables currently bound",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.submissions, m.duration, m.items, m.annotations, m.variables)
	}
	return m
}

// ObserveRecognition records one backend call.
func (m *Metrics) ObserveRecognition(outcome string, d time.Duration, items int) {
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
	m.items.Add(float64(items))
}

// Submission counts one submit attempt.
func (m *Metrics) Submission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// AnnotationsShown counts displayed annotations.
func (m *Metrics) AnnotationsShown(n int) {
	m.annotations.Add(float64(n))
}

// Variables sets the bound-variable gauge.
func (m *Metrics) Variables(n int) {
	m.variables.Set(float64(n))
}
