// Package metrics exposes extraction metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WessleyAI/threadsnap/engine/thread"
)

// Recorder implements thread.Observer on Prometheus collectors.
type Recorder struct {
	extractions *prometheus.CounterVec
	comments    prometheus.Counter
	duration    prometheus.Histogram
}

var _ thread.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadsnap_extractions_total",
				Help: "Total number of thread extractions by outcome",
			},
			[]string{"outcome"},
		),
		comments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "threadsnap_comments_total",
				Help: "Total number of comments exported",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "threadsnap_extraction_duration_seconds",
				Help:    "Thread extraction duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(r.extractions, r.comments, r.duration)
	return r
}

// ObserveExtraction records one Run.
func (r *Recorder) ObserveExtraction(outcome string, comments int, took time.Duration) {
	r.extractions.WithLabelValues(outcome).Inc()
	r.comments.Add(float64(comments))
	r.duration.Observe(took.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
