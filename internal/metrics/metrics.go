// Package metrics exposes Prometheus collectors on a service-owned registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
)

const namespace = "veritrustx"

// Narrative outcomes counted by NarrativeOutcome.
const (
	NarrativeAttached = "attached"
	NarrativeFailed   = "failed"
	NarrativeDropped  = "dropped"
)

// Recorder owns every collector the service exports.
type Recorder struct {
	registry *prometheus.Registry

	assessments  *prometheus.CounterVec
	signalFlags  *prometheus.CounterVec
	scores       prometheus.Histogram
	narratives   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New builds a Recorder with Go runtime and process collectors included.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "proxy_guard", Name: "assessments_total", Help: "Scored samples by verdict."},
			[]string{"verdict"},
		),
		signalFlags: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "proxy_guard", Name: "signal_flags_total", Help: "Raised risk signals by signal value."},
			[]string{"signal"},
		),
		scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{Namespace: namespace, Subsystem: "proxy_guard", Name: "risk_score", Help: "Distribution of risk scores.",
				Buckets: []float64{0, 20, 35, 45, 55, 65, 80, 100}},
		),
		narratives: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "forensic", Name: "narratives_total", Help: "AI narrative jobs by outcome."},
			[]string{"outcome"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "http", Name: "requests_total", Help: "HTTP requests by route, method and status."},
			[]string{"route", "method", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds", Help: "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets},
			[]string{"route"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.assessments,
		r.signalFlags,
		r.scores,
		r.narratives,
		r.httpRequests,
		r.httpLatency,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveResult counts one scored sample and every flag it raised.
func (r *Recorder) ObserveResult(res *proxyguard.Result) {
	if r == nil || res == nil {
		return
	}
	r.assessments.WithLabelValues(string(res.Verdict)).Inc()
	r.scores.Observe(float64(res.Score))

	if res.Signals.Latency == proxyguard.LatencyHighRisk {
		r.signalFlags.WithLabelValues(string(res.Signals.Latency)).Inc()
	}
	if res.Signals.Cadence == proxyguard.CadenceMechanical {
		r.signalFlags.WithLabelValues(string(res.Signals.Cadence)).Inc()
	}
	if res.Signals.Gaze == proxyguard.GazeShadowCheat {
		r.signalFlags.WithLabelValues(string(res.Signals.Gaze)).Inc()
	}
}

// NarrativeOutcome counts a finished, failed or dropped narrative job.
func (r *Recorder) NarrativeOutcome(outcome string) {
	if r == nil {
		return
	}
	r.narratives.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (r *Recorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}
