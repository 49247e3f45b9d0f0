package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsedesk_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulsedesk_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulsedesk_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Upstream API metrics
	UpstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsedesk_upstream_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"source", "status"}, // source: coingecko|rss|ollama
	)

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulsedesk_upstream_latency_seconds",
			Help:    "Upstream API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	// Analysis metrics
	AnalysisRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsedesk_analysis_requests_total",
			Help: "Total number of analysis requests by outcome",
		},
		[]string{"outcome"}, // outcome: success|error|dropped|timeout
	)

	AnalysisLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulsedesk_analysis_latency_seconds",
			Help:    "End-to-end analysis latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(UpstreamCalls)
	prometheus.MustRegister(UpstreamLatency)

	prometheus.MustRegister(AnalysisRequests)
	prometheus.MustRegister(AnalysisLatency)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordUpstreamCall records one call to an external API
func RecordUpstreamCall(source string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	UpstreamCalls.WithLabelValues(source, status).Inc()
	UpstreamLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordAnalysis records an analysis request outcome
func RecordAnalysis(outcome string, latency time.Duration) {
	AnalysisRequests.WithLabelValues(outcome).Inc()
	if latency > 0 {
		AnalysisLatency.Observe(latency.Seconds())
	}
}
