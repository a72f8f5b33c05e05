package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	requestErrorsTotal    *prometheus.CounterVec
	freezeRunsTotal       *prometheus.CounterVec
	freezeTasksTotal      *prometheus.CounterVec
	taskViewCacheTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursework_requests_total",
			Help: "Total number of coursework API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursework_latency_seconds",
			Help:    "Latency distribution for coursework API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursework_errors_total",
			Help: "Total number of error responses returned by coursework endpoints.",
		}, []string{"method", "route", "status"})

		freezeRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freeze_runs_total",
			Help: "Total number of grading freeze runs started, by scope.",
		}, []string{"scope"})

		freezeTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freeze_tasks_total",
			Help: "Per-task freeze outcomes across all runs.",
		}, []string{"outcome"})

		taskViewCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_view_cache_total",
			Help: "Task view cache lookups, by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			requestsTotal,
			requestLatencySeconds,
			requestErrorsTotal,
			freezeRunsTotal,
			freezeTasksTotal,
			taskViewCacheTotal,
		)
	})
}

// Requests exposes the counter for served requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the latency histogram for requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// RequestErrors exposes the counter for error responses.
func RequestErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return requestErrorsTotal
}

// FreezeRuns exposes the counter for started freeze runs.
func FreezeRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return freezeRunsTotal
}

// FreezeTasks exposes the counter for per-task freeze outcomes.
func FreezeTasks() *prometheus.CounterVec {
	RegisterMetrics()
	return freezeTasksTotal
}

// TaskViewCache exposes the counter for task view cache lookups.
func TaskViewCache() *prometheus.CounterVec {
	RegisterMetrics()
	return taskViewCacheTotal
}
