// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iq_cache_requests_total",
			Help: "Cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iq_cache_errors_total",
			Help: "Cache store failures by operation",
		},
		[]string{"operation"},
	)

	PromptsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iq_prompts_stored_total",
			Help: "Generated prompt records written, by topic",
		},
		[]string{"topic"},
	)

	ResponsesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iq_responses_total",
			Help: "Responses served, by topic and source (cache, generated)",
		},
		[]string{"topic", "source"},
	)

	ResponseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iq_response_failures_total",
			Help: "Failed response generations by error code",
		},
		[]string{"error_code"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iq_generation_duration_seconds",
			Help:    "Duration of generation service calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"model"},
	)

	EnrichmentCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iq_enrichment_calls_total",
			Help: "Enrichment operation calls by operation and status",
		},
		[]string{"operation", "status"},
	)
)
