package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Total number of training pipeline runs by outcome",
	}, []string{"status"})

	PipelineRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "Duration of full training pipeline runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictions_total",
		Help: "Total number of scoring requests by outcome",
	}, []string{"outcome"})

	PredictionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prediction_latency_seconds",
		Help:    "Latency of single-row scoring requests",
		Buckets: prometheus.DefBuckets,
	})

	ModelPromotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "model_promotions_total",
		Help: "Total number of models promoted to production",
	})

	ModelRollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "model_rollbacks_total",
		Help: "Total number of production rollbacks",
	})

	BaselineFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baseline_fallbacks_total",
		Help: "Total number of drift runs that fell back to the baseline rule",
	})

	DriftChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drift_checks_total",
		Help: "Total number of continued-evaluation runs by result",
	}, []string{"result"})

	DriftPSI = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drift_psi",
		Help: "Population stability index from the latest drift check",
	})

	DriftKL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drift_kl",
		Help: "KL divergence from the latest drift check",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
