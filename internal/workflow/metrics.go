package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes workflow counters and timings.
type Metrics struct {
	SessionsProcessed  *prometheus.CounterVec
	StageFailures      *prometheus.CounterVec
	RecordsIngested    prometheus.Counter
	RecordsExcluded    prometheus.Counter
	RecordsWhitelisted prometheus.Counter
	RuleMatches        prometheus.Counter
	ProcessingSeconds  prometheus.Histogram
}

// NewMetrics registers the workflow metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "egresswatch",
			Subsystem: "workflow",
			Name:      "sessions_processed_total",
			Help:      "Sessions finished, labeled by terminal status.",
		}, []string{"status"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "egresswatch",
			Subsystem: "workflow",
			Name:      "stage_failures_total",
			Help:      "Sub-stage failures recorded as session warnings.",
		}, []string{"stage"}),
		RecordsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "egresswatch",
			Subsystem: "workflow",
			Name:      "records_ingested_total",
			Help:      "Records accepted into sessions.",
		}),
		RecordsExcluded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "egresswatch",
			Subsystem: "workflow",
			Name:      "records_excluded_total",
			Help:      "Records removed from analysis by exclusion rules.",
		}),
		RecordsWhitelisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "egresswatch",
			Subsystem: "workflow",
			Name:      "records_whitelisted_total",
			Help:      "Records skipped by whitelist matching.",
		}),
		RuleMatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "egresswatch",
			Subsystem: "workflow",
			Name:      "rule_matches_total",
			Help:      "Security rule matches across all records.",
		}),
		ProcessingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "egresswatch",
			Subsystem: "workflow",
			Name:      "session_processing_seconds",
			Help:      "Wall time spent processing one session.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
