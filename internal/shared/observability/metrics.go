package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scriptlint_parsing_seconds",
		Help:    "Time spent parsing a script fragment.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scriptlint_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptlint_ast_cache_hits_total",
		Help: "Total number of AST cache lookups served without parsing.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptlint_ast_cache_misses_total",
		Help: "Total number of AST cache lookups that required a parse.",
	})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptlint_ast_cache_evictions_total",
		Help: "Total number of parse results evicted from a bounded AST cache.",
	})

	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scriptlint_ast_cache_entries",
		Help: "Current number of parse results held by the AST cache.",
	})

	FragmentsAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptlint_fragments_analyzed_total",
		Help: "Total number of script fragments run through the rule engine.",
	})

	ParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptlint_parse_failures_total",
		Help: "Total number of fragments that produced at least one parse error.",
	})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptlint_findings_total",
		Help: "Total number of findings emitted, by rule and severity.",
	}, []string{"rule", "severity"})

	DetectorFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptlint_detector_failures_total",
		Help: "Total number of detector invocations that failed and were skipped.",
	}, []string{"rule"})

	ExtractErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptlint_extract_errors_total",
		Help: "Total number of host files that could not be read or decoded.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptlint_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HistoryWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptlint_history_writes_total",
		Help: "Total number of run summaries written to the history store, by outcome.",
	}, []string{"outcome"})
)
