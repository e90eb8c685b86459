package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransformDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modlink_transform_seconds",
		Help:    "Time spent parsing, resolving and rewriting one source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	EmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modlink_emit_seconds",
		Help:    "Time spent compiling TypeScript and JSX output.",
		Buckets: prometheus.DefBuckets,
	})

	TransformFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modlink_transform_failures_total",
		Help: "Files that failed to transform, by error code.",
	}, []string{"code"})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modlink_resolutions_total",
		Help: "Module specifiers seen by the transformer, by outcome.",
	}, []string{"kind"})

	RequiresPerFile = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modlink_requires_per_file",
		Help:    "Number of collected requires per transformed file.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	BuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modlink_build_seconds",
		Help:    "Wall time of full and incremental builds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modlink_graph_nodes_total",
		Help: "Total number of modules in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modlink_graph_edges_total",
		Help: "Total number of require edges in the dependency graph.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modlink_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ProbeCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modlink_probe_cache_entries",
		Help: "Entries held by the file-system probe cache.",
	})
)
