package worlddb

import "github.com/prometheus/client_golang/prometheus"

// Keys for worlddb metrics.
const (
	QueuedCommandsTotalKey  = "worldstore_queued_commands_total"
	AppliedCommandsTotalKey = "worldstore_applied_commands_total"
	FailedWritesTotalKey    = "worldstore_failed_writes_total"
	CommitsTotalKey         = "worldstore_commits_total"
	QueueDepthKey           = "worldstore_queue_depth"
	QueueCapacityKey        = "worldstore_queue_capacity"
	ReadFailuresTotalKey    = "worldstore_read_failures_total"
)

var (
	queuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: QueuedCommandsTotalKey,
		Help: "Cumulative number of commands queued, by kind.",
	}, []string{"kind"})
	appliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: AppliedCommandsTotalKey,
		Help: "Cumulative number of commands applied by the worker, by kind.",
	}, []string{"kind"})
	failedWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: FailedWritesTotalKey,
		Help: "Cumulative number of store writes that failed and were dropped, by kind.",
	}, []string{"kind"})
	commitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: CommitsTotalKey,
		Help: "Cumulative number of committed store transactions.",
	})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: QueueDepthKey,
		Help: "Commands waiting for the worker.",
	})
	queueCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: QueueCapacityKey,
		Help: "Allocated slots of the command ring.",
	})
	readFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ReadFailuresTotalKey,
		Help: "Cumulative number of immediate reads that failed, by statement.",
	}, []string{"stmt"})
)

// Collectors returns the worlddb collectors for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		queuedTotal,
		appliedTotal,
		failedWritesTotal,
		commitsTotal,
		queueDepth,
		queueCapacity,
		readFailuresTotal,
	}
}
