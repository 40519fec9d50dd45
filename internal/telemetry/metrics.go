package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка. Экспортируются на /metrics обоих бинарей.
var (
	// TasksClaimed — сколько задач захвачено воркерами.
	TasksClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boostgram_tasks_claimed_total",
		Help: "Number of tasks claimed by workers.",
	})

	// TasksFinalized — финализации по исходу:
	// done, failed, requeued, pending.
	TasksFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boostgram_tasks_finalized_total",
		Help: "Number of task finalizations by outcome.",
	}, []string{"outcome"})

	// TasksGenerated — задачи, созданные генератором, по источнику.
	TasksGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boostgram_tasks_generated_total",
		Help: "Number of tasks created by the generator by source.",
	}, []string{"source"})

	// ProviderPolls — poll-запросы статусов заказов по результату.
	ProviderPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boostgram_provider_polls_total",
		Help: "Number of provider status polls by result.",
	}, []string{"result"})

	// executionDuration — длительность выполнения действий.
	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boostgram_action_duration_seconds",
		Help:    "Action execution duration by action kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
)

// ObserveExecution фиксирует длительность выполнения действия.
func ObserveExecution(action string, d time.Duration) {
	executionDuration.WithLabelValues(action).Observe(d.Seconds())
}
