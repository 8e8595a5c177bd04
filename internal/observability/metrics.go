// Package observability holds the prometheus collectors shared by the
// metrics, retrieval and ingest paths.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recomputeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "ability",
		Name:      "recomputes_total",
		Help:      "Ability score recomputations grouped by outcome.",
	}, []string{"outcome"})

	healthDecayCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "ability",
		Name:      "health_decays_total",
		Help:      "Recomputations that decayed health because the window had no entries.",
	})

	indexUpsertCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "index",
		Name:      "upserts_total",
		Help:      "Semantic index upserts grouped by outcome (ok, skipped, error).",
	}, []string{"outcome"})

	indexQueryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "index",
		Name:      "queries_total",
		Help:      "Semantic index queries grouped by outcome (ok, degraded).",
	}, []string{"outcome"})

	ingestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "ingest",
		Name:      "messages_total",
		Help:      "Ingested activity messages grouped by event type and outcome.",
	}, []string{"event_type", "outcome"})
)

func init() {
	prometheus.MustRegister(recomputeCounter, healthDecayCounter, indexUpsertCounter, indexQueryCounter, ingestCounter)
}

// RecordRecompute counts a recompute; err selects the outcome label.
func RecordRecompute(err error) {
	if err != nil {
		recomputeCounter.WithLabelValues("error").Inc()
		return
	}
	recomputeCounter.WithLabelValues("ok").Inc()
}

// RecordHealthDecay counts a decayed health score.
func RecordHealthDecay() {
	healthDecayCounter.Inc()
}

// RecordUpsert counts an index upsert with the given outcome.
func RecordUpsert(outcome string) {
	indexUpsertCounter.WithLabelValues(outcome).Inc()
}

// RecordQuery counts an index query; degraded marks a swallowed failure.
func RecordQuery(degraded bool) {
	if degraded {
		indexQueryCounter.WithLabelValues("degraded").Inc()
		return
	}
	indexQueryCounter.WithLabelValues("ok").Inc()
}

// RecordIngest counts an ingested message.
func RecordIngest(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	ingestCounter.WithLabelValues(eventType, outcome).Inc()
}
