// Package metrics exposes the engine's Prometheus instrumentation. All
// collectors register on the default registry and are served by the
// operational HTTP listener's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChecksTotal counts completed compliance checks by final status
	ChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Name:      "checks_total",
		Help:      "Completed compliance checks by final status.",
	}, []string{"status"})

	// CheckDuration observes end-to-end decision latency
	CheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "compliance",
		Name:      "check_duration_seconds",
		Help:      "End-to-end compliance check latency.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	// StageBlocks counts pipeline stages that blocked a transaction
	StageBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Name:      "stage_blocks_total",
		Help:      "Transactions blocked, by pipeline stage.",
	}, []string{"stage"})

	// SanctionsMatches counts screening matches by list source and match type
	SanctionsMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Subsystem: "sanctions",
		Name:      "matches_total",
		Help:      "Sanctions screening matches by list source and match type.",
	}, []string{"list_source", "match_type"})

	// DatasetReloads counts sanctions dataset reload attempts by outcome
	DatasetReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Subsystem: "sanctions",
		Name:      "dataset_reloads_total",
		Help:      "Sanctions dataset reload attempts by outcome.",
	}, []string{"outcome"})

	// RuleTriggers counts custom rule triggers by action taken
	RuleTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Subsystem: "rules",
		Name:      "triggers_total",
		Help:      "Custom rule triggers by configured action.",
	}, []string{"action"})

	// RuleCache counts rule cache lookups by outcome
	RuleCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Subsystem: "rules",
		Name:      "cache_lookups_total",
		Help:      "Rule cache lookups by outcome.",
	}, []string{"outcome"})

	// ManualReviews counts manual review resolutions by decision
	ManualReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Subsystem: "review",
		Name:      "resolutions_total",
		Help:      "Manual review resolutions by decision.",
	}, []string{"decision"})
)
