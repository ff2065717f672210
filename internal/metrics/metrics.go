package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "raidguard"

var (
	// EventsReceived counts platform events delivered to policy modules.
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_received_total",
		Help:      "Platform events delivered to policy modules by event type",
	}, []string{"event"})

	// TierFirings counts tier firings by policy and tier key.
	TierFirings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tier_firings_total",
		Help:      "Escalation tier firings by policy and tier",
	}, []string{"policy", "tier"})

	RemediationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remediation_outcomes_total",
		Help:      "Remediation attempts by action and outcome",
	}, []string{"action", "outcome"})

	RemediationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remediation_duration_seconds",
		Help:      "Time spent in platform calls for one remediation",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"action"})

	// AttributionLookups counts resolver results: resolved, forbidden, unknown, cached.
	AttributionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attribution_lookups_total",
		Help:      "Attribution lookups by result",
	}, []string{"result"})

	HeuristicFlags = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "heuristic_flags_total",
		Help:      "Messages flagged as repetitive by the content heuristic",
	})

	// ReportsSent counts reports by result: sent, queued, dropped, failed. A queued
	// report is counted again when it is finally posted.
	ReportsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_total",
		Help:      "Reports handed to the log destination by result",
	}, []string{"result"})

	// LiveCounters is the number of unexpired violation counters per registry.
	LiveCounters = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_counters",
		Help:      "Unexpired violation counters held in memory",
	}, []string{"registry"})

	SweptCounters = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swept_counters_total",
		Help:      "Expired counters removed by the sweeper",
	}, []string{"registry"})

	HandlerPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_panics_total",
		Help:      "Recovered panics in event handlers by module",
	}, []string{"module"})
)
