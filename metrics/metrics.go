// Package metrics provides Prometheus metrics for the settlement engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"pickmarket/models"
)

// SettlementMetrics collects and exposes settlement-related Prometheus metrics.
type SettlementMetrics struct {
	registry *prometheus.Registry

	PassesTotal      *prometheus.CounterVec
	PassDuration     prometheus.Histogram
	PicksResolved    *prometheus.CounterVec
	PicksPending     prometheus.Gauge
	PacksSettled     prometheus.Counter
	PackageErrors    prometheus.Counter
	SportFetchErrors prometheus.Counter
	SyncMatches      prometheus.Counter
	SyncErrors       prometheus.Counter
}

// NewSettlementMetrics creates a new settlement metrics collector with its
// own registry.
func NewSettlementMetrics() *SettlementMetrics {
	registry := prometheus.NewRegistry()

	sm := &SettlementMetrics{
		registry: registry,

		PassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pickmarket_settlement_passes_total",
				Help: "Total number of settlement passes",
			},
			[]string{"status"},
		),
		PassDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pickmarket_settlement_pass_duration_seconds",
				Help:    "Duration of a settlement pass",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~160s
			},
		),
		PicksResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pickmarket_picks_resolved_total",
				Help: "Picks resolved to a terminal status",
			},
			[]string{"outcome"},
		),
		PicksPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pickmarket_picks_pending",
				Help: "Picks left pending by the most recent pass",
			},
		),
		PacksSettled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pickmarket_packages_settled_total",
				Help: "Guaranteed packages settled",
			},
		),
		PackageErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pickmarket_package_reevaluation_errors_total",
				Help: "Package reevaluations that failed after a pick resolved",
			},
		),
		SportFetchErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pickmarket_sport_fetch_errors_total",
				Help: "Odds snapshot fetches that failed during settlement",
			},
		),
		SyncMatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pickmarket_sync_matches_created_total",
				Help: "Match snapshots ingested by the odds sync",
			},
		),
		SyncErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pickmarket_sync_league_errors_total",
				Help: "Leagues that failed to sync",
			},
		),
	}

	registry.MustRegister(
		sm.PassesTotal,
		sm.PassDuration,
		sm.PicksResolved,
		sm.PicksPending,
		sm.PacksSettled,
		sm.PackageErrors,
		sm.SportFetchErrors,
		sm.SyncMatches,
		sm.SyncErrors,
	)

	return sm
}

// Registry returns the prometheus registry.
func (sm *SettlementMetrics) Registry() *prometheus.Registry {
	return sm.registry
}

// ObservePass records the outcome of one settlement pass.
func (sm *SettlementMetrics) ObservePass(summary *models.SettlementSummary, err error) {
	if err != nil {
		sm.PassesTotal.WithLabelValues("error").Inc()
		return
	}
	sm.PassesTotal.WithLabelValues("ok").Inc()
	sm.PassDuration.Observe(summary.Duration.Seconds())
	sm.PicksResolved.WithLabelValues("won").Add(float64(summary.Won))
	sm.PicksResolved.WithLabelValues("lost").Add(float64(summary.Lost))
	sm.PicksPending.Set(float64(summary.Pending))
	sm.PacksSettled.Add(float64(summary.PackagesSettled))
	sm.PackageErrors.Add(float64(summary.PackageErrors))
	sm.SportFetchErrors.Add(float64(summary.SportFetchErrors))
}
