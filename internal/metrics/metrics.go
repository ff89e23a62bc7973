// Package metrics provides the centralized Prometheus registry for the
// signal pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "pipeline_cycles_total",
		Help:      "Total number of pipeline cycles run",
	})
	SnapshotsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "snapshots_ingested_total",
		Help:      "Total number of odds snapshots persisted",
	})
	SnapshotsDedupedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "snapshots_deduped_total",
		Help:      "Total number of unchanged odds rows skipped at ingestion",
	})
	ObservationsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "observations_skipped_total",
		Help:      "Total number of invalid observations skipped by the feature engine",
	})
	FeatureRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "feature_records_total",
		Help:      "Total number of feature records emitted",
	})
	BetsRecommendedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "bets_recommended_total",
		Help:      "Total number of bets passing all decision gates",
	})
	EventsSettledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "events_settled_total",
		Help:      "Total number of events settled with final scores",
	})
	GateRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "gate_rejections_total",
		Help:      "Candidates rejected by decision gate",
	}, []string{"gate"})
	OddsAPIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "odds_api_requests_total",
		Help:      "Requests to the odds API by outcome",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	CurrentBankroll = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "current_bankroll",
		Help:      "Configured bankroll in currency units",
	})
	CalibratorTrainingRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "calibrator_training_rows",
		Help:      "Rows used in the latest calibrator training pass",
	})
	CalibratorBuckets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "calibrator_buckets",
		Help:      "Dedicated calibration buckets in the serving model",
	})
	TrackedInstruments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "tracked_instruments",
		Help:      "Instruments with buffered price history",
	})
	OddsAPIQuotaRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "odds_api_quota_remaining",
		Help:      "Remaining request quota reported by the odds API",
	})
)

// Histogram metrics
var (
	PipelineCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "pipeline_cycle_duration_seconds",
		Help:      "Duration of full pipeline cycles in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600},
	})
	FeatureBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "feature_batch_duration_seconds",
		Help:      "Duration of feature engine batches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	CalibratorFitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "calibrator_fit_duration_seconds",
		Help:      "Duration of calibrator training passes in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PipelineCyclesTotal)
		registry.MustRegister(SnapshotsIngestedTotal)
		registry.MustRegister(SnapshotsDedupedTotal)
		registry.MustRegister(ObservationsSkippedTotal)
		registry.MustRegister(FeatureRecordsTotal)
		registry.MustRegister(BetsRecommendedTotal)
		registry.MustRegister(EventsSettledTotal)
		registry.MustRegister(GateRejectionsTotal)
		registry.MustRegister(OddsAPIRequestsTotal)

		// Register gauge metrics
		registry.MustRegister(CurrentBankroll)
		registry.MustRegister(CalibratorTrainingRows)
		registry.MustRegister(CalibratorBuckets)
		registry.MustRegister(TrackedInstruments)
		registry.MustRegister(OddsAPIQuotaRemaining)

		// Register histogram metrics
		registry.MustRegister(PipelineCycleDuration)
		registry.MustRegister(FeatureBatchDuration)
		registry.MustRegister(CalibratorFitDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
