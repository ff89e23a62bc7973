// Package feature orchestrates the signal pipeline's first stage:
// classification, history maintenance and plugin dispatch across an
// ordered stream of odds observations.
package feature

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/pricing"
)

// Stats reports batch-level counts back to the caller. A bad row never
// aborts the batch; it shows up here instead.
type Stats struct {
	Processed int
	Skipped   int
}

// String renders the stats for logging.
func (s Stats) String() string {
	return fmt.Sprintf("processed=%d skipped=%d", s.Processed, s.Skipped)
}

// Engine turns priced observations into feature records. The history
// buffer is the engine's only mutable state; it persists across Process
// calls within one instance and must not be shared across goroutines.
type Engine struct {
	registry *pricing.Registry
	buffer   *market.HistoryBuffer[*models.Observation]
	logger   *logrus.Logger
}

// NewEngine creates a feature engine with the given history depth.
func NewEngine(historyDepth int, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		registry: pricing.NewRegistry(),
		buffer:   market.NewHistoryBuffer[*models.Observation](historyDepth),
		logger:   logger,
	}
}

// Process emits one feature record per valid observation, in timestamp
// order. Invalid observations (odds at or below 1.0, missing identity)
// are counted and skipped. For each observation the plugin sees only the
// history buffered before it; the buffer is extended afterwards.
func (e *Engine) Process(ctx context.Context, observations []*models.Observation, pipelineCtx *models.PipelineContext) ([]*models.FeatureRecord, Stats, error) {
	ordered := make([]*models.Observation, len(observations))
	copy(ordered, observations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	records := make([]*models.FeatureRecord, 0, len(ordered))
	var stats Stats

	for _, obs := range ordered {
		select {
		case <-ctx.Done():
			return records, stats, ctx.Err()
		default:
		}

		if !obs.IsValid() {
			stats.Skipped++
			e.logger.WithFields(logrus.Fields{
				"event_id": obs.EventID,
				"book":     obs.Bookmaker,
				"odds":     obs.OddsDecimal,
			}).Debug("Skipping invalid observation")
			continue
		}

		obs = normalize(obs)

		key := obs.Instrument()
		plugin := e.registry.ForFamily(obs.MarketFamily)

		evtCtx := pricing.EventContext{
			MarketSnapshot: pipelineCtx.SnapshotFor(obs.EventID),
			Injuries:       pipelineCtx.InjuriesFor(obs.EventID),
		}

		feats := plugin.CalculateFeatures(obs, e.buffer.Window(key), evtCtx)
		e.buffer.Push(key, obs)

		records = append(records, &models.FeatureRecord{
			EventID:            obs.EventID,
			SportKey:           obs.SportKey,
			MarketFamily:       obs.MarketFamily,
			Selection:          obs.Selection,
			Book:               obs.Bookmaker,
			Timestamp:          obs.Timestamp,
			PImplied:           obs.ImpliedProb(),
			PFairConsensus:     feats.PFairConsensus,
			Velocity:           feats.Velocity,
			CLVProjected:       feats.CLVProjected,
			ContextUncertainty: feats.ContextUncertainty,
		})
		stats.Processed++
	}

	return records, stats, nil
}

// normalize derives the market family and player context when the
// ingestion layer left them unset. Observations are immutable, so the
// derived fields go on a copy rather than the caller's value.
func normalize(obs *models.Observation) *models.Observation {
	family := obs.MarketFamily
	if family == "" {
		family = market.Classify(obs.MarketKey)
	}
	if family == obs.MarketFamily && (family != market.FamilyProp || obs.PlayerName != "") {
		return obs
	}
	derived := *obs
	derived.MarketFamily = family
	if family == market.FamilyProp {
		derived.IsPlayerProp = true
		if derived.PlayerName == "" {
			derived.PlayerName = derived.Selection
		}
	}
	return &derived
}

// TrackedInstruments returns how many instruments currently hold
// buffered history.
func (e *Engine) TrackedInstruments() int {
	return e.buffer.Instruments()
}
