// Package service wires the pipeline's stages together: ingestion,
// settlement and the periodic signal cycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsapi"
	"github.com/yourusername/sharpline/internal/repository"
)

// IngestionService pulls odds from The Odds API and persists events and
// snapshots. Snapshots identical to the latest stored row for the same
// instrument and book are dropped.
type IngestionService struct {
	client     *oddsapi.Client
	events     repository.EventRepository
	snapshots  repository.SnapshotRepository
	bookmakers map[string]bool
	logger     *logrus.Logger
	stats      *IngestionStats
}

// NewIngestionService creates a new ingestion service. An empty
// bookmaker list keeps every book.
func NewIngestionService(
	client *oddsapi.Client,
	events repository.EventRepository,
	snapshots repository.SnapshotRepository,
	bookmakers []string,
	logger *logrus.Logger,
) *IngestionService {
	allowed := make(map[string]bool, len(bookmakers))
	for _, b := range bookmakers {
		allowed[b] = true
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &IngestionService{
		client:     client,
		events:     events,
		snapshots:  snapshots,
		bookmakers: allowed,
		logger:     logger,
		stats:      NewIngestionStats(),
	}
}

// IngestSport fetches upcoming odds for one sport and stores them.
// Per-sport failures are returned without touching previously stored
// rows; the caller decides whether to continue with other sports.
func (s *IngestionService) IngestSport(ctx context.Context, sportKey string) (*IngestionStats, error) {
	s.stats.Reset()
	start := time.Now()

	eventOdds, err := s.client.GetUpcomingOdds(ctx, sportKey)
	if err != nil {
		s.stats.RecordError()
		return s.stats, fmt.Errorf("failed to fetch odds for %s: %w", sportKey, err)
	}

	s.logger.WithFields(logrus.Fields{
		"sport":  sportKey,
		"events": len(eventOdds),
	}).Info("Fetched upcoming odds")

	now := time.Now().UTC()
	var batch []*models.Observation

	for _, eo := range eventOdds {
		event := &models.Event{
			ID:           eo.ID,
			SportKey:     eo.SportKey,
			CommenceTime: eo.CommenceTime,
			HomeTeam:     eo.HomeTeam,
			AwayTeam:     eo.AwayTeam,
		}
		if err := s.events.Upsert(ctx, event); err != nil {
			s.stats.RecordError()
			s.logger.WithError(err).WithField("event_id", eo.ID).Warn("Failed to upsert event")
			continue
		}
		s.stats.RecordEvent()

		batch = append(batch, s.flatten(ctx, eo, now, true)...)
	}

	if err := s.snapshots.InsertBatch(ctx, batch); err != nil {
		s.stats.RecordError()
		return s.stats, fmt.Errorf("failed to store snapshots for %s: %w", sportKey, err)
	}
	s.stats.RecordSnapshots(len(batch))
	metrics.SnapshotsIngestedTotal.Add(float64(len(batch)))

	s.stats.Finish(start)
	s.logger.WithFields(logrus.Fields{
		"sport": sportKey,
		"stats": s.stats.String(),
	}).Info("Ingestion complete")
	return s.stats, nil
}

// IngestAll ingests every configured sport, tolerating per-sport
// failures. It returns an error only when every sport failed.
func (s *IngestionService) IngestAll(ctx context.Context, sportKeys []string) error {
	var failures int
	var lastErr error
	for _, sport := range sportKeys {
		if _, err := s.IngestSport(ctx, sport); err != nil {
			failures++
			lastErr = err
			s.logger.WithError(err).WithField("sport", sport).Error("Sport ingestion failed")
		}
	}
	if failures == len(sportKeys) && failures > 0 {
		return fmt.Errorf("all %d sports failed ingestion: %w", failures, lastErr)
	}
	return nil
}

// flatten expands one event's bookmaker payload into observations,
// dropping filtered books and, when dedupe is set, quotes unchanged
// since the last stored snapshot. Backfill passes dedupe=false because
// historical rows arrive out of live order and the latest-quote check
// would discard valid history.
func (s *IngestionService) flatten(ctx context.Context, eo oddsapi.EventOdds, now time.Time, dedupe bool) []*models.Observation {
	var out []*models.Observation
	for _, bm := range eo.Bookmakers {
		if len(s.bookmakers) > 0 && !s.bookmakers[bm.Key] {
			continue
		}
		for _, mkt := range bm.Markets {
			for _, outcome := range mkt.Outcomes {
				obs := &models.Observation{
					EventID:      eo.ID,
					SportKey:     eo.SportKey,
					MarketKey:    mkt.Key,
					MarketFamily: market.Classify(mkt.Key),
					Selection:    outcome.Name,
					Handicap:     outcome.Point,
					Bookmaker:    bm.Key,
					OddsDecimal:  outcome.Price,
					Timestamp:    now,
				}
				if !obs.IsValid() {
					s.stats.RecordInvalid()
					metrics.ObservationsSkippedTotal.Inc()
					continue
				}
				if dedupe && s.isDuplicate(ctx, obs) {
					s.stats.RecordDuplicate()
					metrics.SnapshotsDedupedTotal.Inc()
					continue
				}
				out = append(out, obs)
			}
		}
	}
	return out
}

// isDuplicate reports whether the latest stored quote for this
// instrument and book already carries the same price. Lookup failures
// count as new data rather than blocking ingestion.
func (s *IngestionService) isDuplicate(ctx context.Context, obs *models.Observation) bool {
	last, err := s.snapshots.GetLatestOdds(ctx, obs)
	if errors.Is(err, models.ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.WithError(err).Debug("Dedupe lookup failed, keeping snapshot")
		return false
	}
	return last == obs.OddsDecimal
}
