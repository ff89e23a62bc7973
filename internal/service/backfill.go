package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// DefaultBackfillStep is one archived snapshot per day. Hourly steps
// work but burn quota quickly on the history endpoint.
const DefaultBackfillStep = 24 * time.Hour

// BackfillSport walks the odds archive from the start of the window to
// its end, storing each resolved snapshot under the timestamp the API
// reports for it. This seeds enough settled history for calibrator
// training on a fresh database.
func (s *IngestionService) BackfillSport(ctx context.Context, sportKey string, from, to time.Time, step time.Duration) (*IngestionStats, error) {
	if step <= 0 {
		step = DefaultBackfillStep
	}
	s.stats.Reset()
	start := time.Now()

	// Coarse request grids can resolve to the same archived snapshot,
	// so track what the API actually returned.
	seen := make(map[int64]bool)

	for at := from; !at.After(to); at = at.Add(step) {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}

		snap, err := s.client.GetHistoricalOdds(ctx, sportKey, at)
		if err != nil {
			s.stats.RecordError()
			return s.stats, fmt.Errorf("failed to fetch history for %s at %s: %w",
				sportKey, at.UTC().Format(time.RFC3339), err)
		}
		if seen[snap.Timestamp.Unix()] {
			continue
		}
		seen[snap.Timestamp.Unix()] = true

		var batch []*models.Observation
		for _, eo := range snap.Data {
			event := &models.Event{
				ID:           eo.ID,
				SportKey:     sportKey,
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

			batch = append(batch, s.flatten(ctx, eo, snap.Timestamp.UTC(), false)...)
		}

		if err := s.snapshots.InsertBatch(ctx, batch); err != nil {
			s.stats.RecordError()
			return s.stats, fmt.Errorf("failed to store history for %s: %w", sportKey, err)
		}
		s.stats.RecordSnapshots(len(batch))
		metrics.SnapshotsIngestedTotal.Add(float64(len(batch)))
	}

	s.stats.Finish(start)
	s.logger.WithFields(logrus.Fields{
		"sport": sportKey,
		"from":  from.UTC().Format(time.RFC3339),
		"to":    to.UTC().Format(time.RFC3339),
		"stats": s.stats.String(),
	}).Info("Backfill complete")
	return s.stats, nil
}

// BackfillAll backfills every listed sport over the same window,
// tolerating per-sport failures the way IngestAll does.
func (s *IngestionService) BackfillAll(ctx context.Context, sportKeys []string, from, to time.Time, step time.Duration) error {
	var failures int
	var lastErr error
	for _, sport := range sportKeys {
		if _, err := s.BackfillSport(ctx, sport, from, to, step); err != nil {
			failures++
			lastErr = err
			s.logger.WithError(err).WithField("sport", sport).Error("Sport backfill failed")
		}
	}
	if failures == len(sportKeys) && failures > 0 {
		return fmt.Errorf("all %d sports failed backfill: %w", failures, lastErr)
	}
	return nil
}
