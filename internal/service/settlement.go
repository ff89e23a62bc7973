package service

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/oddsapi"
	"github.com/yourusername/sharpline/internal/repository"
)

// SettlementService resolves completed events against the scores
// endpoint so their feature rows become calibrator training data.
type SettlementService struct {
	client   *oddsapi.Client
	events   repository.EventRepository
	daysBack int
	logger   *logrus.Logger
	audit    *logger.AuditLogger
}

// NewSettlementService creates a settlement service. daysBack is how far
// back the scores endpoint is queried; the API caps it at 3.
func NewSettlementService(client *oddsapi.Client, events repository.EventRepository, daysBack int, log *logrus.Logger) *SettlementService {
	if daysBack < 1 {
		daysBack = 1
	}
	if daysBack > 3 {
		daysBack = 3
	}
	if log == nil {
		log = logrus.New()
	}
	return &SettlementService{
		client:   client,
		events:   events,
		daysBack: daysBack,
		logger:   log,
		audit:    logger.NewAuditLogger(log),
	}
}

// SettleSport marks completed events for one sport. Events without a
// usable score payload stay unsettled and are retried next cycle.
func (s *SettlementService) SettleSport(ctx context.Context, sportKey string) (int, error) {
	unsettled, err := s.events.GetUnsettled(ctx, sportKey)
	if err != nil {
		return 0, err
	}
	if len(unsettled) == 0 {
		return 0, nil
	}

	results, err := s.client.GetScores(ctx, sportKey, s.daysBack)
	if err != nil {
		return 0, err
	}

	byID := make(map[string]oddsapi.ScoreResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	settled := 0
	for _, event := range unsettled {
		result, ok := byID[event.ID]
		if !ok || !result.Completed {
			continue
		}
		home, away, ok := extractScores(result)
		if !ok {
			s.logger.WithField("event_id", event.ID).Warn("Completed event has unusable scores, skipping")
			continue
		}
		event.Settle(home, away)
		if err := s.events.MarkSettled(ctx, event); err != nil {
			s.logger.WithError(err).WithField("event_id", event.ID).Error("Failed to mark event settled")
			continue
		}
		settled++
		metrics.EventsSettledTotal.Inc()
		s.audit.LogEventSettlement(event.ID, event.SportKey, *event.Winner, home, away)
	}

	if settled > 0 {
		s.logger.WithFields(logrus.Fields{
			"sport":   sportKey,
			"settled": settled,
		}).Info("Settled completed events")
	}
	return settled, nil
}

// SettleAll settles every configured sport, tolerating per-sport
// failures.
func (s *SettlementService) SettleAll(ctx context.Context, sportKeys []string) int {
	total := 0
	for _, sport := range sportKeys {
		n, err := s.SettleSport(ctx, sport)
		if err != nil {
			s.logger.WithError(err).WithField("sport", sport).Error("Settlement failed")
			continue
		}
		total += n
	}
	return total
}

// extractScores pulls integer home and away scores out of a score
// result. The API serialises scores as strings and occasionally omits a
// side.
func extractScores(result oddsapi.ScoreResult) (home, away int, ok bool) {
	var haveHome, haveAway bool
	for _, ts := range result.Scores {
		score, err := strconv.Atoi(ts.Score)
		if err != nil {
			return 0, 0, false
		}
		switch ts.Name {
		case result.HomeTeam:
			home, haveHome = score, true
		case result.AwayTeam:
			away, haveAway = score, true
		}
	}
	return home, away, haveHome && haveAway
}
