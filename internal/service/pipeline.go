package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/sharpline/internal/calibration"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/decision"
	"github.com/yourusername/sharpline/internal/feature"
	"github.com/yourusername/sharpline/internal/injuries"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
)

// PipelineService runs the full signal cycle: settle finished events,
// retrain the calibrator, ingest fresh odds, derive features, and size
// any qualifying bets.
type PipelineService struct {
	cfg        *config.Config
	ingestion  *IngestionService
	settlement *SettlementService
	injuries   *injuries.Ingestor
	engine     *feature.Engine
	calibrator *calibration.Calibrator
	decider    *decision.Engine
	repos      *repository.Repositories
	logger     *logrus.Logger
	audit      *logger.AuditLogger
	lastCycle  atomic.Int64 // unix nanos of the last completed cycle
}

// NewPipelineService wires the pipeline's stages. The injury ingestor
// may be nil when the injuries feed is disabled.
func NewPipelineService(
	cfg *config.Config,
	ingestion *IngestionService,
	settlement *SettlementService,
	injuryIngestor *injuries.Ingestor,
	repos *repository.Repositories,
	log *logrus.Logger,
) *PipelineService {
	if log == nil {
		log = logrus.New()
	}
	return &PipelineService{
		cfg:        cfg,
		ingestion:  ingestion,
		settlement: settlement,
		injuries:   injuryIngestor,
		engine:     feature.NewEngine(cfg.Pipeline.HistoryBufferSize, log),
		calibrator: calibration.NewCalibrator(log),
		decider: decision.NewEngine(decision.Config{
			Bankroll:             cfg.Strategy.Bankroll,
			KellyFraction:        cfg.Strategy.KellyFraction,
			MaxDailyStakePercent: cfg.Strategy.MaxDailyStakePercent,
		}, log),
		repos:  repos,
		logger: log,
		audit:  logger.NewAuditLogger(log),
	}
}

// RunCycle executes one full pipeline cycle. Stage failures are logged
// and the cycle continues with whatever data is available; only a
// cancelled context aborts it.
func (p *PipelineService) RunCycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.PipelineCycleDuration.Observe(time.Since(start).Seconds())
		metrics.PipelineCyclesTotal.Inc()
		p.lastCycle.Store(time.Now().UnixNano())
	}()

	sports := p.cfg.Pipeline.Sports
	p.settlement.SettleAll(ctx, sports)

	p.retrainCalibrator(ctx)

	if err := p.ingestion.IngestAll(ctx, sports); err != nil {
		p.logger.WithError(err).Error("Ingestion produced no new data, pricing stored snapshots")
	}

	now := time.Now().UTC()
	events, err := p.repos.Events.GetUpcoming(ctx, now, p.cfg.Lookahead())
	if err != nil {
		return err
	}
	if len(events) == 0 {
		p.logger.Info("No upcoming events in window")
		return nil
	}

	eventIDs := make([]string, len(events))
	for i, e := range events {
		eventIDs[i] = e.ID
	}
	since := now.Add(-p.cfg.Lookback())

	observations, err := p.repos.Snapshots.GetByEventIDs(ctx, eventIDs, since)
	if err != nil {
		return err
	}

	live, err := p.repos.Snapshots.GetLiveSnapshots(ctx, eventIDs, since)
	if err != nil {
		p.logger.WithError(err).Warn("Live snapshot lookup failed, consensus degrades to single-book")
		live = map[string]models.MarketSnapshot{}
	}

	pipelineCtx := &models.PipelineContext{LiveOdds: live}
	if p.injuries != nil {
		pipelineCtx.Injuries = p.injuries.FetchAll(ctx, events)
	}

	featStart := time.Now()
	records, stats, err := p.engine.Process(ctx, observations, pipelineCtx)
	if err != nil {
		return err
	}
	metrics.FeatureBatchDuration.Observe(time.Since(featStart).Seconds())
	metrics.FeatureRecordsTotal.Add(float64(stats.Processed))
	metrics.ObservationsSkippedTotal.Add(float64(stats.Skipped))
	metrics.TrackedInstruments.Set(float64(p.engine.TrackedInstruments()))

	p.logger.WithFields(logrus.Fields{
		"events": len(events),
		"stats":  stats.String(),
	}).Info("Feature batch complete")

	if err := p.repos.Features.InsertBatch(ctx, records); err != nil {
		p.logger.WithError(err).Error("Failed to persist feature records")
	}

	bets := p.decider.Evaluate(p.candidates(records))
	metrics.BetsRecommendedTotal.Add(float64(len(bets)))
	metrics.CurrentBankroll.Set(p.cfg.Strategy.Bankroll)

	if len(bets) > 0 {
		top := bets[0]
		p.logger.WithFields(logrus.Fields{
			"event_id":  top.EventID,
			"selection": top.Selection,
			"price":     top.Price,
			"ev":        top.EVPercent,
			"stake":     top.Stake,
		}).Info("Top pick this cycle")
	}

	for _, bet := range bets {
		log := models.NewBetLog(bet, now)
		if err := p.repos.BetLogs.Insert(ctx, log); err != nil {
			p.logger.WithError(err).WithField("event_id", bet.EventID).Error("Failed to persist bet log")
			continue
		}
		p.audit.LogBetRecommendation(log.ID.String(), bet.EventID, bet.Selection,
			bet.Price, bet.Stake, bet.ModelProb, bet.EVPercent, now)
	}

	return nil
}

// retrainCalibrator refits the calibrator from settled history. An empty
// or failed training query leaves the previous model in place.
func (p *PipelineService) retrainCalibrator(ctx context.Context) {
	rows, err := p.repos.Training.GetTrainingRows(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Training query failed, keeping current calibrator")
		return
	}
	if len(rows) == 0 {
		return
	}

	fitStart := time.Now()
	p.calibrator.Fit(rows)
	metrics.CalibratorFitDuration.Observe(time.Since(fitStart).Seconds())
	metrics.CalibratorTrainingRows.Set(float64(len(rows)))

	if model := p.calibrator.Model(); model != nil {
		metrics.CalibratorBuckets.Set(float64(model.Buckets()))
		p.audit.LogCalibratorRetrain(model.Samples(), model.Buckets(), time.Since(fitStart).Milliseconds())
	}
}

// candidates maps the freshest feature row per event and selection into
// decision inputs, with the consensus probability run through the
// calibrator.
func (p *PipelineService) candidates(records []*models.FeatureRecord) []models.Candidate {
	type key struct {
		eventID   string
		selection string
	}

	latest := make(map[key]*models.FeatureRecord)
	for _, rec := range records {
		k := key{rec.EventID, rec.Selection}
		if cur, ok := latest[k]; !ok || rec.Timestamp.After(cur.Timestamp) {
			latest[k] = rec
		}
	}

	out := make([]models.Candidate, 0, len(latest))
	for _, rec := range latest {
		if rec.PImplied <= 0 {
			continue
		}
		modelProb := p.calibrator.Predict(rec.SportKey, rec.MarketFamily, rec.PFairConsensus)
		out = append(out, models.Candidate{
			EventID:            rec.EventID,
			Selection:          rec.Selection,
			ModelProb:          modelProb,
			Price:              1.0 / rec.PImplied,
			PImplied:           rec.PImplied,
			Velocity:           rec.Velocity,
			CLVProjected:       rec.CLVProjected,
			ContextUncertainty: rec.ContextUncertainty,
		})
	}
	return out
}

// Calibrator exposes the pipeline's calibrator for status reporting.
func (p *PipelineService) Calibrator() *calibration.Calibrator {
	return p.calibrator
}

// LastCycle returns when the last pipeline cycle completed, or the zero
// time before the first cycle has run.
func (p *PipelineService) LastCycle() time.Time {
	nanos := p.lastCycle.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}
