// Package repository provides data access interfaces and PostgreSQL
// implementations for the signal pipeline.
package repository

import (
	"context"
	"time"

	"github.com/yourusername/sharpline/internal/models"
)

// EventRepository manages sporting events.
type EventRepository interface {
	Upsert(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetUpcoming(ctx context.Context, from time.Time, lookahead time.Duration) ([]*models.Event, error)
	GetUnsettled(ctx context.Context, sportKey string) ([]*models.Event, error)
	MarkSettled(ctx context.Context, event *models.Event) error
}

// SnapshotRepository manages priced odds observations.
type SnapshotRepository interface {
	Insert(ctx context.Context, obs *models.Observation) error
	InsertBatch(ctx context.Context, observations []*models.Observation) error
	GetLatestOdds(ctx context.Context, obs *models.Observation) (float64, error)
	GetByEventIDs(ctx context.Context, eventIDs []string, since time.Time) ([]*models.Observation, error)
	GetLiveSnapshots(ctx context.Context, eventIDs []string, since time.Time) (map[string]models.MarketSnapshot, error)
}

// FeatureRepository persists feature records.
type FeatureRepository interface {
	InsertBatch(ctx context.Context, records []*models.FeatureRecord) error
}

// TrainingRepository supplies calibrator training rows by joining
// feature records with settled events.
type TrainingRepository interface {
	GetTrainingRows(ctx context.Context) ([]models.TrainingRow, error)
}

// BetLogRepository persists recommended bets.
type BetLogRepository interface {
	Insert(ctx context.Context, log *models.BetLog) error
	GetRecent(ctx context.Context, limit int) ([]*models.BetLog, error)
}
