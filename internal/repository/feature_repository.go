package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresFeatureRepository implements FeatureRepository for PostgreSQL
type PostgresFeatureRepository struct {
	db *database.DB
}

// NewPostgresFeatureRepository creates a new feature repository
func NewPostgresFeatureRepository(db *database.DB) FeatureRepository {
	return &PostgresFeatureRepository{db: db}
}

// InsertBatch inserts feature records using COPY
func (r *PostgresFeatureRepository) InsertBatch(ctx context.Context, records []*models.FeatureRecord) error {
	if len(records) == 0 {
		return nil
	}

	columns := []string{
		"event_id", "sport_key", "timestamp", "market_family", "selection", "book",
		"p_implied", "p_fair_consensus", "velocity", "clv_projected", "context_uncertainty",
	}

	copyFromSource := make([][]interface{}, len(records))
	for i, rec := range records {
		copyFromSource[i] = []interface{}{
			rec.EventID, rec.SportKey, rec.Timestamp, string(rec.MarketFamily), rec.Selection, rec.Book,
			rec.PImplied, rec.PFairConsensus, rec.Velocity, rec.CLVProjected, rec.ContextUncertainty,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"market_features"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert features: %w", err)
	}
	if count != int64(len(records)) {
		return fmt.Errorf("inserted %d feature rows, expected %d", count, len(records))
	}
	return nil
}
