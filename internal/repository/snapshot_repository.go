package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Insert inserts a single odds observation
func (r *PostgresSnapshotRepository) Insert(ctx context.Context, obs *models.Observation) error {
	query := `
		INSERT INTO odds_snapshots (event_id, sport_key, timestamp, bookmaker, market_key, selection, handicap, odds_decimal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		obs.EventID, obs.SportKey, obs.Timestamp, obs.Bookmaker,
		obs.MarketKey, obs.Selection, obs.Handicap, obs.OddsDecimal,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// InsertBatch inserts multiple observations using a high-performance COPY
func (r *PostgresSnapshotRepository) InsertBatch(ctx context.Context, observations []*models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	columns := []string{"event_id", "sport_key", "timestamp", "bookmaker", "market_key", "selection", "handicap", "odds_decimal"}

	copyFromSource := make([][]interface{}, len(observations))
	for i, obs := range observations {
		copyFromSource[i] = []interface{}{
			obs.EventID, obs.SportKey, obs.Timestamp, obs.Bookmaker,
			obs.MarketKey, obs.Selection, obs.Handicap, obs.OddsDecimal,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"odds_snapshots"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert snapshots: %w", err)
	}
	if count != int64(len(observations)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(observations))
	}
	return nil
}

// GetLatestOdds returns the most recent stored odds for the same
// instrument and bookmaker, used by ingestion to skip unchanged rows.
func (r *PostgresSnapshotRepository) GetLatestOdds(ctx context.Context, obs *models.Observation) (float64, error) {
	query := `
		SELECT odds_decimal
		FROM odds_snapshots
		WHERE event_id = $1 AND bookmaker = $2 AND market_key = $3 AND selection = $4
		  AND handicap IS NOT DISTINCT FROM $5
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var odds float64
	err := r.db.GetPool().QueryRow(ctx, query,
		obs.EventID, obs.Bookmaker, obs.MarketKey, obs.Selection, obs.Handicap,
	).Scan(&odds)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest odds: %w", err)
	}
	return odds, nil
}

// GetByEventIDs retrieves observations for the given events since a
// cutoff, ordered ascending by timestamp for the feature engine.
func (r *PostgresSnapshotRepository) GetByEventIDs(ctx context.Context, eventIDs []string, since time.Time) ([]*models.Observation, error) {
	query := `
		SELECT event_id, sport_key, timestamp, bookmaker, market_key, selection, handicap, odds_decimal
		FROM odds_snapshots
		WHERE event_id = ANY($1) AND timestamp >= $2
		ORDER BY timestamp ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventIDs, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var observations []*models.Observation
	for rows.Next() {
		obs := &models.Observation{}
		err := rows.Scan(
			&obs.EventID, &obs.SportKey, &obs.Timestamp, &obs.Bookmaker,
			&obs.MarketKey, &obs.Selection, &obs.Handicap, &obs.OddsDecimal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		obs.MarketFamily = market.Classify(obs.MarketKey)
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// GetLiveSnapshots builds the per-event cross-book snapshot: for each
// event, the latest odds per bookmaker within the window.
func (r *PostgresSnapshotRepository) GetLiveSnapshots(ctx context.Context, eventIDs []string, since time.Time) (map[string]models.MarketSnapshot, error) {
	query := `
		SELECT DISTINCT ON (event_id, bookmaker) event_id, bookmaker, odds_decimal
		FROM odds_snapshots
		WHERE event_id = ANY($1) AND timestamp >= $2
		ORDER BY event_id, bookmaker, timestamp DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventIDs, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query live snapshots: %w", err)
	}
	defer rows.Close()

	live := make(map[string]models.MarketSnapshot)
	for rows.Next() {
		var eventID, bookmaker string
		var odds float64
		if err := rows.Scan(&eventID, &bookmaker, &odds); err != nil {
			return nil, fmt.Errorf("failed to scan live snapshot: %w", err)
		}
		if live[eventID] == nil {
			live[eventID] = models.MarketSnapshot{}
		}
		live[eventID][bookmaker] = odds
	}
	return live, rows.Err()
}
