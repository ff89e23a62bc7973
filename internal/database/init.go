package database

import (
	"context"
	"fmt"
)

// Schema statements applied at startup. CREATE IF NOT EXISTS keeps the
// call idempotent across restarts.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		sport_key TEXT NOT NULL,
		commence_time TIMESTAMPTZ NOT NULL,
		home_team TEXT,
		away_team TEXT,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		winner TEXT,
		home_score INT,
		away_score INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_commence_time ON events (commence_time)`,
	`CREATE TABLE IF NOT EXISTS odds_snapshots (
		id BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id),
		sport_key TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		bookmaker TEXT NOT NULL,
		market_key TEXT NOT NULL,
		selection TEXT NOT NULL,
		handicap DOUBLE PRECISION,
		odds_decimal DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_event_time ON odds_snapshots (event_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_instrument ON odds_snapshots (event_id, bookmaker, market_key, selection, handicap, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS market_features (
		id BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id),
		sport_key TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		market_family TEXT NOT NULL,
		selection TEXT NOT NULL,
		book TEXT NOT NULL,
		p_implied DOUBLE PRECISION NOT NULL,
		p_fair_consensus DOUBLE PRECISION NOT NULL,
		velocity DOUBLE PRECISION NOT NULL,
		clv_projected DOUBLE PRECISION NOT NULL,
		context_uncertainty DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_features_event ON market_features (event_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS bet_logs (
		id UUID PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		event_id TEXT NOT NULL REFERENCES events(id),
		selection TEXT NOT NULL,
		price_taken DOUBLE PRECISION NOT NULL,
		stake NUMERIC(12,2) NOT NULL,
		model_prob DOUBLE PRECISION NOT NULL,
		ev_per_unit DOUBLE PRECISION NOT NULL,
		result TEXT,
		pnl DOUBLE PRECISION
	)`,
}

// InitSchema creates the pipeline's tables and indexes if they do not
// exist yet.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
