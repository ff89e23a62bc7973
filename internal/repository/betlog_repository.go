package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresBetLogRepository implements BetLogRepository for PostgreSQL
type PostgresBetLogRepository struct {
	db *database.DB
}

// NewPostgresBetLogRepository creates a new bet log repository
func NewPostgresBetLogRepository(db *database.DB) BetLogRepository {
	return &PostgresBetLogRepository{db: db}
}

// Insert persists a recommended bet
func (r *PostgresBetLogRepository) Insert(ctx context.Context, log *models.BetLog) error {
	query := `
		INSERT INTO bet_logs (id, timestamp, event_id, selection, price_taken, stake, model_prob, ev_per_unit, result, pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		log.ID, log.Timestamp, log.EventID, log.Selection, log.PriceTaken,
		log.Stake, log.ModelProb, log.EVPerUnit, log.Result, log.PnL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bet log: %w", err)
	}
	return nil
}

// GetRecent returns the most recently recommended bets
func (r *PostgresBetLogRepository) GetRecent(ctx context.Context, limit int) ([]*models.BetLog, error) {
	query := `
		SELECT id, timestamp, event_id, selection, price_taken, stake, model_prob, ev_per_unit, result, pnl
		FROM bet_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bet logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.BetLog
	for rows.Next() {
		log := &models.BetLog{}
		err := rows.Scan(
			&log.ID, &log.Timestamp, &log.EventID, &log.Selection, &log.PriceTaken,
			&log.Stake, &log.ModelProb, &log.EVPerUnit, &log.Result, &log.PnL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
