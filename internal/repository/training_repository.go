package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresTrainingRepository implements TrainingRepository for PostgreSQL
type PostgresTrainingRepository struct {
	db *database.DB
}

// NewPostgresTrainingRepository creates a new training repository
func NewPostgresTrainingRepository(db *database.DB) TrainingRepository {
	return &PostgresTrainingRepository{db: db}
}

// GetTrainingRows joins feature records against settled events. The
// outcome is 1 when the priced selection matches the event winner. Only
// head-to-head selections resolve against the winner column, so rows
// for other selections are excluded here rather than mislabeled.
func (r *PostgresTrainingRepository) GetTrainingRows(ctx context.Context) ([]models.TrainingRow, error) {
	query := `
		SELECT f.sport_key, f.market_family, f.p_fair_consensus,
		       CASE WHEN (e.winner = 'Home' AND f.selection = e.home_team)
		              OR (e.winner = 'Away' AND f.selection = e.away_team)
		            THEN 1 ELSE 0 END AS outcome
		FROM market_features f
		JOIN events e ON e.id = f.event_id
		WHERE e.completed = TRUE
		  AND e.winner IS NOT NULL
		  AND f.selection IN (e.home_team, e.away_team)
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query training rows: %w", err)
	}
	defer rows.Close()

	var training []models.TrainingRow
	for rows.Next() {
		var row models.TrainingRow
		var family string
		if err := rows.Scan(&row.SportKey, &family, &row.RawProb, &row.Outcome); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		row.MarketFamily = market.Family(family)
		training = append(training, row)
	}
	return training, rows.Err()
}
