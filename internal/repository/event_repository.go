package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *database.DB
}

// NewPostgresEventRepository creates a new event repository
func NewPostgresEventRepository(db *database.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

// Upsert inserts an event or refreshes its commence time when it
// already exists.
func (r *PostgresEventRepository) Upsert(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, sport_key, commence_time, home_team, away_team, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET commence_time = EXCLUDED.commence_time, updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		event.ID, event.SportKey, event.CommenceTime, event.HomeTeam, event.AwayTeam,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by its API identifier
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, sport_key, commence_time, home_team, away_team, completed, winner, home_score, away_score, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	event := &models.Event{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&event.ID, &event.SportKey, &event.CommenceTime, &event.HomeTeam, &event.AwayTeam,
		&event.Completed, &event.Winner, &event.HomeScore, &event.AwayScore,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// GetUpcoming retrieves events commencing within the lookahead window
func (r *PostgresEventRepository) GetUpcoming(ctx context.Context, from time.Time, lookahead time.Duration) ([]*models.Event, error) {
	query := `
		SELECT id, sport_key, commence_time, home_team, away_team, completed, winner, home_score, away_score, created_at, updated_at
		FROM events
		WHERE commence_time >= $1 AND commence_time <= $2
		ORDER BY commence_time ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, from, from.Add(lookahead))
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetUnsettled retrieves completed-unknown events for one sport
func (r *PostgresEventRepository) GetUnsettled(ctx context.Context, sportKey string) ([]*models.Event, error) {
	query := `
		SELECT id, sport_key, commence_time, home_team, away_team, completed, winner, home_score, away_score, created_at, updated_at
		FROM events
		WHERE sport_key = $1 AND completed = FALSE AND commence_time < NOW()
		ORDER BY commence_time ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, sportKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsettled events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// MarkSettled writes final scores and the derived winner
func (r *PostgresEventRepository) MarkSettled(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET completed = TRUE, winner = $2, home_score = $3, away_score = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.GetPool().Exec(ctx, query, event.ID, event.Winner, event.HomeScore, event.AwayScore)
	if err != nil {
		return fmt.Errorf("failed to settle event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanEvents(rows pgx.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		err := rows.Scan(
			&event.ID, &event.SportKey, &event.CommenceTime, &event.HomeTeam, &event.AwayTeam,
			&event.Completed, &event.Winner, &event.HomeScore, &event.AwayScore,
			&event.CreatedAt, &event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
