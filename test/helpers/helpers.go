// Package helpers provides shared setup for integration tests.
package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
)

// SetupTestDB connects to the test database and applies the schema.
// Tests calling this should be gated behind the integration build tag.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	cfg := testDatabaseConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewDB(ctx, cfg)
	require.NoError(t, err, "failed to connect to test database")

	require.NoError(t, db.InitSchema(ctx), "failed to apply schema")
	return db
}

// TeardownTestDB truncates all pipeline tables and closes the pool.
func TeardownTestDB(t *testing.T, db *database.DB) {
	t.Helper()

	tables := []string{"bet_logs", "market_features", "odds_snapshots", "events"}
	ctx := context.Background()
	for _, table := range tables {
		_, err := db.GetPool().Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate %s", table)
	}
	db.Close()
}

// NewTestRepositories builds the full repository set over a test DB.
func NewTestRepositories(t *testing.T, db *database.DB) *repository.Repositories {
	t.Helper()
	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)
	return repos
}

// NewTestEvent builds an upcoming event with sensible defaults.
func NewTestEvent(id string) *models.Event {
	return &models.Event{
		ID:           id,
		SportKey:     "basketball_nba",
		CommenceTime: time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second),
		HomeTeam:     "Boston Celtics",
		AwayTeam:     "Denver Nuggets",
	}
}

// NewTestObservation builds a valid observation against the given event.
func NewTestObservation(eventID, bookmaker string, odds float64, ts time.Time) *models.Observation {
	return &models.Observation{
		EventID:      eventID,
		SportKey:     "basketball_nba",
		MarketKey:    "h2h",
		MarketFamily: market.FamilyMain,
		Selection:    "Boston Celtics",
		Bookmaker:    bookmaker,
		OddsDecimal:  odds,
		Timestamp:    ts,
	}
}

func testDatabaseConfig() *config.DatabaseConfig {
	port := 5432
	if v := os.Getenv("TEST_DB_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &port)
	}
	return &config.DatabaseConfig{
		Host:           envOr("TEST_DB_HOST", "localhost"),
		Port:           port,
		Name:           envOr("TEST_DB_NAME", "sharpline_test"),
		User:           envOr("TEST_DB_USER", "test"),
		Password:       envOr("TEST_DB_PASSWORD", "test"),
		SSLMode:        "disable",
		MaxConnections: 5,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
