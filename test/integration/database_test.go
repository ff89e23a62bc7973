//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/test/helpers"
)

// TestRepositoryIntegration exercises all repositories against a real
// PostgreSQL instance.
func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db := helpers.SetupTestDB(t)
	defer helpers.TeardownTestDB(t, db)
	repos := helpers.NewTestRepositories(t, db)

	t.Run("EventRepository", func(t *testing.T) {
		event := helpers.NewTestEvent("evt_it_1")
		require.NoError(t, repos.Events.Upsert(ctx, event))

		retrieved, err := repos.Events.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, event.HomeTeam, retrieved.HomeTeam)
		assert.False(t, retrieved.Completed)

		// Upsert with a new commence time updates in place
		event.CommenceTime = event.CommenceTime.Add(30 * time.Minute)
		require.NoError(t, repos.Events.Upsert(ctx, event))

		upcoming, err := repos.Events.GetUpcoming(ctx, time.Now().UTC(), 24*time.Hour)
		require.NoError(t, err)
		assert.Len(t, upcoming, 1)
	})

	t.Run("SnapshotRepository", func(t *testing.T) {
		event := helpers.NewTestEvent("evt_it_2")
		require.NoError(t, repos.Events.Upsert(ctx, event))

		now := time.Now().UTC().Truncate(time.Second)
		batch := []*models.Observation{
			helpers.NewTestObservation(event.ID, "pinnacle", 1.92, now.Add(-2*time.Hour)),
			helpers.NewTestObservation(event.ID, "pinnacle", 1.95, now.Add(-1*time.Hour)),
			helpers.NewTestObservation(event.ID, "draftkings", 2.00, now),
		}
		require.NoError(t, repos.Snapshots.InsertBatch(ctx, batch))

		last, err := repos.Snapshots.GetLatestOdds(ctx, batch[2])
		require.NoError(t, err)
		assert.Equal(t, 2.00, last)

		obs, err := repos.Snapshots.GetByEventIDs(ctx, []string{event.ID}, now.Add(-3*time.Hour))
		require.NoError(t, err)
		require.Len(t, obs, 3)
		assert.True(t, obs[0].Timestamp.Before(obs[1].Timestamp), "rows ordered ascending")

		live, err := repos.Snapshots.GetLiveSnapshots(ctx, []string{event.ID}, now.Add(-3*time.Hour))
		require.NoError(t, err)
		require.Contains(t, live, event.ID)
		assert.Equal(t, 1.95, live[event.ID]["pinnacle"], "latest quote per book wins")
		assert.Equal(t, 2.00, live[event.ID]["draftkings"])
	})

	t.Run("SettlementAndTraining", func(t *testing.T) {
		event := helpers.NewTestEvent("evt_it_3")
		event.CommenceTime = time.Now().UTC().Add(-3 * time.Hour)
		require.NoError(t, repos.Events.Upsert(ctx, event))

		record := &models.FeatureRecord{
			EventID:        event.ID,
			SportKey:       event.SportKey,
			MarketFamily:   "MAIN",
			Selection:      event.HomeTeam,
			Book:           "draftkings",
			Timestamp:      time.Now().UTC(),
			PImplied:       0.52,
			PFairConsensus: 0.55,
		}
		require.NoError(t, repos.Features.InsertBatch(ctx, []*models.FeatureRecord{record}))

		unsettled, err := repos.Events.GetUnsettled(ctx, event.SportKey)
		require.NoError(t, err)
		require.Len(t, unsettled, 1)

		event.Settle(110, 104)
		require.NoError(t, repos.Events.MarkSettled(ctx, event))

		rows, err := repos.Training.GetTrainingRows(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].Outcome, "home selection won")
		assert.InDelta(t, 0.55, rows[0].RawProb, 1e-9)
	})

	t.Run("BetLogRepository", func(t *testing.T) {
		event := helpers.NewTestEvent("evt_it_4")
		require.NoError(t, repos.Events.Upsert(ctx, event))

		log := models.NewBetLog(models.CandidateBet{
			EventID:   event.ID,
			Selection: event.HomeTeam,
			ModelProb: 0.55,
			Price:     2.05,
			EVPercent: 0.1275,
			Stake:     125.505,
		}, time.Now().UTC())
		require.NoError(t, repos.BetLogs.Insert(ctx, log))

		recent, err := repos.BetLogs.GetRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "125.51", recent[0].Stake.StringFixed(2))
	})
}
