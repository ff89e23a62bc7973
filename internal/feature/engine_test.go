package feature

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func obsAt(eventID string, odds float64, ts time.Time) *models.Observation {
	return &models.Observation{
		EventID:     eventID,
		SportKey:    "basketball_nba",
		MarketKey:   "h2h",
		Selection:   "Boston Celtics",
		Bookmaker:   "draftkings",
		OddsDecimal: odds,
		Timestamp:   ts,
	}
}

func TestProcessEmitsOneRecordPerValidObservation(t *testing.T) {
	engine := NewEngine(5, testLogger())
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	observations := []*models.Observation{
		obsAt("evt_1", 2.00, base),
		obsAt("evt_1", 1.95, base.Add(30*time.Minute)),
		obsAt("evt_2", 3.50, base.Add(time.Hour)),
	}

	records, stats, err := engine.Process(context.Background(), observations, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, observations[i].EventID, rec.EventID)
		assert.InDelta(t, observations[i].ImpliedProb(), rec.PImplied, 1e-9)
		assert.Equal(t, market.FamilyMain, rec.MarketFamily)
	}
}

func TestProcessSortsByTimestamp(t *testing.T) {
	engine := NewEngine(5, testLogger())
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	// Deliberately out of order.
	observations := []*models.Observation{
		obsAt("evt_1", 1.90, base.Add(2*time.Hour)),
		obsAt("evt_1", 2.00, base),
		obsAt("evt_1", 1.95, base.Add(time.Hour)),
	}

	records, _, err := engine.Process(context.Background(), observations, nil)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[0].Timestamp.Before(records[1].Timestamp))
	assert.True(t, records[1].Timestamp.Before(records[2].Timestamp))
}

func TestProcessSkipsInvalidRows(t *testing.T) {
	engine := NewEngine(5, testLogger())
	base := time.Now()

	observations := []*models.Observation{
		obsAt("evt_1", 2.00, base),
		obsAt("evt_1", 1.00, base.Add(time.Minute)), // odds at 1.0
		obsAt("evt_1", -2.0, base.Add(2*time.Minute)),
		obsAt("", 2.00, base.Add(3*time.Minute)), // missing identity
		obsAt("evt_1", 2.05, base.Add(4*time.Minute)),
	}

	records, stats, err := engine.Process(context.Background(), observations, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 3, stats.Skipped)
	assert.Len(t, records, 2)
}

func TestProcessVelocityUsesHistoryBeforePush(t *testing.T) {
	engine := NewEngine(5, testLogger())
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	observations := []*models.Observation{
		obsAt("evt_1", 1.0/0.50, base),
		obsAt("evt_1", 1.0/0.52, base.Add(time.Hour)),
		obsAt("evt_1", 1.0/0.55, base.Add(2*time.Hour)),
	}

	records, _, err := engine.Process(context.Background(), observations, nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// First two observations see fewer than two prior entries.
	assert.Equal(t, 0.0, records[0].Velocity)
	assert.Equal(t, 0.0, records[1].Velocity)
	// The third reads drift against the first, two hours earlier.
	assert.NotEqual(t, 0.0, records[2].Velocity)
}

func TestProcessBuffersPerInstrument(t *testing.T) {
	engine := NewEngine(5, testLogger())
	base := time.Now()

	var observations []*models.Observation
	for i := 0; i < 8; i++ {
		observations = append(observations, obsAt("evt_1", 2.00, base.Add(time.Duration(i)*time.Minute)))
	}
	observations = append(observations, obsAt("evt_2", 3.00, base))

	_, _, err := engine.Process(context.Background(), observations, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.TrackedInstruments())
}

func TestProcessDerivesFamilyAndPlayer(t *testing.T) {
	engine := NewEngine(5, testLogger())

	obs := &models.Observation{
		EventID:     "evt_1",
		SportKey:    "basketball_nba",
		MarketKey:   "player_points",
		Selection:   "Jayson Tatum Over 20.5",
		Bookmaker:   "draftkings",
		OddsDecimal: 1.90,
		Timestamp:   time.Now(),
	}

	records, _, err := engine.Process(context.Background(), []*models.Observation{obs}, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, market.FamilyProp, records[0].MarketFamily)

	// The caller's observation is never mutated.
	assert.Equal(t, market.Family(""), obs.MarketFamily)
	assert.Empty(t, obs.PlayerName)
}

func TestProcessUsesSnapshotContext(t *testing.T) {
	engine := NewEngine(5, testLogger())
	obs := obsAt("evt_1", 2.00, time.Now())

	pipelineCtx := &models.PipelineContext{
		LiveOdds: map[string]models.MarketSnapshot{
			"evt_1": {"pinnacle": 1.70},
		},
	}

	records, _, err := engine.Process(context.Background(), []*models.Observation{obs}, pipelineCtx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Greater(t, records[0].PFairConsensus, 0.5, "sharp quote pulls consensus above implied")
}

func TestProcessCancelledContext(t *testing.T) {
	engine := NewEngine(5, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := engine.Process(ctx, []*models.Observation{obsAt("evt_1", 2.0, time.Now())}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessEmptyBatch(t *testing.T) {
	engine := NewEngine(5, testLogger())

	records, stats, err := engine.Process(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, Stats{}, stats)
}
