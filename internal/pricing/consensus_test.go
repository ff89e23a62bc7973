package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/sharpline/internal/models"
)

func mainObs(book string, odds float64, ts time.Time) *models.Observation {
	return &models.Observation{
		EventID:     "evt_1",
		SportKey:    "basketball_nba",
		MarketKey:   "h2h",
		Selection:   "Boston Celtics",
		Bookmaker:   book,
		OddsDecimal: odds,
		Timestamp:   ts,
	}
}

func TestConsensusNoSnapshotNoHistory(t *testing.T) {
	plugin := NewConsensusPlugin(nil)
	obs := mainObs("draftkings", 2.00, time.Now())

	feats := plugin.CalculateFeatures(obs, nil, EventContext{})

	assert.InDelta(t, 0.50, feats.PFairConsensus, 1e-9)
	assert.Equal(t, 0.0, feats.Velocity)
	assert.InDelta(t, 0.50, feats.CLVProjected, 1e-9)
}

func TestConsensusBlendsTowardSharpBook(t *testing.T) {
	plugin := NewConsensusPlugin(nil)
	obs := mainObs("draftkings", 2.00, time.Now())

	// Pinnacle prices the same selection much shorter.
	snapshot := models.MarketSnapshot{"pinnacle": 1.70}
	feats := plugin.CalculateFeatures(obs, nil, EventContext{MarketSnapshot: snapshot})

	// Weighted blend: dk 0.6 at logit(0.5)=0, pinnacle 1.0 at logit(1/1.7).
	expected := Sigmoid((0.6*Logit(0.5) + 1.0*Logit(1.0/1.7)) / 1.6)
	assert.InDelta(t, expected, feats.PFairConsensus, 1e-9)
	assert.Greater(t, feats.PFairConsensus, 0.5, "sharp book pulls consensus above the execution quote")
}

func TestConsensusSkipsInvalidSnapshotQuotes(t *testing.T) {
	plugin := NewConsensusPlugin(nil)
	obs := mainObs("draftkings", 2.00, time.Now())

	snapshot := models.MarketSnapshot{
		"pinnacle":   0.0,  // dead quote
		"somebookie": 1.0,  // no-vig placeholder
		"draftkings": 1.90, // own book, must not double-count
	}
	feats := plugin.CalculateFeatures(obs, nil, EventContext{MarketSnapshot: snapshot})

	assert.InDelta(t, 0.50, feats.PFairConsensus, 1e-9)
}

func TestConsensusVelocityFromHistory(t *testing.T) {
	plugin := NewConsensusPlugin(nil)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	// Implied 0.50 an hour ago, 0.52 in between, now 0.55. Velocity
	// reads against the second-most-recent entry.
	history := []*models.Observation{
		mainObs("draftkings", 1.0/0.50, base.Add(-time.Hour)),
		mainObs("draftkings", 1.0/0.52, base.Add(-30*time.Minute)),
	}
	obs := mainObs("draftkings", 1.0/0.55, base)

	feats := plugin.CalculateFeatures(obs, history, EventContext{})

	expected := Logit(0.55) - Logit(0.50) // one hour apart
	assert.InDelta(t, expected, feats.Velocity, 1e-9)
	assert.InDelta(t, 0.2007, feats.Velocity, 1e-3)

	// CLV projects the blended logit one hour ahead at that velocity.
	assert.InDelta(t, Sigmoid(Logit(0.55)+expected), feats.CLVProjected, 1e-9)
}

func TestConsensusVelocityDegradesWithThinHistory(t *testing.T) {
	plugin := NewConsensusPlugin(nil)
	now := time.Now()

	single := []*models.Observation{mainObs("draftkings", 2.00, now.Add(-time.Hour))}
	feats := plugin.CalculateFeatures(mainObs("draftkings", 1.90, now), single, EventContext{})
	assert.Equal(t, 0.0, feats.Velocity, "one prior observation is not a trend")
}

func TestConsensusVelocityZeroTimeDelta(t *testing.T) {
	plugin := NewConsensusPlugin(nil)
	now := time.Now()

	history := []*models.Observation{
		mainObs("draftkings", 2.00, now),
		mainObs("draftkings", 1.95, now),
	}
	feats := plugin.CalculateFeatures(mainObs("draftkings", 1.90, now), history, EventContext{})
	assert.Equal(t, 0.0, feats.Velocity)
}

func TestConsensusProbabilityBounds(t *testing.T) {
	plugin := NewConsensusPlugin(nil)
	obs := mainObs("draftkings", 1.01, time.Now())

	snapshot := models.MarketSnapshot{"pinnacle": 1.01, "fanduel": 500.0}
	feats := plugin.CalculateFeatures(obs, nil, EventContext{MarketSnapshot: snapshot})

	require.GreaterOrEqual(t, feats.PFairConsensus, 0.0)
	require.LessOrEqual(t, feats.PFairConsensus, 1.0)
	require.GreaterOrEqual(t, feats.CLVProjected, 0.0)
	require.LessOrEqual(t, feats.CLVProjected, 1.0)
}

func TestSharpnessWeights(t *testing.T) {
	s := DefaultSharpness()
	assert.Equal(t, 1.0, s.Weight("pinnacle"))
	assert.Equal(t, 0.9, s.Weight("circa"))
	assert.Equal(t, 0.6, s.Weight("draftkings"))
	assert.Equal(t, 0.5, s.Weight("unknown_book"))
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, "main_market_consensus", reg.ForFamily("MAIN").Name())
	assert.Equal(t, "main_market_consensus", reg.ForFamily("PERIOD").Name())
	assert.Equal(t, "main_market_consensus", reg.ForFamily("FUTURE").Name())
	assert.Equal(t, "prop_bayesian_availability", reg.ForFamily("PROP").Name())
	assert.Equal(t, "main_market_consensus", reg.ForFamily("nonsense").Name(), "unknown family falls back to main")
}
