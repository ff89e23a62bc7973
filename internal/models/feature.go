package models

import (
	"time"

	"github.com/yourusername/sharpline/internal/market"
)

// FeatureRecord is the feature engine's output: one row per processed
// observation, append-only, never mutated after emission.
type FeatureRecord struct {
	EventID            string        `db:"event_id" json:"event_id"`
	SportKey           string        `db:"sport_key" json:"sport_key"`
	MarketFamily       market.Family `db:"market_family" json:"market_family"`
	Selection          string        `db:"selection" json:"selection"`
	Book               string        `db:"book" json:"book"`
	Timestamp          time.Time     `db:"timestamp" json:"timestamp"`
	PImplied           float64       `db:"p_implied" json:"p_implied"`
	PFairConsensus     float64       `db:"p_fair_consensus" json:"p_fair_consensus"`
	Velocity           float64       `db:"velocity" json:"velocity"`
	CLVProjected       float64       `db:"clv_projected" json:"clv_projected"`
	ContextUncertainty float64       `db:"context_uncertainty" json:"context_uncertainty"`
}

// TrainingRow is one calibrator training example: a raw fair probability
// paired with the realized outcome of its selection.
type TrainingRow struct {
	SportKey     string        `db:"sport_key" json:"sport_key"`
	MarketFamily market.Family `db:"market_family" json:"market_family"`
	RawProb      float64       `db:"raw_prob" json:"raw_prob"`
	Outcome      int           `db:"outcome" json:"outcome" validate:"oneof=0 1"`
}
