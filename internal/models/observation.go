package models

import (
	"time"

	"github.com/yourusername/sharpline/internal/market"
)

// Observation represents a single priced odds update from one bookmaker
// for one selection. It is immutable once constructed; the pipeline never
// mutates an observation after ingestion.
type Observation struct {
	EventID      string        `db:"event_id" json:"event_id" validate:"required"`
	SportKey     string        `db:"sport_key" json:"sport_key"`
	MarketKey    string        `db:"market_key" json:"market_key" validate:"required"`
	MarketFamily market.Family `db:"market_family" json:"market_family"`
	Selection    string        `db:"selection" json:"selection" validate:"required"`
	Handicap     *float64      `db:"handicap" json:"handicap"`
	Bookmaker    string        `db:"bookmaker" json:"bookmaker" validate:"required"`
	OddsDecimal  float64       `db:"odds_decimal" json:"odds_decimal" validate:"required,gt=1"`
	Timestamp    time.Time     `db:"timestamp" json:"timestamp" validate:"required"`
	IsPlayerProp bool          `db:"is_player_prop" json:"is_player_prop"`
	PlayerName   string        `db:"player_name" json:"player_name"`
}

// ImpliedProb returns the probability implied by the decimal odds.
func (o *Observation) ImpliedProb() float64 {
	if o.OddsDecimal <= 0 {
		return 0
	}
	return 1.0 / o.OddsDecimal
}

// IsValid reports whether the observation carries a usable price.
// Odds at or below 1.0 imply a probability of 1 or more and are rejected.
func (o *Observation) IsValid() bool {
	return o.OddsDecimal > 1.0 && o.EventID != "" && o.Selection != ""
}

// Instrument returns the temporal-continuity key for this observation.
func (o *Observation) Instrument() market.InstrumentKey {
	return market.NewInstrumentKey(o.EventID, o.MarketKey, o.Selection, o.Handicap)
}
