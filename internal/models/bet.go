package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is one priced opportunity handed to the decision engine:
// a calibrated model probability against an execution-book price, plus
// the plugin-derived drift and uncertainty signals the gates consume.
type Candidate struct {
	EventID            string  `json:"event_id"`
	Selection          string  `json:"selection"`
	ModelProb          float64 `json:"model_prob" validate:"gte=0,lte=1"`
	Price              float64 `json:"price" validate:"gt=1"`
	PImplied           float64 `json:"p_implied"`
	Velocity           float64 `json:"velocity"`
	CLVProjected       float64 `json:"clv_projected"`
	ContextUncertainty float64 `json:"context_uncertainty"`
}

// CandidateBet is a qualifying candidate with its computed edge and
// sized stake. Created by the decision engine, never mutated; the caller
// persists it as a bet log row.
type CandidateBet struct {
	EventID   string  `json:"event_id"`
	Selection string  `json:"selection"`
	ModelProb float64 `json:"model_prob"`
	Price     float64 `json:"price"`
	EVPercent float64 `json:"ev_percent"`
	Stake     float64 `json:"stake"`
}

// BetLog is the persisted record of a recommended bet.
type BetLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Timestamp  time.Time       `db:"timestamp" json:"timestamp"`
	EventID    string          `db:"event_id" json:"event_id" validate:"required"`
	Selection  string          `db:"selection" json:"selection" validate:"required"`
	PriceTaken float64         `db:"price_taken" json:"price_taken" validate:"gt=1"`
	Stake      decimal.Decimal `db:"stake" json:"stake"`
	ModelProb  float64         `db:"model_prob" json:"model_prob"`
	EVPerUnit  float64         `db:"ev_per_unit" json:"ev_per_unit"`
	Result     *string         `db:"result" json:"result"`
	PnL        *float64        `db:"pnl" json:"pnl"`
}

// NewBetLog builds a bet log row from a sized candidate bet. Stakes are
// recorded as exact decimals; float cents do not round-trip cleanly.
func NewBetLog(bet CandidateBet, now time.Time) *BetLog {
	return &BetLog{
		ID:         uuid.New(),
		Timestamp:  now,
		EventID:    bet.EventID,
		Selection:  bet.Selection,
		PriceTaken: bet.Price,
		Stake:      decimal.NewFromFloat(bet.Stake).Round(2),
		ModelProb:  bet.ModelProb,
		EVPerUnit:  bet.EVPercent,
	}
}
