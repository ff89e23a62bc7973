package models

import "time"

// Event represents a sporting event tracked by the pipeline.
type Event struct {
	ID           string    `db:"id" json:"id" validate:"required"`
	SportKey     string    `db:"sport_key" json:"sport_key" validate:"required"`
	CommenceTime time.Time `db:"commence_time" json:"commence_time" validate:"required"`
	HomeTeam     string    `db:"home_team" json:"home_team"`
	AwayTeam     string    `db:"away_team" json:"away_team"`

	// Settlement fields, populated once the event completes.
	Completed bool    `db:"completed" json:"completed"`
	Winner    *string `db:"winner" json:"winner"`
	HomeScore *int    `db:"home_score" json:"home_score"`
	AwayScore *int    `db:"away_score" json:"away_score"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WinnerSide values written by the settlement service.
const (
	WinnerHome = "Home"
	WinnerAway = "Away"
)

// Settle records final scores and derives the winner.
func (e *Event) Settle(homeScore, awayScore int) {
	e.HomeScore = &homeScore
	e.AwayScore = &awayScore
	e.Completed = true
	winner := WinnerAway
	if homeScore > awayScore {
		winner = WinnerHome
	}
	e.Winner = &winner
}

// IsUpcoming reports whether the event starts within the given window.
func (e *Event) IsUpcoming(now time.Time, lookahead time.Duration) bool {
	return !e.CommenceTime.Before(now) && e.CommenceTime.Before(now.Add(lookahead))
}
