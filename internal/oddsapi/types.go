package oddsapi

import "time"

// EventOdds is one event's odds payload from the /odds endpoint.
type EventOdds struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's quotes for an event.
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Market is one priced market from a bookmaker.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one selection's price, with an optional handicap point for
// spreads and totals.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

// HistoricalOdds is the /odds-history response: the stored snapshot the
// API resolved for the requested moment, with cursors to the adjacent
// snapshots for walking the archive.
type HistoricalOdds struct {
	Timestamp         time.Time   `json:"timestamp"`
	PreviousTimestamp *time.Time  `json:"previous_timestamp"`
	NextTimestamp     *time.Time  `json:"next_timestamp"`
	Data              []EventOdds `json:"data"`
}

// ScoreResult is one event's entry from the /scores endpoint.
type ScoreResult struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Completed    bool        `json:"completed"`
	Scores       []TeamScore `json:"scores"`
}

// TeamScore is a team's final score. The API serialises scores as
// strings.
type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}
