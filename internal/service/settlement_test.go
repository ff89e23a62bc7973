package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsapi"
)

func scoreResult(id string, completed bool, homeScore, awayScore string) oddsapi.ScoreResult {
	result := oddsapi.ScoreResult{
		ID:        id,
		SportKey:  "basketball_nba",
		HomeTeam:  "Boston Celtics",
		AwayTeam:  "Denver Nuggets",
		Completed: completed,
	}
	if homeScore != "" {
		result.Scores = append(result.Scores, oddsapi.TeamScore{Name: "Boston Celtics", Score: homeScore})
	}
	if awayScore != "" {
		result.Scores = append(result.Scores, oddsapi.TeamScore{Name: "Denver Nuggets", Score: awayScore})
	}
	return result
}

func unsettledEvent(id string) *models.Event {
	return &models.Event{
		ID:           id,
		SportKey:     "basketball_nba",
		CommenceTime: time.Now().Add(-4 * time.Hour),
		HomeTeam:     "Boston Celtics",
		AwayTeam:     "Denver Nuggets",
	}
}

func TestExtractScores(t *testing.T) {
	tests := []struct {
		name         string
		result       oddsapi.ScoreResult
		expectedHome int
		expectedAway int
		expectedOK   bool
	}{
		{"both sides present", scoreResult("e1", true, "110", "104"), 110, 104, true},
		{"away missing", scoreResult("e1", true, "110", ""), 0, 0, false},
		{"home missing", scoreResult("e1", true, "", "104"), 0, 0, false},
		{"non numeric score", scoreResult("e1", true, "110", "n/a"), 0, 0, false},
		{"no scores at all", scoreResult("e1", true, "", ""), 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home, away, ok := extractScores(tt.result)
			assert.Equal(t, tt.expectedOK, ok)
			if tt.expectedOK {
				assert.Equal(t, tt.expectedHome, home)
				assert.Equal(t, tt.expectedAway, away)
			}
		})
	}
}

func TestSettleSport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/basketball_nba/scores", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("daysFrom"))
		json.NewEncoder(w).Encode([]oddsapi.ScoreResult{
			scoreResult("evt_1", true, "110", "104"),
			scoreResult("evt_2", false, "", ""),
		})
	}))
	defer srv.Close()

	events := &fakeEventRepo{unsettled: []*models.Event{
		unsettledEvent("evt_1"),
		unsettledEvent("evt_2"),
		unsettledEvent("evt_3"), // not in the scores payload
	}}
	svc := NewSettlementService(testAPIClient(srv.URL), events, 3, testLogger())

	settled, err := svc.SettleSport(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	require.Len(t, events.settled, 1)
	winner := events.settled[0]
	assert.Equal(t, "evt_1", winner.ID)
	assert.True(t, winner.Completed)
	require.NotNil(t, winner.Winner)
	assert.Equal(t, models.WinnerHome, *winner.Winner)
	assert.Equal(t, 110, *winner.HomeScore)
	assert.Equal(t, 104, *winner.AwayScore)
}

func TestSettleSportSkipsUnusableScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]oddsapi.ScoreResult{
			scoreResult("evt_1", true, "110", ""),
		})
	}))
	defer srv.Close()

	events := &fakeEventRepo{unsettled: []*models.Event{unsettledEvent("evt_1")}}
	svc := NewSettlementService(testAPIClient(srv.URL), events, 3, testLogger())

	settled, err := svc.SettleSport(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Zero(t, settled)
	assert.Empty(t, events.settled, "event stays unsettled for the next cycle")
}

func TestSettleSportNoUnsettledEvents(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]oddsapi.ScoreResult{})
	}))
	defer srv.Close()

	svc := NewSettlementService(testAPIClient(srv.URL), &fakeEventRepo{}, 3, testLogger())

	settled, err := svc.SettleSport(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Zero(t, settled)
	assert.Zero(t, calls, "no API call without unsettled events")
}

func TestNewSettlementServiceClampsDaysBack(t *testing.T) {
	svc := NewSettlementService(nil, &fakeEventRepo{}, 10, testLogger())
	assert.Equal(t, 3, svc.daysBack)

	svc = NewSettlementService(nil, &fakeEventRepo{}, 0, testLogger())
	assert.Equal(t, 1, svc.daysBack)
}
