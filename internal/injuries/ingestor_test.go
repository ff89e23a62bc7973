package injuries

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/sharpline/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func nbaEvent(id string) *models.Event {
	return &models.Event{
		ID:           id,
		SportKey:     "basketball_nba",
		CommenceTime: time.Now().Add(2 * time.Hour),
		HomeTeam:     "Boston Celtics",
		AwayTeam:     "Los Angeles Lakers",
	}
}

func TestNormalizeTeam(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Los Angeles Lakers", "lakers"},
		{"Boston Celtics", "celtics"},
		{"St. Louis Blues", "blues"},
		{"Celtics", "celtics"},
		{"BOSTON CELTICS", "celtics"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeTeam(tt.in), tt.in)
	}
}

func TestFetchAllMatchesReportsToEvents(t *testing.T) {
	feed := []feedEntry{
		{Team: "Celtics", Player: "Jayson Tatum", Status: models.StatusQuestionable},
		{Team: "LA Lakers", Player: "LeBron James", Status: models.StatusDoubtful},
		{Team: "Warriors", Player: "Stephen Curry", Status: models.StatusOut}, // no matching event
		{Team: "Celtics", Player: "", Status: models.StatusOut},               // unusable row
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(feed)
	}))
	defer srv.Close()

	sources := []Source{{Name: "nba_official", SportPrefix: "basketball", URL: srv.URL, Reliability: 1.0}}
	ing := NewIngestor(sources, srv.Client(), time.Minute, testLogger())

	reports := ing.FetchAll(context.Background(), []*models.Event{nbaEvent("evt_1")})

	require.Contains(t, reports, "evt_1")
	require.Len(t, reports["evt_1"], 2)

	tatum := reports["evt_1"]["Jayson Tatum"]
	assert.Equal(t, models.StatusQuestionable, tatum.Status)
	assert.Equal(t, 1.0, tatum.Reliability)
	assert.Equal(t, "nba_official", tatum.Source)

	lebron := reports["evt_1"]["LeBron James"]
	assert.Equal(t, models.StatusDoubtful, lebron.Status)
}

func TestFetchAllSkipsSourcesWithoutEvents(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]feedEntry{})
	}))
	defer srv.Close()

	sources := []Source{
		{Name: "nba_official", SportPrefix: "basketball", URL: srv.URL, Reliability: 1.0},
		{Name: "nfl_official", SportPrefix: "americanfootball", URL: srv.URL, Reliability: 1.0},
	}
	ing := NewIngestor(sources, srv.Client(), time.Minute, testLogger())

	ing.FetchAll(context.Background(), []*models.Event{nbaEvent("evt_1")})
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "football feed skipped without football events")
}

func TestFetchAllFailingSourceDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sources := []Source{{Name: "nba_official", SportPrefix: "basketball", URL: srv.URL, Reliability: 1.0}}
	ing := NewIngestor(sources, srv.Client(), time.Minute, testLogger())

	reports := ing.FetchAll(context.Background(), []*models.Event{nbaEvent("evt_1")})
	assert.Empty(t, reports, "failed feed contributes nothing, never errors")
}

func TestFetchSourceCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]feedEntry{{Team: "Celtics", Player: "Jayson Tatum", Status: models.StatusOut}})
	}))
	defer srv.Close()

	sources := []Source{{Name: "nba_official", SportPrefix: "basketball", URL: srv.URL, Reliability: 1.0}}
	ing := NewIngestor(sources, srv.Client(), time.Minute, testLogger())

	events := []*models.Event{nbaEvent("evt_1")}
	ing.FetchAll(context.Background(), events)
	ing.FetchAll(context.Background(), events)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second cycle served from cache")
}

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()
	require.NotEmpty(t, sources)
	for _, src := range sources {
		assert.NotEmpty(t, src.Name)
		assert.NotEmpty(t, src.SportPrefix)
		assert.GreaterOrEqual(t, src.Reliability, 0.0)
		assert.LessOrEqual(t, src.Reliability, 1.0)
	}
}
