package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsapi"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testAPIClient(host string) *oddsapi.Client {
	return oddsapi.NewClient(oddsapi.ClientConfig{
		Host:         host,
		APIKey:       "test-key",
		Regions:      []string{"us"},
		Markets:      []string{"h2h"},
		Timeout:      2 * time.Second,
		MaxRetries:   0,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
		RateLimit:    1000,
	}, testLogger())
}

func oddsPayload() []oddsapi.EventOdds {
	return []oddsapi.EventOdds{
		{
			ID:           "evt_1",
			SportKey:     "basketball_nba",
			CommenceTime: time.Now().Add(3 * time.Hour).UTC(),
			HomeTeam:     "Boston Celtics",
			AwayTeam:     "Denver Nuggets",
			Bookmakers: []oddsapi.Bookmaker{
				{
					Key: "pinnacle",
					Markets: []oddsapi.Market{
						{
							Key: "h2h",
							Outcomes: []oddsapi.Outcome{
								{Name: "Boston Celtics", Price: 1.85},
								{Name: "Denver Nuggets", Price: 2.05},
							},
						},
					},
				},
				{
					Key: "bovada",
					Markets: []oddsapi.Market{
						{
							Key: "h2h",
							Outcomes: []oddsapi.Outcome{
								{Name: "Boston Celtics", Price: 1.90},
							},
						},
					},
				},
			},
		},
	}
}

func TestIngestSport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/basketball_nba/odds", r.URL.Path)
		json.NewEncoder(w).Encode(oddsPayload())
	}))
	defer srv.Close()

	events := &fakeEventRepo{}
	snapshots := newFakeSnapshotRepo()
	svc := NewIngestionService(testAPIClient(srv.URL), events, snapshots,
		[]string{"pinnacle", "draftkings"}, testLogger())

	stats, err := svc.IngestSport(context.Background(), "basketball_nba")
	require.NoError(t, err)

	require.Len(t, events.upserted, 1)
	assert.Equal(t, "evt_1", events.upserted[0].ID)

	// Only the two pinnacle quotes survive the bookmaker filter.
	require.Len(t, snapshots.inserted, 2)
	for _, obs := range snapshots.inserted {
		assert.Equal(t, "pinnacle", obs.Bookmaker)
		assert.Equal(t, "h2h", obs.MarketKey)
	}
	assert.Equal(t, 1, stats.Events)
	assert.Equal(t, 2, stats.Snapshots)
}

func TestIngestSportKeepsAllBooksWithoutFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(oddsPayload())
	}))
	defer srv.Close()

	events := &fakeEventRepo{}
	snapshots := newFakeSnapshotRepo()
	svc := NewIngestionService(testAPIClient(srv.URL), events, snapshots, nil, testLogger())

	_, err := svc.IngestSport(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Len(t, snapshots.inserted, 3)
}

func TestIngestSportDropsUnchangedQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(oddsPayload())
	}))
	defer srv.Close()

	events := &fakeEventRepo{}
	snapshots := newFakeSnapshotRepo()
	snapshots.seed(&models.Observation{
		EventID:     "evt_1",
		MarketKey:   "h2h",
		Selection:   "Boston Celtics",
		Bookmaker:   "pinnacle",
		OddsDecimal: 1.85,
	})
	svc := NewIngestionService(testAPIClient(srv.URL), events, snapshots,
		[]string{"pinnacle"}, testLogger())

	stats, err := svc.IngestSport(context.Background(), "basketball_nba")
	require.NoError(t, err)

	// The unchanged Celtics quote is deduped; the Nuggets quote is new.
	require.Len(t, snapshots.inserted, 1)
	assert.Equal(t, "Denver Nuggets", snapshots.inserted[0].Selection)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestIngestSportKeepsMovedQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(oddsPayload())
	}))
	defer srv.Close()

	events := &fakeEventRepo{}
	snapshots := newFakeSnapshotRepo()
	snapshots.seed(&models.Observation{
		EventID:     "evt_1",
		MarketKey:   "h2h",
		Selection:   "Boston Celtics",
		Bookmaker:   "pinnacle",
		OddsDecimal: 1.80, // price has since moved to 1.85
	})
	svc := NewIngestionService(testAPIClient(srv.URL), events, snapshots,
		[]string{"pinnacle"}, testLogger())

	stats, err := svc.IngestSport(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Len(t, snapshots.inserted, 2)
	assert.Equal(t, 0, stats.Duplicates)
}

func TestIngestSportSkipsInvalidQuotes(t *testing.T) {
	payload := oddsPayload()
	payload[0].Bookmakers[0].Markets[0].Outcomes[0].Price = 1.0 // dead quote
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	events := &fakeEventRepo{}
	snapshots := newFakeSnapshotRepo()
	svc := NewIngestionService(testAPIClient(srv.URL), events, snapshots,
		[]string{"pinnacle"}, testLogger())

	stats, err := svc.IngestSport(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Len(t, snapshots.inserted, 1)
	assert.Equal(t, 1, stats.Invalid)
}

func TestIngestAllToleratesPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v4/sports/basketball_nba/odds" {
			json.NewEncoder(w).Encode(oddsPayload())
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewIngestionService(testAPIClient(srv.URL), &fakeEventRepo{}, newFakeSnapshotRepo(),
		nil, testLogger())

	err := svc.IngestAll(context.Background(), []string{"basketball_nba", "cricket_ipl"})
	assert.NoError(t, err, "one healthy sport keeps the cycle alive")
}

func TestIngestAllFailsWhenEverySportFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewIngestionService(testAPIClient(srv.URL), &fakeEventRepo{}, newFakeSnapshotRepo(),
		nil, testLogger())

	err := svc.IngestAll(context.Background(), []string{"basketball_nba", "icehockey_nhl"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 sports failed")
}
