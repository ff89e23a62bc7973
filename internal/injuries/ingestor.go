// Package injuries fetches player injury reports and maps them onto
// upcoming events so the prop pricing plugin can discount availability
// risk. Report failures degrade to an empty map; a missing report is
// never a reason to abort a pipeline cycle.
package injuries

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/models"
)

// Source describes one injury feed: which sport it covers, where to
// fetch it and how much its statuses are trusted.
type Source struct {
	Name        string  `mapstructure:"name"`
	SportPrefix string  `mapstructure:"sport_prefix"` // "basketball", "americanfootball", ...
	URL         string  `mapstructure:"url"`
	Reliability float64 `mapstructure:"reliability"`
}

// DefaultSources returns the built-in feeds with their trust levels.
// Official league reports outrank aggregator sites.
func DefaultSources() []Source {
	return []Source{
		{Name: "nba_official", SportPrefix: "basketball", URL: "https://api.sharpline.dev/injuries/nba", Reliability: models.ReliabilityOfficial},
		{Name: "nfl_official", SportPrefix: "americanfootball", URL: "https://api.sharpline.dev/injuries/nfl", Reliability: models.ReliabilityOfficial},
		{Name: "nhl_espn", SportPrefix: "icehockey", URL: "https://api.sharpline.dev/injuries/nhl", Reliability: models.ReliabilityHigh},
		{Name: "ncaaf_covers", SportPrefix: "americanfootball", URL: "https://api.sharpline.dev/injuries/ncaaf", Reliability: models.ReliabilityMedium},
	}
}

// feedEntry is one row of a normalized injury feed.
type feedEntry struct {
	Team   string `json:"team"`
	Player string `json:"player"`
	Status string `json:"status"`
}

// HTTPDoer executes HTTP requests. Satisfied by *http.Client and the
// rate-limited clients used elsewhere.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Ingestor fetches injury feeds and consolidates them per event.
type Ingestor struct {
	sources []Source
	client  HTTPDoer
	cache   *cache.Cache
	logger  *logrus.Logger
}

// NewIngestor creates an injury ingestor. Feeds are cached for ttl so
// repeated cycles inside one process do not refetch them.
func NewIngestor(sources []Source, client HTTPDoer, ttl time.Duration, logger *logrus.Logger) *Ingestor {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Ingestor{
		sources: sources,
		client:  client,
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

// FetchAll returns injury reports keyed by event ID for the given
// events. Sources whose sport has no upcoming event are skipped; a
// failing source is logged and contributes nothing.
func (in *Ingestor) FetchAll(ctx context.Context, events []*models.Event) map[string]models.InjuryMap {
	// Map (sport prefix, normalized team) onto event IDs so feed rows
	// can be matched without exact name agreement across sources.
	teamMap := make(map[teamKey]string)
	prefixes := make(map[string]bool)
	for _, e := range events {
		prefix := sportPrefix(e.SportKey)
		prefixes[prefix] = true
		teamMap[teamKey{prefix, NormalizeTeam(e.HomeTeam)}] = e.ID
		teamMap[teamKey{prefix, NormalizeTeam(e.AwayTeam)}] = e.ID
	}

	out := make(map[string]models.InjuryMap)
	for _, src := range in.sources {
		if !prefixes[src.SportPrefix] {
			continue
		}
		entries, err := in.fetchSource(ctx, src)
		if err != nil {
			in.logger.WithError(err).WithField("source", src.Name).Error("Injury fetch failed")
			continue
		}
		matched := 0
		for _, entry := range entries {
			eventID, ok := teamMap[teamKey{src.SportPrefix, NormalizeTeam(entry.Team)}]
			if !ok || entry.Player == "" {
				continue
			}
			if out[eventID] == nil {
				out[eventID] = models.InjuryMap{}
			}
			out[eventID][entry.Player] = models.InjuryReport{
				Status:      entry.Status,
				Reliability: src.Reliability,
				Source:      src.Name,
			}
			matched++
		}
		in.logger.WithFields(logrus.Fields{
			"source":  src.Name,
			"entries": len(entries),
			"matched": matched,
		}).Info("Injury report processed")
	}
	return out
}

func (in *Ingestor) fetchSource(ctx context.Context, src Source) ([]feedEntry, error) {
	if cached, ok := in.cache.Get(src.Name); ok {
		return cached.([]feedEntry), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := in.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("source %s returned %d", src.Name, resp.StatusCode)
	}

	var entries []feedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	in.cache.SetDefault(src.Name, entries)
	return entries, nil
}

type teamKey struct {
	prefix string
	team   string
}

// NormalizeTeam reduces a team name to its lowercase nickname for fuzzy
// matching across sources: "Los Angeles Lakers" becomes "lakers".
func NormalizeTeam(name string) string {
	t := strings.ToLower(strings.ReplaceAll(name, ".", ""))
	parts := strings.Fields(t)
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return t
}

// sportPrefix extracts the discipline from a sport key:
// "basketball_nba" becomes "basketball".
func sportPrefix(sportKey string) string {
	if idx := strings.Index(sportKey, "_"); idx > 0 {
		return sportKey[:idx]
	}
	return sportKey
}
