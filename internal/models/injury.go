package models

// Injury status values recognised by the prop pricing plugin. Reports
// may carry other statuses; unknown values are treated as healthy.
const (
	StatusHealthy         = "Healthy"
	StatusQuestionable    = "Questionable"
	StatusDoubtful        = "Doubtful"
	StatusOut             = "Out"
	StatusLimitedPractice = "Limited Practice"
)

// Source reliability scores for injury reports.
const (
	ReliabilityOfficial = 1.0
	ReliabilityHigh     = 0.9
	ReliabilityMedium   = 0.7
)

// InjuryReport describes one player's availability as reported by an
// external source.
type InjuryReport struct {
	Status      string  `json:"status"`
	Reliability float64 `json:"reliability" validate:"gte=0,lte=1"`
	Source      string  `json:"source"`
}

// InjuryMap maps player name to their latest report for one event.
type InjuryMap map[string]InjuryReport

// MarketSnapshot maps bookmaker key to its current decimal odds for one
// event; used to build cross-book consensus without re-querying history.
type MarketSnapshot map[string]float64

// PipelineContext carries the externally supplied per-event context the
// feature engine hands to pricing plugins.
type PipelineContext struct {
	// LiveOdds maps event ID to that event's market snapshot.
	LiveOdds map[string]MarketSnapshot
	// Injuries maps event ID to that event's injury reports.
	Injuries map[string]InjuryMap
}

// SnapshotFor returns the market snapshot for an event, or an empty one.
func (c *PipelineContext) SnapshotFor(eventID string) MarketSnapshot {
	if c == nil || c.LiveOdds == nil {
		return MarketSnapshot{}
	}
	if snap, ok := c.LiveOdds[eventID]; ok {
		return snap
	}
	return MarketSnapshot{}
}

// InjuriesFor returns the injury map for an event, or an empty one.
func (c *PipelineContext) InjuriesFor(eventID string) InjuryMap {
	if c == nil || c.Injuries == nil {
		return InjuryMap{}
	}
	if inj, ok := c.Injuries[eventID]; ok {
		return inj
	}
	return InjuryMap{}
}
