package pricing

import (
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/models"
)

// Features is the output of one plugin invocation for one observation.
type Features struct {
	// PFairConsensus is the plugin's fair-probability estimate.
	PFairConsensus float64
	// Velocity is the price drift in logit units per hour.
	Velocity float64
	// CLVProjected is a 1-hour-ahead projection of the fair probability.
	CLVProjected float64
	// PlayerAvailability is the probability the priced player plays.
	PlayerAvailability float64
	// ContextUncertainty penalises edges built on unstable context.
	ContextUncertainty float64
}

// EventContext is the event-scoped slice of external context a plugin
// sees: the live cross-book snapshot and the injury report for the
// observation's event only.
type EventContext struct {
	MarketSnapshot models.MarketSnapshot
	Injuries       models.InjuryMap
}

// Plugin converts one observation plus its instrument history and event
// context into pricing features. History holds prior observations only,
// oldest first; the current observation is never in it.
type Plugin interface {
	Name() string
	CalculateFeatures(obs *models.Observation, history []*models.Observation, evtCtx EventContext) Features
}

// Registry dispatches observations to the plugin for their market
// family. The family set is closed, so the registry is total: every
// family resolves to a plugin.
type Registry struct {
	plugins map[market.Family]Plugin
}

// NewRegistry builds the default dispatch table. PERIOD and FUTURE
// markets share the consensus plugin but remain distinct entries so a
// dedicated plugin can replace either without touching dispatch.
func NewRegistry() *Registry {
	consensus := NewConsensusPlugin(DefaultSharpness())
	return &Registry{
		plugins: map[market.Family]Plugin{
			market.FamilyMain:   consensus,
			market.FamilyPeriod: consensus,
			market.FamilyFuture: consensus,
			market.FamilyProp:   NewPropPlugin(),
		},
	}
}

// ForFamily returns the plugin registered for a family, falling back to
// the main-market plugin for unrecognised values.
func (r *Registry) ForFamily(family market.Family) Plugin {
	if p, ok := r.plugins[family]; ok {
		return p
	}
	return r.plugins[market.FamilyMain]
}
