package pricing

import (
	"github.com/yourusername/sharpline/internal/models"
)

// Sharpness weights how much each bookmaker's quote contributes to the
// consensus. Sharp books that move lines first carry more weight than
// recreational execution venues.
type Sharpness map[string]float64

// defaultSharpnessWeight applies to books absent from the table.
const defaultSharpnessWeight = 0.5

// DefaultSharpness returns the static weight table. In production these
// would be learned from historical closing-line accuracy.
func DefaultSharpness() Sharpness {
	return Sharpness{
		"pinnacle":    1.0,
		"circa":       0.9,
		"betonlineag": 0.8,
		"draftkings":  0.6,
		"fanduel":     0.6,
		"mgm":         0.5,
	}
}

// Weight returns the sharpness weight for a bookmaker.
func (s Sharpness) Weight(bookmaker string) float64 {
	if w, ok := s[bookmaker]; ok {
		return w
	}
	return defaultSharpnessWeight
}

// ConsensusPlugin estimates a fair probability for main, period and
// futures markets by blending cross-book quotes in logit space, weighted
// by book sharpness, and projects a 1-hour-ahead price from the
// instrument's recent logit velocity.
type ConsensusPlugin struct {
	sharpness Sharpness
}

// NewConsensusPlugin creates a consensus plugin using the given weights.
func NewConsensusPlugin(sharpness Sharpness) *ConsensusPlugin {
	if sharpness == nil {
		sharpness = DefaultSharpness()
	}
	return &ConsensusPlugin{sharpness: sharpness}
}

// Name returns the plugin identifier.
func (p *ConsensusPlugin) Name() string {
	return "main_market_consensus"
}

// CalculateFeatures blends the execution book's quote with every other
// book in the snapshot. Books quoting odds at or below 1.0 are skipped
// as invalid; with no usable snapshot the estimate reduces to the
// execution book's own implied probability.
func (p *ConsensusPlugin) CalculateFeatures(obs *models.Observation, history []*models.Observation, evtCtx EventContext) Features {
	weightedLogitSum := 0.0
	totalWeight := 0.0

	execWeight := p.sharpness.Weight(obs.Bookmaker)
	weightedLogitSum += execWeight * Logit(obs.ImpliedProb())
	totalWeight += execWeight

	for book, odds := range evtCtx.MarketSnapshot {
		if book == obs.Bookmaker {
			continue
		}
		if odds <= 1.0 {
			continue
		}
		w := p.sharpness.Weight(book)
		weightedLogitSum += w * Logit(1.0/odds)
		totalWeight += w
	}

	avgLogit := Logit(obs.ImpliedProb())
	if totalWeight > 0 {
		avgLogit = weightedLogitSum / totalWeight
	}

	velocity := logitVelocity(obs, history)

	return Features{
		PFairConsensus:     Sigmoid(avgLogit),
		Velocity:           velocity,
		CLVProjected:       Sigmoid(avgLogit + velocity*1.0),
		PlayerAvailability: 1.0,
		ContextUncertainty: 0.0,
	}
}

// logitVelocity measures price drift in logit units per hour between the
// current observation and the second-most-recent buffered one. Fewer
// than two prior observations degrades to zero rather than failing.
func logitVelocity(obs *models.Observation, history []*models.Observation) float64 {
	if len(history) < 2 {
		return 0
	}
	prior := history[len(history)-2]
	hours := obs.Timestamp.Sub(prior.Timestamp).Hours()
	if hours <= 0 {
		return 0
	}
	return (Logit(obs.ImpliedProb()) - Logit(prior.ImpliedProb())) / hours
}
