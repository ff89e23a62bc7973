package decision

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// Default risk parameters, overridable through Config.
const (
	DefaultKellyFraction        = 0.25
	DefaultMaxDailyStakePercent = 0.05
	// uncertaintyPenaltyCutoff is the context-uncertainty level above
	// which a much larger edge is demanded.
	uncertaintyPenaltyCutoff = 0.5
	// uncertainEdgeFloor is the minimum EV required when uncertainty
	// exceeds the cutoff.
	uncertainEdgeFloor = 0.10
)

// Config holds the decision engine's risk parameters.
type Config struct {
	Bankroll             float64
	KellyFraction        float64
	MaxDailyStakePercent float64
}

// Engine applies the gate-and-size pipeline to scored candidates.
type Engine struct {
	bankroll      float64
	kellyFraction float64
	maxStake      float64
	logger        *logrus.Logger
}

// NewEngine creates a decision engine. Zero-valued config fields take
// the package defaults.
func NewEngine(cfg Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	kelly := cfg.KellyFraction
	if kelly <= 0 {
		kelly = DefaultKellyFraction
	}
	maxPct := cfg.MaxDailyStakePercent
	if maxPct <= 0 {
		maxPct = DefaultMaxDailyStakePercent
	}
	return &Engine{
		bankroll:      cfg.Bankroll,
		kellyFraction: kelly,
		maxStake:      cfg.Bankroll * maxPct,
		logger:        logger,
	}
}

// Evaluate runs every candidate through the three gates, sizes the
// survivors with fractional Kelly and returns them ranked by expected
// value, best first. A rejected candidate never aborts the batch.
func (e *Engine) Evaluate(candidates []models.Candidate) []models.CandidateBet {
	bets := make([]models.CandidateBet, 0, len(candidates))

	for _, cand := range candidates {
		bet, ok := e.evaluateOne(cand)
		if !ok {
			continue
		}
		bets = append(bets, bet)
	}

	sort.SliceStable(bets, func(i, j int) bool {
		return bets[i].EVPercent > bets[j].EVPercent
	})
	return bets
}

// BestBet returns the single highest-EV qualifying bet, or false when
// nothing passes the gates.
func (e *Engine) BestBet(candidates []models.Candidate) (models.CandidateBet, bool) {
	ranked := e.Evaluate(candidates)
	if len(ranked) == 0 {
		return models.CandidateBet{}, false
	}
	return ranked[0], true
}

func (e *Engine) evaluateOne(cand models.Candidate) (models.CandidateBet, bool) {
	if cand.Price <= 1 || cand.ModelProb <= 0 {
		return models.CandidateBet{}, false
	}

	evPercent := cand.ModelProb*cand.Price - 1

	// Gate 1: the bet must carry positive expected value.
	if evPercent <= 0 {
		metrics.GateRejectionsTotal.WithLabelValues("positive_ev").Inc()
		return models.CandidateBet{}, false
	}

	// Gate 2: credible edge. If the market's projected close is already
	// drifting below both our fair estimate and the current implied
	// price, the apparent edge is a lagging-price mirage. The baseline
	// is the larger of the two probabilities, the conservative reading.
	if cand.CLVProjected < math.Max(cand.PImplied, cand.ModelProb) {
		metrics.GateRejectionsTotal.WithLabelValues("credible_edge").Inc()
		e.logger.WithFields(logrus.Fields{
			"event_id":      cand.EventID,
			"selection":     cand.Selection,
			"clv_projected": cand.CLVProjected,
			"model_prob":    cand.ModelProb,
		}).Debug("Candidate rejected: market steaming against the edge")
		return models.CandidateBet{}, false
	}

	// Gate 3: high injury-driven uncertainty demands a much larger edge.
	if cand.ContextUncertainty > uncertaintyPenaltyCutoff && evPercent < uncertainEdgeFloor {
		metrics.GateRejectionsTotal.WithLabelValues("uncertainty").Inc()
		return models.CandidateBet{}, false
	}

	fraction := KellyFraction(cand.ModelProb, cand.Price, e.kellyFraction)
	stake := math.Min(e.bankroll*fraction, e.maxStake)

	return models.CandidateBet{
		EventID:   cand.EventID,
		Selection: cand.Selection,
		ModelProb: cand.ModelProb,
		Price:     cand.Price,
		EVPercent: evPercent,
		Stake:     stake,
	}, true
}
