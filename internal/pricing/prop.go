package pricing

import (
	"strings"

	"github.com/yourusername/sharpline/internal/models"
)

// availabilityPrior is the logit of the prior probability that a listed
// player plays, roughly 95%.
const availabilityPrior = 3.0

// Status-dependent logit shifts applied to the availability prior. An
// official Questionable tag historically implies a 50-60% chance to
// play; Limited Practice players usually play but with reduced minutes.
var statusLogitShift = map[string]float64{
	models.StatusQuestionable:    -2.5,
	models.StatusDoubtful:        -4.0,
	models.StatusLimitedPractice: -0.5,
}

// PropPlugin prices player-prop markets by adjusting the implied
// probability for injury-status risk. Props are too sparsely quoted to
// trust a drift estimate, so velocity is always zero.
type PropPlugin struct{}

// NewPropPlugin creates a prop-market plugin.
func NewPropPlugin() *PropPlugin {
	return &PropPlugin{}
}

// Name returns the plugin identifier.
func (p *PropPlugin) Name() string {
	return "prop_bayesian_availability"
}

// CalculateFeatures shifts the availability prior by the player's
// reported status, shrinks Over selections toward 80% of their raw
// implied probability when minutes are at risk, and emits an uncertainty
// penalty that grows with both absence risk and source reliability: a
// trustworthy "likely out" is a stronger signal, not a weaker one.
func (p *PropPlugin) CalculateFeatures(obs *models.Observation, history []*models.Observation, evtCtx EventContext) Features {
	// Unknown players default to healthy with a middling-reliability
	// source so the penalty stays small but non-degenerate.
	status := models.StatusHealthy
	reliability := 0.5
	if report, ok := evtCtx.Injuries[obs.PlayerName]; ok {
		if report.Status != "" {
			status = report.Status
		}
		// A report without a reliability score keeps the 0.5 default
		// rather than zeroing the penalty.
		if report.Reliability > 0 {
			reliability = report.Reliability
		}
	}

	availabilityLogit := availabilityPrior + statusLogitShift[status]
	pAvailability := Sigmoid(availabilityLogit)

	pAdjusted := obs.ImpliedProb()
	if strings.Contains(obs.Selection, "Over") && minutesAtRisk(status) {
		pAdjusted = obs.ImpliedProb() * (0.8 + 0.2*pAvailability)
	}

	return Features{
		PFairConsensus:     pAdjusted,
		Velocity:           0.0,
		CLVProjected:       pAdjusted,
		PlayerAvailability: pAvailability,
		ContextUncertainty: (1.0 - pAvailability) * reliability,
	}
}

func minutesAtRisk(status string) bool {
	return status == models.StatusQuestionable || status == models.StatusLimitedPractice
}
