// Package decision converts calibrated probabilities and market prices
// into go/no-go staking decisions: expected value, three independent
// gates, fractional-Kelly sizing and EV ranking.
package decision

// KellyFraction calculates the fraction of bankroll to stake under the
// Kelly criterion, scaled by fractionalKelly. Returns 0 for prices at or
// below evens and whenever the raw Kelly fraction is negative; a stake
// can never be negative.
func KellyFraction(prob, decimalOdds, fractionalKelly float64) float64 {
	if decimalOdds <= 1 {
		return 0
	}
	b := decimalOdds - 1
	q := 1 - prob
	fStar := (b*prob - q) / b
	if fStar < 0 {
		return 0
	}
	return fStar * fractionalKelly
}
