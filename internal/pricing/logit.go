// Package pricing converts raw odds observations into fair-probability
// estimates. Each market family has its own plugin; all of them work in
// log-odds space because blending probabilities linearly is wrong near
// the boundaries.
package pricing

import "math"

// Probabilities are clipped to this range before taking a logit so the
// transform never produces an infinity.
const (
	probFloor = 0.001
	probCeil  = 0.999
)

// ClipProb bounds a probability away from 0 and 1.
func ClipProb(p float64) float64 {
	if p < probFloor {
		return probFloor
	}
	if p > probCeil {
		return probCeil
	}
	return p
}

// Logit returns the log-odds of p after clipping.
func Logit(p float64) float64 {
	p = ClipProb(p)
	return math.Log(p / (1 - p))
}

// Sigmoid is the inverse logit transform.
func Sigmoid(l float64) float64 {
	return 1 / (1 + math.Exp(-l))
}
