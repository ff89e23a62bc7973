// Package calibration corrects raw fair-probability estimates against
// historical outcomes using monotonic (isotonic) regression, fitted
// globally and per (sport, market family) bucket where enough labeled
// history exists.
package calibration

import "sort"

// Isotonic is a fitted non-decreasing mapping from raw probability to
// empirical win rate. Outputs are bounded to [0,1]; inputs outside the
// training domain clip to the nearest boundary rather than extrapolate.
type Isotonic struct {
	thresholds []float64
	values     []float64
}

type isoPair struct {
	x float64
	y float64
}

// FitIsotonic fits a monotone regression by pool-adjacent-violators.
// xs are raw probabilities, ys the realized outcomes (0 or 1). Returns
// nil when the inputs are empty or mismatched.
func FitIsotonic(xs, ys []float64) *Isotonic {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil
	}

	pairs := make([]isoPair, len(xs))
	for i := range xs {
		pairs[i] = isoPair{x: xs[i], y: clamp01(ys[i])}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

	// Each block holds a pooled mean; adjacent blocks violating
	// monotonicity are merged until the sequence is non-decreasing.
	type block struct {
		sum    float64
		weight float64
		minX   float64
		maxX   float64
	}
	blocks := make([]block, 0, len(pairs))
	for _, p := range pairs {
		blocks = append(blocks, block{sum: p.y, weight: 1, minX: p.x, maxX: p.x})
		for len(blocks) > 1 {
			last := len(blocks) - 1
			prev := last - 1
			if blocks[prev].sum/blocks[prev].weight <= blocks[last].sum/blocks[last].weight {
				break
			}
			blocks[prev].sum += blocks[last].sum
			blocks[prev].weight += blocks[last].weight
			blocks[prev].maxX = blocks[last].maxX
			blocks = blocks[:prev+1]
		}
	}

	iso := &Isotonic{
		thresholds: make([]float64, 0, len(blocks)*2),
		values:     make([]float64, 0, len(blocks)*2),
	}
	for _, b := range blocks {
		mean := clamp01(b.sum / b.weight)
		iso.thresholds = append(iso.thresholds, b.minX, b.maxX)
		iso.values = append(iso.values, mean, mean)
	}
	return iso
}

// Predict maps a raw probability through the fitted step function with
// linear interpolation between block boundaries.
func (iso *Isotonic) Predict(x float64) float64 {
	n := len(iso.thresholds)
	if n == 0 {
		return clamp01(x)
	}
	if x <= iso.thresholds[0] {
		return iso.values[0]
	}
	if x >= iso.thresholds[n-1] {
		return iso.values[n-1]
	}
	// Binary search for the first threshold >= x.
	idx := sort.SearchFloat64s(iso.thresholds, x)
	lo, hi := idx-1, idx
	x0, x1 := iso.thresholds[lo], iso.thresholds[hi]
	y0, y1 := iso.values[lo], iso.values[hi]
	if x1 == x0 {
		return y1
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
