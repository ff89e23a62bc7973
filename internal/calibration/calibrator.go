package calibration

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/sharpline/internal/market"
	"github.com/yourusername/sharpline/internal/models"
)

// MinSamplesForSplit is the training-row count a (sport, family) bucket
// must exceed to earn its own calibration curve. Smaller buckets pool
// into the global curve; a minor sport/market combo lacks the outcomes
// to calibrate reliably in isolation.
const MinSamplesForSplit = 50

// BucketKey identifies one calibration bucket.
type BucketKey struct {
	SportKey     string
	MarketFamily market.Family
}

// Model is an immutable fitted calibrator. Once built it is read-only,
// so concurrent Predict calls need no locking; retraining builds a new
// Model and swaps it in through a Calibrator.
type Model struct {
	global  *Isotonic
	buckets map[BucketKey]*Isotonic
	samples int
}

// Fit trains a new Model: one global curve over all rows, plus a
// dedicated curve for every (sport, family) group whose count exceeds
// MinSamplesForSplit. Returns nil when rows is empty.
func Fit(rows []models.TrainingRow, logger *logrus.Logger) *Model {
	if len(rows) == 0 {
		return nil
	}
	if logger == nil {
		logger = logrus.New()
	}

	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	grouped := make(map[BucketKey][]models.TrainingRow)
	for i, row := range rows {
		xs[i] = row.RawProb
		ys[i] = float64(row.Outcome)
		key := BucketKey{SportKey: row.SportKey, MarketFamily: row.MarketFamily}
		grouped[key] = append(grouped[key], row)
	}

	model := &Model{
		global:  FitIsotonic(xs, ys),
		buckets: make(map[BucketKey]*Isotonic),
		samples: len(rows),
	}

	for key, group := range grouped {
		if len(group) <= MinSamplesForSplit {
			logger.WithFields(logrus.Fields{
				"sport":  key.SportKey,
				"family": key.MarketFamily,
				"n":      len(group),
			}).Debug("Bucket below split threshold, pooling into global curve")
			continue
		}
		gx := make([]float64, len(group))
		gy := make([]float64, len(group))
		for i, row := range group {
			gx[i] = row.RawProb
			gy[i] = float64(row.Outcome)
		}
		model.buckets[key] = FitIsotonic(gx, gy)
		logger.WithFields(logrus.Fields{
			"sport":  key.SportKey,
			"family": key.MarketFamily,
			"n":      len(group),
		}).Info("Calibrated bucket")
	}

	return model
}

// Predict maps a raw fair probability through the most specific curve
// available: the bucket's own if it was fitted, the global otherwise.
func (m *Model) Predict(sportKey string, family market.Family, rawProb float64) float64 {
	if iso, ok := m.buckets[BucketKey{SportKey: sportKey, MarketFamily: family}]; ok {
		return iso.Predict(rawProb)
	}
	return m.global.Predict(rawProb)
}

// HasBucket reports whether a dedicated curve exists for the key.
func (m *Model) HasBucket(sportKey string, family market.Family) bool {
	_, ok := m.buckets[BucketKey{SportKey: sportKey, MarketFamily: family}]
	return ok
}

// Samples returns the number of rows the model was trained on.
func (m *Model) Samples() int {
	return m.samples
}

// Buckets returns the number of dedicated bucket curves.
func (m *Model) Buckets() int {
	return len(m.buckets)
}

// Calibrator serves predictions from the latest fitted Model. Before
// any successful Fit it degrades to returning the raw probability
// unchanged, with a single logged warning, so downstream EV math still
// runs; a bad training pass never turns into a per-row error.
type Calibrator struct {
	model  atomic.Pointer[Model]
	warned atomic.Bool
	logger *logrus.Logger
}

// NewCalibrator creates an untrained calibrator.
func NewCalibrator(logger *logrus.Logger) *Calibrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Calibrator{logger: logger}
}

// Fit trains on rows and atomically swaps the fitted model in. Empty
// input leaves the previous model (if any) serving.
func (c *Calibrator) Fit(rows []models.TrainingRow) {
	model := Fit(rows, c.logger)
	if model == nil {
		c.logger.Warn("No training rows; calibrator left unchanged")
		return
	}
	c.model.Store(model)
	c.logger.WithFields(logrus.Fields{
		"rows":    model.samples,
		"buckets": len(model.buckets),
	}).Info("Hierarchical calibrator trained")
}

// Predict returns the calibrated probability, or the raw input when no
// model has been fitted yet.
func (c *Calibrator) Predict(sportKey string, family market.Family, rawProb float64) float64 {
	model := c.model.Load()
	if model == nil {
		if c.warned.CompareAndSwap(false, true) {
			c.logger.Warn("Calibrator untrained; serving raw probabilities")
		}
		return rawProb
	}
	return model.Predict(sportKey, family, rawProb)
}

// IsTrained reports whether a fitted model is serving.
func (c *Calibrator) IsTrained() bool {
	return c.model.Load() != nil
}

// Model returns the currently serving model, or nil when untrained.
func (c *Calibrator) Model() *Model {
	return c.model.Load()
}
