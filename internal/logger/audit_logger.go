package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides a dedicated audit trail for bet recommendations
// and settlements.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogBetRecommendation logs a recommended bet.
func (al *AuditLogger) LogBetRecommendation(betID, eventID, selection string, price, stake, modelProb, evPerUnit float64, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"bet_id":      betID,
		"event_id":    eventID,
		"selection":   selection,
		"price":       price,
		"stake":       stake,
		"model_prob":  modelProb,
		"ev_per_unit": evPerUnit,
		"timestamp":   timestamp.Unix(),
	}).Info("Bet recommendation recorded")
}

// LogEventSettlement logs an event settlement.
func (al *AuditLogger) LogEventSettlement(eventID, sportKey, winner string, homeScore, awayScore int) {
	al.WithFields(logrus.Fields{
		"event_id":   eventID,
		"sport_key":  sportKey,
		"winner":     winner,
		"home_score": homeScore,
		"away_score": awayScore,
		"event_type": "settlement",
	}).Info("Event settlement recorded")
}

// LogCalibratorRetrain logs a calibrator refit.
func (al *AuditLogger) LogCalibratorRetrain(trainingRows, buckets int, durationMs int64) {
	al.WithFields(logrus.Fields{
		"training_rows": trainingRows,
		"buckets":       buckets,
		"duration_ms":   durationMs,
		"event_type":    "calibrator_retrain",
	}).Info("Calibrator retrained")
}

// LogConfigChange logs a staking parameter change.
func (al *AuditLogger) LogConfigChange(parameterName string, oldValue, newValue interface{}, changedBy string) {
	al.WithFields(logrus.Fields{
		"parameter_name": parameterName,
		"old_value":      oldValue,
		"new_value":      newValue,
		"changed_by":     changedBy,
		"event_type":     "config_change",
	}).Warn("Staking parameter changed")
}
