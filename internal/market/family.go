// Package market classifies raw market identifiers into families and
// maintains per-instrument price history for the feature engine.
package market

import "strings"

// Family represents the pricing family a market belongs to. The set is
// closed: every market key maps onto exactly one of these four values.
type Family string

const (
	FamilyMain   Family = "MAIN"
	FamilyPeriod Family = "PERIOD"
	FamilyProp   Family = "PROP"
	FamilyFuture Family = "FUTURE"
)

// Classify maps a raw market key to its family. Rules are substring
// checks applied in order; anything unrecognised is a main market.
func Classify(marketKey string) Family {
	key := strings.ToLower(marketKey)
	switch {
	case strings.Contains(key, "player"):
		return FamilyProp
	case strings.Contains(key, "period"), strings.Contains(key, "q1"):
		return FamilyPeriod
	case strings.Contains(key, "futures"):
		return FamilyFuture
	default:
		return FamilyMain
	}
}

// IsValid reports whether f is one of the four known families.
func (f Family) IsValid() bool {
	switch f {
	case FamilyMain, FamilyPeriod, FamilyProp, FamilyFuture:
		return true
	}
	return false
}
