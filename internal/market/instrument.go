package market

import "fmt"

// InstrumentKey identifies the unit of temporal continuity: one priced
// instrument tracked across snapshots. It is a comparable value type so
// it can key a map directly; a missing handicap is distinguished from a
// literal zero by HasHandicap rather than by string sentinel values.
type InstrumentKey struct {
	EventID     string
	MarketKey   string
	Selection   string
	Handicap    float64
	HasHandicap bool
}

// NewInstrumentKey builds a key from an observation's identity fields.
func NewInstrumentKey(eventID, marketKey, selection string, handicap *float64) InstrumentKey {
	k := InstrumentKey{
		EventID:   eventID,
		MarketKey: marketKey,
		Selection: selection,
	}
	if handicap != nil {
		k.Handicap = *handicap
		k.HasHandicap = true
	}
	return k
}

// String renders the key for logging.
func (k InstrumentKey) String() string {
	if k.HasHandicap {
		return fmt.Sprintf("%s/%s/%s@%g", k.EventID, k.MarketKey, k.Selection, k.Handicap)
	}
	return fmt.Sprintf("%s/%s/%s", k.EventID, k.MarketKey, k.Selection)
}
