package valueobjects

// FeedTier tags an assembled post with the geographic scope it was selected
// from. Tiers are runtime-only ordering keys and are never persisted.
type FeedTier int

const (
	TierCity FeedTier = iota
	TierState
	TierCountry
	TierGlobal
)

// String returns the tier name used in logs and metrics labels.
func (t FeedTier) String() string {
	switch t {
	case TierCity:
		return "city"
	case TierState:
		return "state"
	case TierCountry:
		return "country"
	case TierGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Before reports whether t outranks other in feed ordering.
// City content always precedes state, state precedes country,
// country precedes global.
func (t FeedTier) Before(other FeedTier) bool {
	return t < other
}
