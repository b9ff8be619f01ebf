package valueobjects

import "time"

// LocationFreshness is how long a cached location profile stays valid.
// Expired profiles are refetched, not silently reused.
const LocationFreshness = 24 * time.Hour

// LocationProfile is the device's last-known geographic profile. It drives
// the feed tiering; an absent profile degrades the feed to global-only.
type LocationProfile struct {
	City       string    `json:"city"`
	State      string    `json:"state"`
	Country    string    `json:"country"`
	Latitude   float64   `json:"lat,omitempty"`
	Longitude  float64   `json:"lon,omitempty"`
	ObservedAt time.Time `json:"observedAt"`
}

// Fresh reports whether the profile is still within its validity window.
func (p LocationProfile) Fresh(now time.Time) bool {
	if p.ObservedAt.IsZero() {
		return false
	}
	return now.Sub(p.ObservedAt) < LocationFreshness
}

// IsZero reports whether no location has ever been observed.
func (p LocationProfile) IsZero() bool {
	return p.City == "" && p.State == "" && p.Country == "" && p.ObservedAt.IsZero()
}
