package valueobjects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousIdentity_RejectsEmptyID(t *testing.T) {
	_, err := NewAnonymousIdentity("", time.Now())
	assert.Error(t, err)
}

func TestAnonymousIdentity_EqualsComparesByID(t *testing.T) {
	a, err := NewAnonymousIdentity("id-1", time.Now())
	require.NoError(t, err)
	b, err := NewAnonymousIdentity("id-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	c, err := NewAnonymousIdentity("id-2", time.Now())
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.IsZero())
	assert.True(t, AnonymousIdentity{}.IsZero())
}

func TestLocationProfile_Freshness(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := LocationProfile{City: "Pune", ObservedAt: now.Add(-time.Hour)}
	assert.True(t, fresh.Fresh(now))

	stale := LocationProfile{City: "Pune", ObservedAt: now.Add(-LocationFreshness - time.Minute)}
	assert.False(t, stale.Fresh(now))

	never := LocationProfile{City: "Pune"}
	assert.False(t, never.Fresh(now), "an unobserved profile is never fresh")
}

func TestLocationProfile_IsZero(t *testing.T) {
	assert.True(t, LocationProfile{}.IsZero())
	assert.False(t, LocationProfile{City: "Pune"}.IsZero())
	assert.False(t, LocationProfile{ObservedAt: time.Now()}.IsZero())
}

func TestFeedTier_Ordering(t *testing.T) {
	assert.True(t, TierCity.Before(TierState))
	assert.True(t, TierState.Before(TierCountry))
	assert.True(t, TierCountry.Before(TierGlobal))
	assert.False(t, TierGlobal.Before(TierCity))
}

func TestFeedTier_String(t *testing.T) {
	assert.Equal(t, "city", TierCity.String())
	assert.Equal(t, "state", TierState.String())
	assert.Equal(t, "country", TierCountry.String())
	assert.Equal(t, "global", TierGlobal.String())
}
