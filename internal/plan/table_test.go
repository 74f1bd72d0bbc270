package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableOrder(t *testing.T) {
	table := Default()

	assert.Equal(t, []string{TierFree, TierStarter, TierPro, TierEnterprise}, table.Order())
	assert.Equal(t, TierEnterprise, table.AdminTier())
}

func TestHasFeatureMatchesTableRow(t *testing.T) {
	table := Default()

	for _, tier := range table.Order() {
		spec, ok := table.Tier(tier)
		require.True(t, ok)
		for _, feature := range spec.Features {
			assert.Truef(t, table.HasFeature(tier, feature), "tier %s should include %s", tier, feature)
		}
		assert.False(t, table.HasFeature(tier, "no.such.feature"))
	}
}

func TestNormalizeFallsBackToFree(t *testing.T) {
	table := Default()

	assert.Equal(t, TierPro, table.Normalize("pro"))
	assert.Equal(t, TierPro, table.Normalize("  Pro "))
	assert.Equal(t, TierFree, table.Normalize(""))
	assert.Equal(t, TierFree, table.Normalize("platinum"))
}

func TestCheapestTierWith(t *testing.T) {
	table := Default()

	tier, ok := table.CheapestTierWith("mieterapp.core")
	require.True(t, ok)
	assert.Equal(t, TierFree, tier)

	tier, ok = table.CheapestTierWith("payments.basic")
	require.True(t, ok)
	assert.Equal(t, TierStarter, tier)

	tier, ok = table.CheapestTierWith("sso.saml")
	require.True(t, ok)
	assert.Equal(t, TierEnterprise, tier)

	_, ok = table.CheapestTierWith("no.such.feature")
	assert.False(t, ok)
}

func TestLimitAllows(t *testing.T) {
	assert.True(t, Limit{Value: 3}.Allows(2))
	assert.False(t, Limit{Value: 3}.Allows(3))
	assert.False(t, Limit{Value: 3}.Allows(4))
	assert.True(t, Limit{Unlimited: true}.Allows(1<<40))
}

func TestAdminLimitsAreUnlimited(t *testing.T) {
	table := Default()

	limits := table.AdminLimits()
	require.NotEmpty(t, limits)
	for key, limit := range limits {
		assert.Truef(t, limit.Unlimited, "limit %s should be unlimited", key)
	}
}

func TestNewTableValidation(t *testing.T) {
	_, err := newTable(nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = newTable([]string{TierFree}, map[string]TierSpec{
		TierFree: {},
		"gold":   {},
	}, nil)
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = newTable([]string{TierPro}, map[string]TierSpec{
		TierPro: {},
	}, nil)
	assert.ErrorIs(t, err, ErrMissingFreeRow)
}

func TestSeatGatingFlags(t *testing.T) {
	table := Default()

	app, ok := table.App("mieterapp")
	require.True(t, ok)
	assert.False(t, app.SeatGated)

	app, ok = table.App("vermietify")
	require.True(t, ok)
	assert.True(t, app.SeatGated)

	_, ok = table.App("unknownapp")
	assert.False(t, ok)
}
