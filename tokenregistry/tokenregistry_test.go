package tokenregistry

import (
	"testing"

	"github.com/privacycash/toolkit/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegistry() *Registry {
	r := New()
	r.Register(TokenInfo{
		Symbol:   "USDC",
		Decimals: 6,
		Providers: map[string]ProviderFees{
			"mpc": {FeeFraction: 0.002, MinAmount: 1},
		},
	})
	r.Register(TokenInfo{Symbol: "SOL", Decimals: 9})
	return r
}

func TestToBaseUnitsRoundsCorrectly(t *testing.T) {
	r := sampleRegistry()
	units, err := r.ToBaseUnits(1.23, "USDC")
	require.NoError(t, err)
	assert.Equal(t, "1230000", units.String())
}

func TestFromBaseUnitsInvertsToBaseUnits(t *testing.T) {
	r := sampleRegistry()
	units, err := r.ToBaseUnits(2.5, "SOL")
	require.NoError(t, err)
	amount, err := r.FromBaseUnits(units, "SOL")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, amount, 1e-9)
}

func TestLookupUnknownTokenFails(t *testing.T) {
	r := sampleRegistry()
	_, err := r.Lookup("DOGE")
	assert.True(t, errs.Is(err, errs.CodeUnsupportedToken))
}

func TestSymbolsSortedAlphabetically(t *testing.T) {
	r := sampleRegistry()
	assert.Equal(t, []string{"SOL", "USDC"}, r.Symbols())
}
