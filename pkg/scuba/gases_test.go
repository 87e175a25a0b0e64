package scuba_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deco-planner/pkg/scuba"
)

func TestParseGas(t *testing.T) {
	tests := []struct {
		input    string
		expected scuba.Gas
	}{
		{input: "air", expected: scuba.Air},
		{input: "21", expected: scuba.Air},
		{input: "EAN32", expected: scuba.EAN32},
		{input: "32", expected: scuba.EAN32},
		{input: "ean50", expected: scuba.EAN50},
		{input: "oxygen", expected: scuba.Oxygen},
		{input: "o2", expected: scuba.Oxygen},
		{input: "18/45", expected: scuba.Trimix1845},
		{input: "trimix 21/35", expected: scuba.Trimix2135},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gas, err := scuba.ParseGas(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, gas)
		})
	}

	for _, invalid := range []string{"", "bogus", "60/50", "1/2/3", "0"} {
		_, err := scuba.ParseGas(invalid)
		assert.ErrorIs(t, err, scuba.ErrInvalidGas, "input %q", invalid)
	}
}

func TestGasName(t *testing.T) {
	assert.Equal(t, "Air", scuba.Air.Name())
	assert.Equal(t, "EAN28", scuba.NewGas(0.28, 0).Name())
	assert.Equal(t, "Trimix 19/33", scuba.NewGas(0.19, 0.33).Name())
	assert.Equal(t, "Trimix 18/45", scuba.Trimix1845.String())
}

func TestGasEquivalentNarcoticDepth(t *testing.T) {
	converter := scuba.SeaLevelConverter(scuba.SalinityFresh)

	assert.InDelta(t, 30, scuba.Air.End(30, converter, true), 1e-9)
	assert.Less(t, scuba.Trimix1845.End(30, converter, true), 30.0)
	assert.Less(t, scuba.EAN32.End(30, converter, false), scuba.EAN32.End(30, converter, true))
}

func TestGasesAsMapKeys(t *testing.T) {
	pool := map[scuba.Gas]float64{}
	pool[scuba.NewGas(0.32, 0)] += 10
	pool[scuba.EAN32] += 5

	assert.Len(t, pool, 1)
	assert.Equal(t, 15.0, pool[scuba.EAN32])
}

func TestBestDecoGas(t *testing.T) {
	options := scuba.DefaultOptions()
	gases := scuba.NewGases(scuba.Air, scuba.EAN50, scuba.Oxygen)

	_, found := gases.BestDecoGas(30, options)
	assert.False(t, found)

	gas, found := gases.BestDecoGas(21, options)
	require.True(t, found)
	assert.Equal(t, scuba.EAN50, gas)

	gas, found = gases.BestDecoGas(6, options)
	require.True(t, found)
	assert.Equal(t, scuba.Oxygen, gas)
}

func TestSwitchDepthStaysAboveMod(t *testing.T) {
	fresh := scuba.SeaLevelConverter(scuba.SalinityFresh)

	ean48 := scuba.NewGas(0.48, 0)
	assert.InDelta(t, 23.66, ean48.Mod(1.6, fresh), 0.01)
	assert.Equal(t, 21.0, ean48.SwitchDepth(1.6, fresh, 3))
	assert.Equal(t, 21.0, scuba.EAN50.SwitchDepth(1.6, fresh, 3))
	assert.Equal(t, 6.0, scuba.Oxygen.SwitchDepth(1.6, fresh, 3))

	gases := scuba.NewGases(scuba.Air, ean48)
	_, found := gases.BestDecoGas(24, scuba.DefaultOptions())
	assert.False(t, found)
}

func TestGasesRegistration(t *testing.T) {
	tanks := []scuba.Tank{
		scuba.NewTank(1, 24, 200, scuba.Trimix2135),
		scuba.NewTank(2, 11.1, 200, scuba.EAN50),
		scuba.NewTank(3, 11.1, 200, scuba.EAN50),
	}

	gases := scuba.GasesFromTanks(tanks)
	assert.Equal(t, 2, gases.Len())
	assert.True(t, gases.IsRegistered(scuba.EAN50))
	assert.False(t, gases.IsRegistered(scuba.Oxygen))
	assert.NoError(t, gases.Validate())

	assert.Error(t, scuba.Gases{}.Validate())
}
