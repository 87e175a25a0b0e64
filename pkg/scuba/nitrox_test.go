package scuba_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"deco-planner/pkg/scuba"
)

func TestNitroxCalculator(t *testing.T) {
	fresh := scuba.NewNitroxCalculator(scuba.SeaLevelConverter(scuba.SalinityFresh))
	salt := scuba.NewNitroxCalculator(scuba.SeaLevelConverter(scuba.SalinitySalt))

	t.Run("best mix rounds down", func(t *testing.T) {
		assert.Equal(t, 35.39, fresh.BestMix(1.4, 30))
		assert.Equal(t, 34.62, salt.BestMix(1.4, 30))
	})

	t.Run("mod rounds down", func(t *testing.T) {
		assert.Equal(t, 34.28, fresh.Mod(1.4, 32))
		assert.Equal(t, 33.28, salt.Mod(1.4, 32))
	})

	t.Run("ead rounds up", func(t *testing.T) {
		assert.Equal(t, 24.44, fresh.Ead(32, 30))
	})

	t.Run("partial pressure rounds up", func(t *testing.T) {
		assert.Equal(t, 1.27, fresh.PartialPressure(32, 30))
	})

	t.Run("gas switch rounded to stop", func(t *testing.T) {
		assert.Equal(t, 21.0, fresh.GasSwitch(1.6, 50))
		assert.Equal(t, 6.0, fresh.GasSwitch(1.6, 100))
	})
}

func TestDepthConverter(t *testing.T) {
	converter := scuba.SeaLevelConverter(scuba.SalinityFresh)

	assert.Equal(t, scuba.StandardPressure, converter.SurfacePressure())
	assert.InDelta(t, 3.955245, converter.ToBar(30), 1e-6)
	assert.InDelta(t, 30, converter.FromBar(converter.ToBar(30)), 1e-9)

	salt := scuba.SeaLevelConverter(scuba.SalinitySalt)
	assert.Greater(t, salt.ToBar(30), converter.ToBar(30))

	mountain := scuba.NewDepthConverter(scuba.SalinityFresh, 800)
	assert.Less(t, mountain.SurfacePressure(), converter.SurfacePressure())
	assert.InDelta(t, 0.92, mountain.SurfacePressure(), 0.01)
}

func TestPrecision(t *testing.T) {
	assert.Equal(t, 1.23, scuba.Floor(1.239, 2))
	assert.Equal(t, 1.24, scuba.Ceil(1.231, 2))
	assert.Equal(t, 1.24, scuba.Round(1.2351, 2))
}
