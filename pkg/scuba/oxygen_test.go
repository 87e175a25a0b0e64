package scuba_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"deco-planner/pkg/scuba"
)

func TestOtuReferenceDive(t *testing.T) {
	plan, _, options := referenceDive(t)
	otu := scuba.NewOtuCalculator(options.DepthConverter())

	assert.InDelta(t, 7.67, otu.Calculate(plan), 0.01)
}

func TestOtuBelowThreshold(t *testing.T) {
	otu := scuba.NewOtuCalculator(scuba.SeaLevelConverter(scuba.SalinityFresh))
	plan := scuba.Segments{}
	plan.Add(10, scuba.Air, 60)
	plan.AddFlat(scuba.Air, 3600)

	assert.Zero(t, otu.Calculate(plan))
}

func TestOtuOneUnitPerMinuteAtOneBar(t *testing.T) {
	converter := scuba.SeaLevelConverter(scuba.SalinityFresh)
	otu := scuba.NewOtuCalculator(converter)
	// смесь с ppO2 1 бар на 10 м
	gas := scuba.NewGas(1/converter.ToBar(10), 0)
	plan := scuba.Segments{{StartDepth: 10, EndDepth: 10, Duration: scuba.ToSeconds(10), Gas: gas}}

	assert.InDelta(t, 10, otu.Calculate(plan), 1e-9)
}

func TestCnsReferenceDive(t *testing.T) {
	plan, _, options := referenceDive(t)
	cns := scuba.NewCnsCalculator(options.DepthConverter())

	assert.InDelta(t, 2.6, cns.Calculate(plan), 0.01)
}

func TestCnsGrowsWithOxygen(t *testing.T) {
	cns := scuba.NewCnsCalculator(scuba.SeaLevelConverter(scuba.SalinityFresh))

	flat := func(gas scuba.Gas, depth float64) float64 {
		return cns.Calculate(scuba.Segments{{StartDepth: depth, EndDepth: depth, Duration: scuba.ToSeconds(30), Gas: gas}})
	}

	assert.Zero(t, flat(scuba.Air, 5))
	assert.Less(t, flat(scuba.Air, 30), flat(scuba.EAN32, 30))
	assert.Less(t, flat(scuba.EAN32, 30), flat(scuba.EAN50, 21))
	assert.Greater(t, flat(scuba.Oxygen, 8), 0.0)
}

func TestGasDensity(t *testing.T) {
	converter := scuba.SeaLevelConverter(scuba.SalinityFresh)

	assert.InDelta(t, 5.09, scuba.GasDensity(scuba.Air, 30, converter), 0.01)
	assert.Less(t, scuba.GasDensity(scuba.Trimix1845, 30, converter), scuba.GasDensity(scuba.Air, 30, converter))

	plan := scuba.Segments{}
	plan.Add(40, scuba.Air, 120)
	plan.AddFlat(scuba.Air, 600)
	plan.Add(20, scuba.Air, 120)

	highest := scuba.HighestDensity(plan, converter)
	assert.Equal(t, 40.0, highest.Depth)
	assert.Equal(t, scuba.Air, highest.Gas)
	assert.Greater(t, highest.Density, scuba.RecommendedMaxDensity)
	assert.Greater(t, highest.Density, scuba.HardMaxDensity)
}
