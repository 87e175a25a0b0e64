package scuba_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deco-planner/pkg/scuba"
)

// referenceOptions одинаковые скорости всплытия 10 м/мин, погружение 20 м/мин.
func referenceOptions() scuba.Options {
	options := scuba.DefaultOptions()
	options.DescentSpeed = 20
	options.AscentSpeed50perc = 10
	options.AscentSpeed50percTo6m = 10
	options.AscentSpeed6m = 10
	options.SafetyStop = scuba.SafetyStopAlways
	options.ProblemSolvingDuration = 2
	return options
}

// referenceDive 30 м на воздухе, 12 минут, баллон 15 л 200 бар.
func referenceDive(t *testing.T) (scuba.Segments, []scuba.Tank, scuba.Options) {
	t.Helper()

	options := referenceOptions()
	tank := scuba.NewTank(1, 15, 200, scuba.Air)
	plan, err := scuba.SimplePlan(30, 12, tank, options)
	require.NoError(t, err)
	return plan, []scuba.Tank{tank}, options
}

func newAlgorithm() *scuba.Algorithm {
	return scuba.NewAlgorithm(scuba.AlgorithmConfig{})
}
