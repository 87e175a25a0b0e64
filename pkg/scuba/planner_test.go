package scuba_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deco-planner/pkg/scuba"
)

func TestPlannerCalculateReferenceDive(t *testing.T) {
	plan, tanks, options := referenceDive(t)
	planner := scuba.NewPlanner(scuba.PlannerConfig{})

	result, err := planner.Calculate(context.Background(), scuba.PlanRequest{
		Tanks:   tanks,
		Plan:    plan,
		Options: options,
		Diver:   scuba.DefaultDiver(),
	})
	require.NoError(t, err)

	assert.False(t, result.CalculationFailed)
	assert.Equal(t, 12, result.NoDeco)
	assert.False(t, result.NoDecoExceeded)
	assert.Equal(t, 8, result.TimeToSurface)
	assert.Equal(t, 18, result.MaxBottomTime)
	assert.InDelta(t, 21.75, result.AverageDepth, 1e-6)
	assert.InDelta(t, 7.67, result.Otu, 0.01)
	assert.InDelta(t, 2.6, result.Cns, 0.01)
	assert.InDelta(t, 5.09, result.HighestDensity.Density, 0.01)
	assert.Equal(t, 720.0, result.EmergencyAscentStart)
	assert.Equal(t, 6.0, result.TurnTime)
	assert.Equal(t, 162.0, result.TurnPressure)
	assert.False(t, result.NotEnoughGas)

	require.Len(t, result.Tanks, 1)
	assert.Equal(t, 78.0, result.Tanks[0].Reserve)
	assert.Equal(t, 123.0, result.Tanks[0].Remaining())

	// исходные баллоны не изменены
	assert.Zero(t, tanks[0].Consumed)
}

func TestPlannerSkipsConsumptionForFailedProfile(t *testing.T) {
	planner := scuba.NewPlanner(scuba.PlannerConfig{})
	tank := scuba.NewTank(1, 15, 200, scuba.Air)

	plan := scuba.Segments{}
	plan.Add(20, scuba.EAN32, 60)
	plan.AddFlat(scuba.EAN32, 600)

	result, err := planner.Calculate(context.Background(), scuba.PlanRequest{
		Tanks:   []scuba.Tank{tank},
		Plan:    plan,
		Options: scuba.DefaultOptions(),
		Diver:   scuba.DefaultDiver(),
	})
	require.NoError(t, err)

	assert.True(t, result.CalculationFailed)
	assert.True(t, result.Profile.HasErrors())
	assert.NotEmpty(t, result.Events)
	assert.Zero(t, result.MaxBottomTime)
	assert.Zero(t, result.TimeToSurface)
	assert.Equal(t, []scuba.Tank{tank}, result.Tanks)
}

func TestPlannerRejectsInvalidRequest(t *testing.T) {
	planner := scuba.NewPlanner(scuba.PlannerConfig{})
	plan, tanks, options := referenceDive(t)

	_, err := planner.Calculate(context.Background(), scuba.PlanRequest{Plan: plan, Options: options, Diver: scuba.DefaultDiver()})
	assert.ErrorIs(t, err, scuba.ErrInvalidTank)

	plan[1].TankID = 9
	_, err = planner.Calculate(context.Background(), scuba.PlanRequest{Tanks: tanks, Plan: plan, Options: options, Diver: scuba.DefaultDiver()})
	assert.ErrorIs(t, err, scuba.ErrUnknownTank)
}

func TestPlannerHonorsCancellation(t *testing.T) {
	planner := scuba.NewPlanner(scuba.PlannerConfig{})
	plan, tanks, options := referenceDive(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := planner.Calculate(ctx, scuba.PlanRequest{Tanks: tanks, Plan: plan, Options: options, Diver: scuba.DefaultDiver()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlannerProfileAndDiveInfo(t *testing.T) {
	planner := scuba.NewPlanner(scuba.PlannerConfig{})
	plan, tanks, options := referenceDive(t)
	request := scuba.ProfileRequest{Tanks: tanks, Plan: plan, Options: options}

	profile, err := planner.Profile(request)
	require.NoError(t, err)
	assert.True(t, profile.Profile.EndsOnSurface())
	assert.NotEmpty(t, profile.Events)

	info, err := planner.DiveInfo(request)
	require.NoError(t, err)
	assert.Equal(t, 12, info.NoDeco)
	assert.Equal(t, 30.0, info.HighestDensity.Depth)
}

func TestPlanRequestValidate(t *testing.T) {
	plan, tanks, options := referenceDive(t)
	valid := scuba.PlanRequest{Tanks: tanks, Plan: plan, Options: options, Diver: scuba.DefaultDiver()}
	require.NoError(t, valid.Validate())

	noPlan := valid
	noPlan.Plan = nil
	assert.ErrorIs(t, noPlan.Validate(), scuba.ErrNoSegments)

	unknownTank := valid
	unknownTank.Plan = plan.Copy()
	unknownTank.Plan[0].TankID = 9
	assert.ErrorIs(t, unknownTank.Validate(), scuba.ErrUnknownTank)

	badOptions := valid
	badOptions.Options.GfLow = 0
	assert.ErrorIs(t, badOptions.Validate(), scuba.ErrInvalidOptions)

	badDiver := valid
	badDiver.Diver.SAC = 0
	assert.Error(t, badDiver.Validate())
}
