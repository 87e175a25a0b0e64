package scuba

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// PlannerConfig конфигурация планировщика.
type PlannerConfig struct {
	Logger *zap.Logger
}

// Planner объединяет расчет профиля, информации о погружении и расхода газа.
type Planner struct {
	algorithm   *Algorithm
	consumption *Consumption
	logger      *zap.Logger
}

// NewPlanner создает планировщик
func NewPlanner(config PlannerConfig) *Planner {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Planner{
		algorithm:   NewAlgorithm(AlgorithmConfig{Logger: config.Logger}),
		consumption: NewConsumption(ConsumptionConfig{Logger: config.Logger}),
		logger:      config.Logger,
	}
}

// ProfileRequest запрос расчета профиля и информации о погружении.
type ProfileRequest struct {
	Tanks   []Tank   `json:"tanks" msgpack:"tanks"`
	Plan    Segments `json:"plan" msgpack:"plan"`
	Options Options  `json:"options" msgpack:"options"`
}

// ProfileResult профиль с событиями.
type ProfileResult struct {
	Profile *CalculatedProfile `json:"profile" msgpack:"profile"`
	Events  []Event            `json:"events" msgpack:"events"`
}

// DiveInfo NDL в минутах, кислородная нагрузка и плотность смеси плана.
type DiveInfo struct {
	NoDeco         int       `json:"no_deco" msgpack:"no_deco"`
	Otu            float64   `json:"otu" msgpack:"otu"`
	Cns            float64   `json:"cns" msgpack:"cns"`
	HighestDensity DensityAt `json:"highest_density" msgpack:"highest_density"`
}

// Profile рассчитывает профиль с всплытием и его события.
func (p *Planner) Profile(request ProfileRequest) (*ProfileResult, error) {
	if err := ValidateTanks(request.Tanks); err != nil {
		return nil, err
	}
	if err := validateTankReferences(request.Plan, request.Tanks); err != nil {
		return nil, err
	}

	profile, err := p.algorithm.CalculateDecompression(request.Options, GasesFromTanks(request.Tanks), request.Plan)
	if err != nil {
		return nil, err
	}

	return &ProfileResult{
		Profile: profile,
		Events:  ProfileEvents(profile, request.Options),
	}, nil
}

// DiveInfo рассчитывает NDL, OTU, CNS и наибольшую плотность смеси плана.
func (p *Planner) DiveInfo(request ProfileRequest) (*DiveInfo, error) {
	if err := ValidateTanks(request.Tanks); err != nil {
		return nil, err
	}

	ndl, err := p.algorithm.NoDecoLimit(request.Options, GasesFromTanks(request.Tanks), request.Plan)
	if err != nil {
		return nil, err
	}

	converter := request.Options.DepthConverter()
	return &DiveInfo{
		NoDeco:         ndl,
		Otu:            NewOtuCalculator(converter).Calculate(request.Plan),
		Cns:            NewCnsCalculator(converter).Calculate(request.Plan),
		HighestDensity: HighestDensity(request.Plan, converter),
	}, nil
}

// Consumption рассчитывает расход газа по готовому профилю.
func (p *Planner) Consumption(request ConsumptionRequest) (*ConsumptionResult, error) {
	return p.consumption.Calculate(request)
}

// PlanRequest полный запрос расчета погружения.
type PlanRequest struct {
	Tanks   []Tank   `json:"tanks" msgpack:"tanks" validate:"required,min=1,dive"`
	Plan    Segments `json:"plan" msgpack:"plan" validate:"required,min=1,dive"`
	Options Options  `json:"options" msgpack:"options"`
	Diver   Diver    `json:"diver" msgpack:"diver"`
}

// Validate проверяет запрос целиком: баллоны, план, ссылки на баллоны,
// параметры и дайвера.
func (r PlanRequest) Validate() error {
	if err := ValidateTanks(r.Tanks); err != nil {
		return err
	}
	if err := r.Plan.Validate(); err != nil {
		return err
	}
	if err := validateTankReferences(r.Plan, r.Tanks); err != nil {
		return err
	}
	if err := r.Options.Validate(); err != nil {
		return err
	}
	return r.Diver.Validate()
}

// DiveResult результат расчета погружения. Времена в минутах, если не указано иное.
type DiveResult struct {
	Profile        *CalculatedProfile `json:"profile" msgpack:"profile"`
	Events         []Event            `json:"events" msgpack:"events"`
	NoDeco         int                `json:"no_deco" msgpack:"no_deco"`
	Otu            float64            `json:"otu" msgpack:"otu"`
	Cns            float64            `json:"cns" msgpack:"cns"`
	HighestDensity DensityAt          `json:"highest_density" msgpack:"highest_density"`
	AverageDepth   float64            `json:"average_depth" msgpack:"average_depth"`
	TimeToSurface  int                `json:"time_to_surface" msgpack:"time_to_surface"`
	MaxBottomTime  int                `json:"max_bottom_time" msgpack:"max_bottom_time"`
	Tanks          []Tank             `json:"tanks" msgpack:"tanks"`
	NotEnoughGas   bool               `json:"not_enough_gas" msgpack:"not_enough_gas"`
	NoDecoExceeded bool               `json:"no_deco_exceeded" msgpack:"no_deco_exceeded"`
	// EmergencyAscentStart время начала аварийного всплытия, секунды
	EmergencyAscentStart float64 `json:"emergency_ascent_start" msgpack:"emergency_ascent_start"`
	TurnTime             float64 `json:"turn_time" msgpack:"turn_time"`
	TurnPressure         float64 `json:"turn_pressure" msgpack:"turn_pressure"`
	CalculationFailed    bool    `json:"calculation_failed" msgpack:"calculation_failed"`
}

// Calculate рассчитывает профиль и информацию о погружении параллельно,
// затем расход газа, если профиль без ошибок заканчивается на поверхности.
// Отмена контекста проверяется между этапами.
func (p *Planner) Calculate(ctx context.Context, request PlanRequest) (*DiveResult, error) {
	options := request.Diver.ApplyTo(request.Options)
	profileRequest := ProfileRequest{Tanks: request.Tanks, Plan: request.Plan, Options: options}

	var (
		wg         sync.WaitGroup
		profile    *ProfileResult
		info       *DiveInfo
		profileErr error
		infoErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileErr = p.Profile(profileRequest)
	}()
	go func() {
		defer wg.Done()
		info, infoErr = p.DiveInfo(profileRequest)
	}()
	wg.Wait()

	if profileErr != nil {
		return nil, fmt.Errorf("profile: %w", profileErr)
	}
	if infoErr != nil {
		return nil, fmt.Errorf("dive info: %w", infoErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &DiveResult{
		Profile:        profile.Profile,
		Events:         profile.Events,
		NoDeco:         info.NoDeco,
		Otu:            info.Otu,
		Cns:            info.Cns,
		HighestDensity: info.HighestDensity,
		AverageDepth:   profile.Profile.Segments.AverageDepth(),
		Tanks:          request.Tanks,
		NoDecoExceeded: ToMinutes(request.Plan.Duration()) > float64(info.NoDeco),
		TurnTime:       Floor(ToMinutes(request.Plan.Duration())/2, 0),
	}

	if !profile.Profile.EndsOnSurface() {
		p.logger.Info("Профиль не рассчитан", zap.Int("ошибок", len(profile.Profile.Errors)))
		result.CalculationFailed = true
		return result, nil
	}

	consumption, err := p.consumption.Calculate(ConsumptionRequest{
		Plan:    request.Plan,
		Profile: profile.Profile.Segments,
		Options: options,
		Diver:   request.Diver,
		Tanks:   request.Tanks,
	})
	if err != nil {
		return nil, fmt.Errorf("consumption: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.TimeToSurface = consumption.TimeToSurface
	result.MaxBottomTime = consumption.MaxBottomTime
	result.Tanks = consumption.Tanks
	result.NotEnoughGas = consumption.NotEnoughGas
	result.EmergencyAscentStart = ascentStartTime(request.Plan)
	result.TurnPressure = turnPressure(consumption.Tanks)

	p.logger.Info("Погружение рассчитано",
		zap.Int("ndl", result.NoDeco),
		zap.Int("время всплытия", result.TimeToSurface),
		zap.Int("максимальное время", result.MaxBottomTime),
		zap.Bool("недостаточно газа", result.NotEnoughGas))

	return result, nil
}

// ascentStartTime конец последнего участка на максимальной глубине, секунды.
func ascentStartTime(plan Segments) float64 {
	return plan[:plan.StartAscentIndex()+1].Duration()
}

// turnPressure давление первого баллона, при котором израсходована половина газа.
func turnPressure(tanks []Tank) float64 {
	if len(tanks) == 0 {
		return 0
	}
	first := tanks[0]
	return first.StartPressure - math.Floor(first.Consumed/2)
}
