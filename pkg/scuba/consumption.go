package scuba

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	// MinimumRockBottom минимальный резерв первого баллона, бар
	MinimumRockBottom = 30

	// шаг поиска интервала максимального времени
	maxBottomTimeStep = 40 * OneMinute
	// точность поиска максимального времени
	maxBottomTimePrecision = OneSecond
	// верхняя граница добавляемого времени при поиске
	maxBottomTimeLimit = 2 * 24 * OneHour

	minimumConsumptionSegments = 3
)

var ErrNotEnoughSegments = errors.New("profile needs to contain at least three segments")

// TankUsage израсходованное давление и резерв баллона, бар.
type TankUsage struct {
	Consumed float64 `json:"consumed" msgpack:"consumed"`
	Reserve  float64 `json:"reserve" msgpack:"reserve"`
}

// TankConsumption расход по идентификаторам баллонов.
type TankConsumption map[int]TankUsage

// Apply копии баллонов с записанным расходом и резервом.
// Баллоны, отсутствующие в расходе, копируются без изменений.
func (c TankConsumption) Apply(tanks []Tank) []Tank {
	updated := make([]Tank, len(tanks))
	for i, tank := range tanks {
		if usage, ok := c[tank.ID]; ok {
			tank.Consumed = usage.Consumed
			tank.Reserve = usage.Reserve
		}
		updated[i] = tank
	}
	return updated
}

// ConsumptionConfig конфигурация расчета расхода.
type ConsumptionConfig struct {
	Logger *zap.Logger
}

// Consumption расход газа из баллонов, резерв и максимальное время.
// Баллоны вызывающего не изменяются.
type Consumption struct {
	algorithm *Algorithm
	logger    *zap.Logger
}

func NewConsumption(config ConsumptionConfig) *Consumption {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Consumption{
		algorithm: NewAlgorithm(AlgorithmConfig{Logger: config.Logger}),
		logger:    config.Logger,
	}
}

// ConsumeFromTanks распределяет газ профиля по баллонам. Участки с баллоном
// расходуют его, остаток и участки без баллона списываются по смеси
// с последнего баллона к первому. Резерв считается по аварийному всплытию
// со стрессовым SAC с первого баллона к последнему.
func (c *Consumption) ConsumeFromTanks(segments, emergencyAscent Segments, tanks []Tank, diver Diver, options Options) (TankConsumption, error) {
	if len(segments) < minimumConsumptionSegments {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughSegments, len(segments))
	}
	if err := ValidateTanks(tanks); err != nil {
		return nil, err
	}
	if err := diver.Validate(); err != nil {
		return nil, err
	}

	state := ResetConsumption(tanks)
	byID := make(map[int]int, len(state))
	for i, tank := range state {
		byID[tank.ID] = i
	}

	converter := options.DepthConverter()
	remaining := make(map[Gas]float64)

	for i, segment := range segments {
		liters := consumedBySegment(segment, diver.SAC, converter)
		if segment.TankID == 0 {
			remaining[segment.Gas] += liters
			continue
		}

		index, ok := byID[segment.TankID]
		if !ok {
			return nil, fmt.Errorf("%w: segment %d uses tank %d", ErrUnknownTank, i, segment.TankID)
		}
		remaining[segment.Gas] += consumeFromTank(&state[index], liters)
	}

	// сначала стейджи, затем донный баллон
	for i := len(state) - 1; i >= 0; i-- {
		gas := state[i].Gas
		remaining[gas] = consumeFromTank(&state[i], remaining[gas])
	}

	reserve := make(map[Gas]float64)
	for _, segment := range emergencyAscent {
		reserve[segment.Gas] += consumedBySegment(segment, diver.StressSAC(), converter)
	}

	for i := range state {
		gas := state[i].Gas
		reserve[gas] = addReserveToTank(&state[i], reserve[gas])
	}

	if state[0].Reserve < MinimumRockBottom {
		state[0].Reserve = MinimumRockBottom
	}

	consumption := make(TankConsumption, len(state))
	for _, tank := range state {
		consumption[tank.ID] = TankUsage{Consumed: tank.Consumed, Reserve: tank.Reserve}
	}
	return consumption, nil
}

// validateTankReferences все баллоны участков должны быть среди tanks.
func validateTankReferences(segments Segments, tanks []Tank) error {
	known := make(map[int]bool, len(tanks))
	for _, tank := range tanks {
		known[tank.ID] = true
	}

	for i, segment := range segments {
		if segment.TankID != 0 && !known[segment.TankID] {
			return fmt.Errorf("%w: segment %d uses tank %d", ErrUnknownTank, i, segment.TankID)
		}
	}
	return nil
}

// consumedBySegment литры газа на средней глубине участка.
func consumedBySegment(segment Segment, sac float64, converter DepthConverter) float64 {
	return ToMinutes(segment.Duration) * converter.ToBar(segment.AverageDepth()) * sac
}

// consumeFromTank списывает литры из баллона, возвращает не поместившийся остаток.
func consumeFromTank(tank *Tank, liters float64) float64 {
	bars := math.Min(barsFromLiters(liters, tank.Size), math.Max(0, tank.Remaining()))
	tank.Consumed += bars
	return remainingLiters(liters, bars, tank.Size)
}

func addReserveToTank(tank *Tank, liters float64) float64 {
	bars := barsFromLiters(liters, tank.Size)
	if bars+tank.Reserve > tank.StartPressure {
		bars = tank.StartPressure - tank.Reserve
	}
	tank.Reserve += bars
	return remainingLiters(liters, bars, tank.Size)
}

func remainingLiters(liters, bars, size float64) float64 {
	// бары округлены вверх
	return math.Max(0, liters-bars*size)
}

// EmergencyAscent всплытие с конца последнего участка на максимальной глубине
// плана, начинающееся остановкой для решения проблемы. Возвращает пустой
// профиль, если всплытие не может быть рассчитано.
func (c *Consumption) EmergencyAscent(plan Segments, tanks []Tank, options Options) (Segments, error) {
	if err := ValidateTanks(tanks); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	truncated := plan[:plan.StartAscentIndex()+1].Copy()
	profile, err := c.algorithm.CalculateDecompression(options, GasesFromTanks(tanks), truncated)
	if err != nil {
		return nil, err
	}

	if profile.HasErrors() {
		c.logger.Debug("Аварийное всплытие не рассчитано", zap.Int("ошибок", len(profile.Errors)))
		return Segments{}, nil
	}

	return withProblemSolving(profile.Ascent(), options), nil
}

// withProblemSolving добавляет перед всплытием остановку на глубине его начала.
func withProblemSolving(ascent Segments, options Options) Segments {
	if len(ascent) == 0 {
		return ascent
	}

	duration := ToSeconds(options.ProblemSolvingDuration)
	depth := ascent[0].StartDepth
	solving := Segment{StartDepth: depth, EndDepth: depth, Duration: duration, Gas: ascent[0].Gas}

	segments := make(Segments, 0, len(ascent)+1)
	segments = append(segments, solving)
	return append(segments, ascent...)
}

// TimeToSurface длительность аварийного всплытия в целых минутах.
func TimeToSurface(emergencyAscent Segments) int {
	// шум суммирования не должен добавлять минуту
	return int(math.Ceil(Round(ToMinutes(emergencyAscent.Duration()), 6)))
}

// MaxBottomTime максимальная длительность погружения в минутах, при которой
// в баллонах остается резерв. План продлевается последним участком.
// Возвращает 0, если газа не хватает уже на заданный план.
func (c *Consumption) MaxBottomTime(plan Segments, tanks []Tank, diver Diver, options Options) (int, error) {
	if err := ValidateTanks(tanks); err != nil {
		return 0, err
	}
	if err := diver.Validate(); err != nil {
		return 0, err
	}
	if err := validateTankReferences(plan, tanks); err != nil {
		return 0, err
	}

	prepared, errs, err := c.algorithm.prepare(options, GasesFromTanks(tanks), plan)
	if err != nil {
		return 0, err
	}
	if len(errs) > 0 {
		return 0, nil
	}

	last := plan.Last()
	hasReserve := func(added float64) bool {
		extra := Segment{StartDepth: last.EndDepth, EndDepth: last.EndDepth, Duration: added, Gas: last.Gas}
		profile := c.algorithm.extend(prepared, extra)
		if profile.HasErrors() {
			return false
		}

		emergency := withProblemSolving(profile.Ascent(), options)
		consumption, err := c.ConsumeFromTanks(profile.Segments, emergency, tanks, diver, options)
		if err != nil {
			return false
		}
		return HaveReserve(consumption.Apply(tanks))
	}

	added := 0.0
	for hasReserve(added) && added < maxBottomTimeLimit {
		added += maxBottomTimeStep
	}

	left := math.Max(0, added-maxBottomTimeStep)
	right := added
	for right-left > maxBottomTimePrecision {
		middle := left + (right-left)/2
		if hasReserve(middle) {
			left = middle
		} else {
			right = middle
		}
	}

	if left == 0 {
		return 0, nil
	}

	maxTime := int(math.Floor(ToMinutes(plan.Duration() + left)))
	c.logger.Debug("Максимальное время рассчитано", zap.Int("минут", maxTime))
	return maxTime, nil
}

// ConsumptionRequest профиль с рассчитанным всплытием и исходный план.
type ConsumptionRequest struct {
	Plan    Segments `json:"plan" msgpack:"plan"`
	Profile Segments `json:"profile" msgpack:"profile"`
	Options Options  `json:"options" msgpack:"options"`
	Diver   Diver    `json:"diver" msgpack:"diver"`
	Tanks   []Tank   `json:"tanks" msgpack:"tanks"`
}

// ConsumptionResult время в минутах, баллоны с записанным расходом.
type ConsumptionResult struct {
	MaxBottomTime   int      `json:"max_bottom_time" msgpack:"max_bottom_time"`
	TimeToSurface   int      `json:"time_to_surface" msgpack:"time_to_surface"`
	Tanks           []Tank   `json:"tanks" msgpack:"tanks"`
	EmergencyAscent Segments `json:"emergency_ascent" msgpack:"emergency_ascent"`
	NotEnoughGas    bool     `json:"not_enough_gas" msgpack:"not_enough_gas"`
}

// Calculate расход, резерв, максимальное время и время всплытия.
func (c *Consumption) Calculate(request ConsumptionRequest) (*ConsumptionResult, error) {
	emergency, err := c.EmergencyAscent(request.Plan, request.Tanks, request.Options)
	if err != nil {
		return nil, fmt.Errorf("emergency ascent: %w", err)
	}

	consumption, err := c.ConsumeFromTanks(request.Profile, emergency, request.Tanks, request.Diver, request.Options)
	if err != nil {
		return nil, fmt.Errorf("consume from tanks: %w", err)
	}

	maxTime, err := c.MaxBottomTime(request.Plan, request.Tanks, request.Diver, request.Options)
	if err != nil {
		return nil, fmt.Errorf("max bottom time: %w", err)
	}

	tanks := consumption.Apply(request.Tanks)
	return &ConsumptionResult{
		MaxBottomTime:   maxTime,
		TimeToSurface:   TimeToSurface(emergency),
		Tanks:           tanks,
		EmergencyAscent: emergency,
		NotEnoughGas:    !HaveReserve(tanks),
	}, nil
}
