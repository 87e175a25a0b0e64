package scuba

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	// MaxAcceptableNdl верхняя граница поиска NDL в минутах
	MaxAcceptableNdl = 1000

	// шаг интегрирования насыщения тканей
	simulationInterval = OneSecond
	// шаг деко остановки
	decoStopStep = OneMinute
	// ограничение длительности всплытия
	maxDecompressionDuration = 3 * 24 * OneHour

	speedTolerance = 1e-9
)

// AlgorithmConfig конфигурация алгоритма Бюльмана.
type AlgorithmConfig struct {
	Logger *zap.Logger
}

// Algorithm рассчитывает декомпрессию по ZH-L16C с градиент факторами.
// Не хранит состояния между вызовами и может использоваться конкурентно.
type Algorithm struct {
	logger *zap.Logger
}

// NewAlgorithm создает алгоритм
func NewAlgorithm(config AlgorithmConfig) *Algorithm {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Algorithm{logger: config.Logger}
}

// CalculateDecompression рассчитывает профиль с всплытием и остановками.
// Некорректные входные данные возвращаются ошибкой, нарушения безопасности
// записываются в Errors профиля.
func (a *Algorithm) CalculateDecompression(options Options, gases Gases, plan Segments) (*CalculatedProfile, error) {
	if err := validateInputs(options, gases, plan); err != nil {
		return nil, err
	}

	if errs := checkPlan(options, gases, plan); len(errs) > 0 {
		a.logger.Debug("Профиль не может быть рассчитан", zap.Int("ошибок", len(errs)))
		return profileFromErrors(plan, errs), nil
	}

	c := newAlgorithmContext(options, gases)
	c.swimPlan(plan)
	profile := a.finish(c, plan)

	a.logger.Debug("Декомпрессия рассчитана",
		zap.Int("участков", len(profile.Segments)),
		zap.Float64("время всплытия, мин", ToMinutes(profile.Ascent().Duration())))
	return profile, nil
}

// NoDecoLimit продлевает последний участок плана поминутно, пока потолок
// не станет ненулевым. Возвращает последнюю целую минуту, после которой ещё
// минута на глубине проходит без потолка, или MaxAcceptableNdl, если предел
// не достигнут.
func (a *Algorithm) NoDecoLimit(options Options, gases Gases, plan Segments) (int, error) {
	if err := validateInputs(options, gases, plan); err != nil {
		return 0, err
	}

	if errs := checkPlan(options, gases, plan); len(errs) > 0 {
		return 0, nil
	}

	c := newAlgorithmContext(options, gases)
	c.swimPlan(plan)

	last := plan.Last()
	limit := ToSeconds(MaxAcceptableNdl)
	// сначала до целой минуты, дальше по минуте
	step := math.Ceil(ToMinutes(c.runTime))*OneMinute - c.runTime
	if step <= 0 {
		step = OneMinute
	}

	for c.firstCeiling < 0 && c.runTime < limit {
		c.swim(Segment{
			StartDepth: last.EndDepth,
			EndDepth:   last.EndDepth,
			Duration:   step,
			Gas:        last.Gas,
		})
		step = OneMinute
	}

	if c.firstCeiling < 0 {
		return MaxAcceptableNdl, nil
	}

	// минута запаса до появления потолка
	ndl := int(math.Ceil(ToMinutes(c.firstCeiling))) - 2
	a.logger.Debug("NDL рассчитан", zap.Int("минут", ndl))
	return max(0, ndl), nil
}

// preparedPlan состояние тканей после пользовательского плана, от которого
// продолжаются пробные профили при поиске максимального времени.
type preparedPlan struct {
	context *algorithmContext
	plan    Segments
}

func (a *Algorithm) prepare(options Options, gases Gases, plan Segments) (*preparedPlan, []ProfileError, error) {
	if err := validateInputs(options, gases, plan); err != nil {
		return nil, nil, err
	}

	if errs := checkPlan(options, gases, plan); len(errs) > 0 {
		return nil, errs, nil
	}

	c := newAlgorithmContext(options, gases)
	c.swimPlan(plan)
	return &preparedPlan{context: c, plan: plan.Copy()}, nil, nil
}

// extend продолжает подготовленный план участком extra и рассчитывает всплытие.
// Результат совпадает с полным расчетом плана с добавленным участком.
func (a *Algorithm) extend(prepared *preparedPlan, extra Segment) *CalculatedProfile {
	c := prepared.context.clone()
	c.swim(extra)
	c.currentGas = extra.Gas

	plan := append(prepared.plan.Copy(), extra)
	return a.finish(c, plan)
}

func (a *Algorithm) finish(c *algorithmContext, plan Segments) *CalculatedProfile {
	c.averageDepth = plan.AverageDepth()
	c.maxDepth = plan.MaxDepth()

	if err := c.ascend(); err != nil {
		a.logger.Debug("Всплытие прервано", zap.String("причина", err.Message))
		return profileFromErrors(plan, []ProfileError{*err})
	}

	return &CalculatedProfile{
		Segments:     mergeAscent(c.segments, len(plan)),
		Ceilings:     c.ceilings,
		UserSegments: len(plan),
	}
}

func validateInputs(options Options, gases Gases, plan Segments) error {
	if err := options.Validate(); err != nil {
		return err
	}
	if err := gases.Validate(); err != nil {
		return err
	}
	return plan.Validate()
}

// checkPlan ошибки пользовательского плана, при которых расчет невозможен.
func checkPlan(options Options, gases Gases, plan Segments) []ProfileError {
	converter := options.DepthConverter()
	var errs []ProfileError

	for i, segment := range plan {
		if !gases.IsRegistered(segment.Gas) {
			errs = append(errs, ProfileError{
				Type:    ErrorGasNotAvailable,
				Segment: i,
				Message: fmt.Sprintf("gas %s used by segment %d is not available in any tank", segment.Gas.Name(), i),
			})
			continue
		}

		ppO2 := Round(segment.Gas.PartialPressure(segment.MaxDepth(), converter), 2)
		if ppO2 > options.MaxDecoPpO2 {
			errs = append(errs, ProfileError{
				Type:    ErrorPpO2Exceeded,
				Segment: i,
				Message: fmt.Sprintf("ppO2 %.2f of %s at %.1f m exceeds %.2f", ppO2, segment.Gas.Name(), segment.MaxDepth(), options.MaxDecoPpO2),
			})
		}
	}

	return errs
}

// mergeAscent сливает соседние рассчитанные участки с одинаковой смесью
// и скоростью, пропуская пустые.
func mergeAscent(segments Segments, userSegments int) Segments {
	merged := segments[:userSegments].Copy()
	for _, segment := range segments[userSegments:] {
		if segment.Duration <= 0 {
			continue
		}

		if len(merged) > userSegments {
			last := &merged[len(merged)-1]
			if last.Gas == segment.Gas && math.Abs(last.Speed()-segment.Speed()) < speedTolerance {
				last.EndDepth = segment.EndDepth
				last.Duration += segment.Duration
				continue
			}
		}

		merged = append(merged, segment)
	}
	return merged
}

type algorithmContext struct {
	options   Options
	gases     Gases
	converter DepthConverter
	levels    DepthLevels
	tissues   Tissues
	gradients GradientFactors

	segments   Segments
	ceilings   []Ceiling
	runTime    float64
	currentGas Gas

	averageDepth float64
	maxDepth     float64
	// время первого ненулевого потолка, -1 если его не было
	firstCeiling float64
}

func newAlgorithmContext(options Options, gases Gases) *algorithmContext {
	converter := options.DepthConverter()
	c := &algorithmContext{
		options:      options,
		gases:        gases,
		converter:    converter,
		levels:       NewDepthLevels(options),
		tissues:      NewTissues(converter.SurfacePressure()),
		gradients:    NewGradientFactors(converter, options.GfLow, options.GfHigh),
		segments:     Segments{},
		firstCeiling: -1,
	}
	c.addCeiling()
	return c
}

func (c *algorithmContext) clone() *algorithmContext {
	copied := *c
	copied.segments = c.segments.Copy()
	copied.ceilings = make([]Ceiling, len(c.ceilings))
	copy(copied.ceilings, c.ceilings)
	return &copied
}

func (c *algorithmContext) currentDepth() float64 {
	return c.segments.CurrentDepth()
}

func (c *algorithmContext) ceiling() float64 {
	return c.gradients.Ceiling(&c.tissues)
}

func (c *algorithmContext) addCeiling() {
	depth := c.ceiling()
	if depth > 0 && c.firstCeiling < 0 {
		c.firstCeiling = c.runTime
	}
	c.ceilings = append(c.ceilings, Ceiling{
		Time:  c.runTime,
		Depth: depth,
		Stop:  c.levels.CeilingStop(depth),
	})
}

func (c *algorithmContext) swimPlan(plan Segments) {
	for _, segment := range plan {
		c.swim(segment)
		c.currentGas = segment.Gas
	}
}

func (c *algorithmContext) swim(segment Segment) {
	c.segments = append(c.segments, segment)
	c.simulate(segment)
}

// simulate насыщает ткани по частям участка, записывая потолок после каждой.
func (c *algorithmContext) simulate(segment Segment) {
	speed := segment.Speed()
	depth := segment.StartDepth

	for elapsed := 0.0; elapsed < segment.Duration; elapsed += simulationInterval {
		part := math.Min(simulationInterval, segment.Duration-elapsed)
		end := depth + speed*part
		c.tissues.LoadSegment(c.converter.ToBar(depth), c.converter.ToBar(end), part, segment.Gas)
		c.runTime += part
		depth = end
		c.addCeiling()
	}
}

// ascend всплытие по уровням остановок: на каждом уровне смена газа,
// деко остановка до очищения следующего уровня и остановка безопасности.
func (c *algorithmContext) ascend() *ProfileError {
	ascentStart := c.runTime
	nextStop := c.levels.NextStop(c.currentDepth())

	for c.currentDepth() > 0 {
		depth := c.currentDepth()
		speed := c.options.AscentSpeed(depth, c.averageDepth)
		c.swim(Segment{
			StartDepth: depth,
			EndDepth:   nextStop,
			Duration:   (depth - nextStop) / speed * OneMinute,
			Gas:        c.currentGas,
		})

		if nextStop == 0 {
			break
		}

		c.trySwitchGas()
		if err := c.stayAtDecoStop(nextStop, ascentStart); err != nil {
			return err
		}
		c.stayAtSafetyStop()
		nextStop = c.levels.NextStop(nextStop)
	}

	return nil
}

func (c *algorithmContext) trySwitchGas() {
	gas, found := c.gases.BestDecoGas(c.currentDepth(), c.options)
	if !found || gas == c.currentGas || gas.O2 <= c.currentGas.O2 {
		return
	}

	c.currentGas = gas
	duration := ToSeconds(c.options.GasSwitchDuration)
	if duration > 0 {
		c.swimFlat(duration)
	}
}

func (c *algorithmContext) stayAtDecoStop(stop, ascentStart float64) *ProfileError {
	next := c.levels.NextStop(stop)
	for c.ceiling() > next {
		if c.runTime-ascentStart > maxDecompressionDuration {
			return &ProfileError{
				Type:    ErrorDecompressionTooLong,
				Segment: len(c.segments) - 1,
				Message: fmt.Sprintf("decompression at %.0f m exceeds %.0f hours", stop, maxDecompressionDuration/OneHour),
			}
		}
		c.swimFlat(decoStopStep)
	}
	return nil
}

func (c *algorithmContext) stayAtSafetyStop() {
	if c.levels.AddSafetyStop(c.currentDepth(), c.maxDepth) {
		c.swimFlat(SafetyStopDuration)
	}
}

func (c *algorithmContext) swimFlat(duration float64) {
	depth := c.currentDepth()
	c.swim(Segment{
		StartDepth: depth,
		EndDepth:   depth,
		Duration:   duration,
		Gas:        c.currentGas,
	})
}
