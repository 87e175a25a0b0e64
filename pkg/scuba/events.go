package scuba

import (
	"fmt"
	"slices"
)

// EventType тип события профиля.
type EventType int

const (
	EventLowPpO2 EventType = iota + 1
	EventHighPpO2
	EventHighAscentSpeed
	EventHighDescentSpeed
	EventBrokenCeiling
	EventGasSwitch
	EventIsobaricCounterDiffusion
	EventNoDecoEnd
	EventSafetyStopStart
	EventMaxEndExceeded
	EventHighGasDensity
	EventError
)

var eventNames = map[EventType]string{
	EventLowPpO2:                  "low_ppo2",
	EventHighPpO2:                 "high_ppo2",
	EventHighAscentSpeed:          "high_ascent_speed",
	EventHighDescentSpeed:         "high_descent_speed",
	EventBrokenCeiling:            "broken_ceiling",
	EventGasSwitch:                "gas_switch",
	EventIsobaricCounterDiffusion: "isobaric_counter_diffusion",
	EventNoDecoEnd:                "no_deco_end",
	EventSafetyStopStart:          "safety_stop_start",
	EventMaxEndExceeded:           "max_end_exceeded",
	EventHighGasDensity:           "high_gas_density",
	EventError:                    "error",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event предупреждение или информация в момент времени Time (секунды).
type Event struct {
	Type    EventType `json:"type" msgpack:"type"`
	Time    float64   `json:"time" msgpack:"time"`
	Depth   float64   `json:"depth" msgpack:"depth"`
	Gas     Gas       `json:"gas" msgpack:"gas"`
	Message string    `json:"message,omitempty" msgpack:"message,omitempty"`
}

const (
	// допуск глубины над потолком
	brokenCeilingTolerance = 0.1
	// допуск сравнения скоростей, м/мин
	speedLimitTolerance = 1e-6
	// доля падения гелия, при превышении которой рост азота опасен
	icdRatio = 5.0
)

// ProfileEvents события рассчитанного профиля, упорядоченные по времени.
// Повторяющиеся состояния (низкий ppO2, превышение END и т.п.) дают одно
// событие на вход в состояние.
func ProfileEvents(profile *CalculatedProfile, options Options) []Event {
	e := &eventsCollector{
		profile:   profile,
		options:   options,
		converter: options.DepthConverter(),
		levels:    NewDepthLevels(options),
		maxDepth:  profile.Segments.MaxDepth(),
	}
	e.collect()

	slices.SortStableFunc(e.events, func(a, b Event) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	return e.events
}

type eventsCollector struct {
	profile   *CalculatedProfile
	options   Options
	converter DepthConverter
	levels    DepthLevels
	maxDepth  float64
	events    []Event

	lowPpO2   bool
	highPpO2  bool
	highEnd   bool
	highDense bool
}

func (e *eventsCollector) add(eventType EventType, time, depth float64, gas Gas, message string) {
	e.events = append(e.events, Event{Type: eventType, Time: time, Depth: depth, Gas: gas, Message: message})
}

func (e *eventsCollector) collect() {
	starts := e.segmentStarts()

	for _, profileError := range e.profile.Errors {
		time := 0.0
		if profileError.Segment >= 0 && profileError.Segment < len(starts) {
			time = starts[profileError.Segment]
		}
		e.add(EventError, time, 0, Gas{}, profileError.Message)
	}

	if e.profile.HasErrors() {
		return
	}

	for i, segment := range e.profile.Segments {
		start := starts[i]
		if i > 0 {
			e.gasSwitch(e.profile.Segments[i-1], segment, start)
		}
		e.ppO2(i, segment, start)
		e.speeds(segment, start)
		e.narcosis(segment, start)
		e.density(segment, start)
	}

	e.ceilings(starts)
	e.safetyStop(starts)
}

func (e *eventsCollector) segmentStarts() []float64 {
	starts := make([]float64, len(e.profile.Segments))
	elapsed := 0.0
	for i, segment := range e.profile.Segments {
		starts[i] = elapsed
		elapsed += segment.Duration
	}
	return starts
}

func (e *eventsCollector) gasSwitch(previous, current Segment, start float64) {
	if previous.Gas == current.Gas {
		return
	}

	e.add(EventGasSwitch, start, current.StartDepth, current.Gas, "")

	heliumDrop := previous.Gas.He - current.Gas.He
	nitrogenRise := current.Gas.N2() - previous.Gas.N2()
	if heliumDrop > 0 && nitrogenRise > heliumDrop/icdRatio {
		e.add(EventIsobaricCounterDiffusion, start, current.StartDepth, current.Gas,
			fmt.Sprintf("switch from %s to %s", previous.Gas.Name(), current.Gas.Name()))
	}
}

func (e *eventsCollector) ppO2(index int, segment Segment, start float64) {
	lowest := segment.Gas.PartialPressure(segment.MinDepth(), e.converter)
	low := lowest < MinPpO2
	if low && !e.lowPpO2 {
		e.add(EventLowPpO2, start, segment.MinDepth(), segment.Gas, "")
	}
	e.lowPpO2 = low

	limit := e.options.MaxDecoPpO2
	if index < e.profile.UserSegments {
		limit = e.options.MaxPpO2
	}
	highest := Round(segment.Gas.PartialPressure(segment.MaxDepth(), e.converter), 2)
	high := highest > limit
	if high && !e.highPpO2 {
		e.add(EventHighPpO2, start, segment.MaxDepth(), segment.Gas, fmt.Sprintf("ppO2 %.2f", highest))
	}
	e.highPpO2 = high
}

func (e *eventsCollector) speeds(segment Segment, start float64) {
	speed := segment.SpeedPerMinute()
	if segment.IsAscent() && -speed > e.options.MaxAscentSpeed()+speedLimitTolerance {
		e.add(EventHighAscentSpeed, start, segment.StartDepth, segment.Gas, fmt.Sprintf("%.1f m/min", -speed))
	}

	if segment.IsDescent() && speed > e.options.DescentSpeed+speedLimitTolerance {
		e.add(EventHighDescentSpeed, start, segment.StartDepth, segment.Gas, fmt.Sprintf("%.1f m/min", speed))
	}
}

func (e *eventsCollector) narcosis(segment Segment, start float64) {
	end := Round(segment.Gas.End(segment.MaxDepth(), e.converter, e.options.OxygenNarcotic), 2)
	exceeded := end > e.options.MaxEND
	if exceeded && !e.highEnd {
		e.add(EventMaxEndExceeded, start, segment.MaxDepth(), segment.Gas, fmt.Sprintf("END %.1f m", end))
	}
	e.highEnd = exceeded
}

func (e *eventsCollector) density(segment Segment, start float64) {
	density := GasDensity(segment.Gas, segment.MaxDepth(), e.converter)
	dense := density > RecommendedMaxDensity
	if dense && !e.highDense {
		e.add(EventHighGasDensity, start, segment.MaxDepth(), segment.Gas, fmt.Sprintf("%.2f g/l", density))
	}
	e.highDense = dense
}

// ceilings сравнивает глубину профиля с потолком в каждой точке.
func (e *eventsCollector) ceilings(starts []float64) {
	segments := e.profile.Segments
	if len(segments) == 0 {
		return
	}

	userEnd := 0.0
	if e.profile.UserSegments > 0 && e.profile.UserSegments <= len(segments) {
		userEnd = starts[e.profile.UserSegments-1] + segments[e.profile.UserSegments-1].Duration
	}

	index := 0
	broken := false
	noDecoReported := false
	for _, ceiling := range e.profile.Ceilings {
		for index < len(segments)-1 && ceiling.Time > starts[index]+segments[index].Duration {
			index++
		}
		segment := segments[index]
		depth := segment.DepthAt(ceiling.Time - starts[index])

		if !noDecoReported && ceiling.Depth > 0 && ceiling.Time <= userEnd {
			e.add(EventNoDecoEnd, ceiling.Time, depth, segment.Gas, "")
			noDecoReported = true
		}

		below := depth < ceiling.Depth-brokenCeilingTolerance
		if below && !broken {
			e.add(EventBrokenCeiling, ceiling.Time, depth, segment.Gas,
				fmt.Sprintf("ceiling %.1f m", ceiling.Depth))
		}
		broken = below
	}
}

// safetyStop начало остановки безопасности на последней остановке всплытия.
func (e *eventsCollector) safetyStop(starts []float64) {
	segments := e.profile.Segments
	for i := len(segments) - 1; i >= e.profile.UserSegments && i >= 0; i-- {
		segment := segments[i]
		if !segment.IsFlat() || segment.Duration < SafetyStopDuration {
			continue
		}

		if !e.levels.AddSafetyStop(segment.StartDepth, e.maxDepth) {
			return
		}

		time := starts[i] + segment.Duration - SafetyStopDuration
		e.add(EventSafetyStopStart, time, segment.StartDepth, segment.Gas, "")
		return
	}
}
