package scuba

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoSegments        = errors.New("plan contains no segments")
	ErrDiscontinuousPlan = errors.New("plan segments are not continuous")
	ErrInvalidSegment    = errors.New("invalid segment")
)

// допуск при сравнении глубин соседних участков
const depthTolerance = 1e-6

// Segment участок профиля. Длительность в секундах, глубины в метрах.
// TankID 0 означает, что баллон не назначен.
type Segment struct {
	StartDepth float64 `json:"start_depth" msgpack:"start_depth" validate:"gte=0"`
	EndDepth   float64 `json:"end_depth" msgpack:"end_depth" validate:"gte=0"`
	Duration   float64 `json:"duration" msgpack:"duration" validate:"gte=0"`
	Gas        Gas     `json:"gas" msgpack:"gas"`
	TankID     int     `json:"tank_id,omitempty" msgpack:"tank_id,omitempty" validate:"gte=0"`
}

// Speed скорость изменения глубины в м/с, положительная при погружении.
func (s Segment) Speed() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return (s.EndDepth - s.StartDepth) / s.Duration
}

// SpeedPerMinute скорость в м/мин.
func (s Segment) SpeedPerMinute() float64 {
	return s.Speed() * OneMinute
}

func (s Segment) AverageDepth() float64 {
	return (s.StartDepth + s.EndDepth) / 2
}

func (s Segment) MaxDepth() float64 {
	return math.Max(s.StartDepth, s.EndDepth)
}

func (s Segment) MinDepth() float64 {
	return math.Min(s.StartDepth, s.EndDepth)
}

func (s Segment) IsFlat() bool {
	return s.StartDepth == s.EndDepth
}

func (s Segment) IsAscent() bool {
	return s.EndDepth < s.StartDepth
}

func (s Segment) IsDescent() bool {
	return s.EndDepth > s.StartDepth
}

// DepthAt глубина через elapsed секунд от начала участка.
func (s Segment) DepthAt(elapsed float64) float64 {
	elapsed = math.Max(0, math.Min(elapsed, s.Duration))
	return s.StartDepth + s.Speed()*elapsed
}

func (s Segment) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSegment, err)
	}
	if err := s.Gas.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSegment, err)
	}
	return nil
}

// Segments последовательность участков, каждый начинается там,
// где закончился предыдущий.
type Segments []Segment

// Add добавляет участок от текущей глубины до endDepth.
func (s *Segments) Add(endDepth float64, gas Gas, duration float64) Segment {
	segment := Segment{
		StartDepth: s.CurrentDepth(),
		EndDepth:   endDepth,
		Duration:   duration,
		Gas:        gas,
	}
	*s = append(*s, segment)
	return segment
}

// AddFlat добавляет участок на текущей глубине.
func (s *Segments) AddFlat(gas Gas, duration float64) Segment {
	return s.Add(s.CurrentDepth(), gas, duration)
}

// CurrentDepth глубина в конце последнего участка.
func (s Segments) CurrentDepth() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].EndDepth
}

func (s Segments) Last() Segment {
	return s[len(s)-1]
}

func (s Segments) Copy() Segments {
	copied := make(Segments, len(s))
	copy(copied, s)
	return copied
}

func (s Segments) durations() []float64 {
	durations := make([]float64, len(s))
	for i, segment := range s {
		durations[i] = segment.Duration
	}
	return durations
}

// Duration общая длительность в секундах.
func (s Segments) Duration() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Sum(s.durations())
}

func (s Segments) MaxDepth() float64 {
	maxDepth := 0.0
	for _, segment := range s {
		maxDepth = math.Max(maxDepth, segment.MaxDepth())
	}
	return maxDepth
}

// AverageDepth средняя глубина, взвешенная по времени.
func (s Segments) AverageDepth() float64 {
	if s.Duration() <= 0 {
		return 0
	}

	depths := make([]float64, len(s))
	for i, segment := range s {
		depths[i] = segment.AverageDepth()
	}
	return stat.Mean(depths, s.durations())
}

// EndsOnSurface профиль закончен на поверхности.
func (s Segments) EndsOnSurface() bool {
	return len(s) > 0 && s.CurrentDepth() == 0
}

// Ascent участки после userSegments пользовательских, т.е. рассчитанное всплытие.
func (s Segments) Ascent(userSegments int) Segments {
	if userSegments >= len(s) {
		return Segments{}
	}
	return s[userSegments:].Copy()
}

// StartAscentIndex индекс последнего участка, заканчивающегося на максимальной
// глубине: с него начинается аварийное всплытие.
func (s Segments) StartAscentIndex() int {
	maxDepth := s.MaxDepth()
	index := 0
	for i, segment := range s {
		if segment.EndDepth == maxDepth {
			index = i
		}
	}
	return index
}

// Validate проверяет каждый участок и непрерывность профиля с поверхности.
func (s Segments) Validate() error {
	if len(s) == 0 {
		return ErrNoSegments
	}

	previous := 0.0
	for i, segment := range s {
		if err := segment.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}

		if math.Abs(segment.StartDepth-previous) > depthTolerance {
			return fmt.Errorf("%w: segment %d starts at %.2f m, previous ends at %.2f m",
				ErrDiscontinuousPlan, i, segment.StartDepth, previous)
		}
		previous = segment.EndDepth
	}

	return nil
}
