package scuba

import "fmt"

// Ceiling минимальная безопасная глубина в момент времени (секунды от начала).
// Depth для графика, Stop тот же потолок на уровне остановки.
type Ceiling struct {
	Time  float64 `json:"time" msgpack:"time"`
	Depth float64 `json:"depth" msgpack:"depth"`
	Stop  float64 `json:"stop" msgpack:"stop"`
}

// ProfileErrorType тип ошибки расчета профиля.
type ProfileErrorType int

const (
	// ErrorGasNotAvailable смесь участка не зарегистрирована в баллонах
	ErrorGasNotAvailable ProfileErrorType = iota + 1
	// ErrorPpO2Exceeded ppO2 участка выше предела деко смесей
	ErrorPpO2Exceeded
	// ErrorDecompressionTooLong декомпрессия длиннее допустимой
	ErrorDecompressionTooLong
)

func (t ProfileErrorType) String() string {
	switch t {
	case ErrorGasNotAvailable:
		return "gas_not_available"
	case ErrorPpO2Exceeded:
		return "ppo2_exceeded"
	case ErrorDecompressionTooLong:
		return "decompression_too_long"
	default:
		return fmt.Sprintf("profile_error(%d)", int(t))
	}
}

// ProfileError ошибка, из-за которой профиль не рассчитан.
type ProfileError struct {
	Type    ProfileErrorType `json:"type" msgpack:"type"`
	Segment int              `json:"segment" msgpack:"segment"`
	Message string           `json:"message" msgpack:"message"`
}

func (e ProfileError) Error() string {
	return e.Message
}

// CalculatedProfile результат расчета. При наличии ошибок участки и потолки
// не пригодны для дальнейших расчетов.
type CalculatedProfile struct {
	Segments     Segments       `json:"segments" msgpack:"segments"`
	Ceilings     []Ceiling      `json:"ceilings" msgpack:"ceilings"`
	Errors       []ProfileError `json:"errors,omitempty" msgpack:"errors,omitempty"`
	UserSegments int            `json:"user_segments" msgpack:"user_segments"`
}

func profileFromErrors(plan Segments, errs []ProfileError) *CalculatedProfile {
	return &CalculatedProfile{
		Segments:     plan.Copy(),
		Ceilings:     []Ceiling{},
		Errors:       errs,
		UserSegments: len(plan),
	}
}

func (p *CalculatedProfile) HasErrors() bool {
	return len(p.Errors) > 0
}

// EndsOnSurface профиль без ошибок, закончен на поверхности.
func (p *CalculatedProfile) EndsOnSurface() bool {
	return !p.HasErrors() && p.Segments.EndsOnSurface()
}

// Ascent рассчитанная часть профиля.
func (p *CalculatedProfile) Ascent() Segments {
	return p.Segments.Ascent(p.UserSegments)
}

// MaxCeiling самый глубокий потолок за погружение.
func (p *CalculatedProfile) MaxCeiling() float64 {
	deepest := 0.0
	for _, ceiling := range p.Ceilings {
		deepest = max(deepest, ceiling.Depth)
	}
	return deepest
}
