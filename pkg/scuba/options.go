package scuba

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidOptions = errors.New("invalid options")

var validate = validator.New()

// Options параметры расчета. Передаются по значению в каждую точку входа,
// глобальных настроек у движка нет.
type Options struct {
	// Altitude высота над уровнем моря, м
	Altitude float64  `json:"altitude" msgpack:"altitude" mapstructure:"altitude" validate:"gte=0,lte=5000"`
	Salinity Salinity `json:"salinity" msgpack:"salinity" mapstructure:"salinity" validate:"oneof=1 2 3"`

	GfLow  float64 `json:"gf_low" msgpack:"gf_low" mapstructure:"gf_low" validate:"gt=0,lte=1"`
	GfHigh float64 `json:"gf_high" msgpack:"gf_high" mapstructure:"gf_high" validate:"gt=0,lte=1,gtefield=GfLow"`

	MaxPpO2     float64 `json:"max_ppo2" msgpack:"max_ppo2" mapstructure:"max_ppo2" validate:"gt=0,lte=3"`
	MaxDecoPpO2 float64 `json:"max_deco_ppo2" msgpack:"max_deco_ppo2" mapstructure:"max_deco_ppo2" validate:"gt=0,lte=3,gtefield=MaxPpO2"`
	// MaxEND максимальная эквивалентная наркотическая глубина, м
	MaxEND         float64 `json:"max_end" msgpack:"max_end" mapstructure:"max_end" validate:"gt=0"`
	OxygenNarcotic bool    `json:"oxygen_narcotic" msgpack:"oxygen_narcotic" mapstructure:"oxygen_narcotic"`

	LastStopDepth        float64    `json:"last_stop_depth" msgpack:"last_stop_depth" mapstructure:"last_stop_depth" validate:"gt=0"`
	DecoStopDistance     float64    `json:"deco_stop_distance" msgpack:"deco_stop_distance" mapstructure:"deco_stop_distance" validate:"gt=0"`
	MinimumAutoStopDepth float64    `json:"minimum_auto_stop_depth" msgpack:"minimum_auto_stop_depth" mapstructure:"minimum_auto_stop_depth" validate:"gte=0"`
	SafetyStop           SafetyStop `json:"safety_stop" msgpack:"safety_stop" mapstructure:"safety_stop" validate:"gte=0,lte=2"`

	// скорости в м/мин
	DescentSpeed          float64 `json:"descent_speed" msgpack:"descent_speed" mapstructure:"descent_speed" validate:"gt=0"`
	AscentSpeed50perc     float64 `json:"ascent_speed_50perc" msgpack:"ascent_speed_50perc" mapstructure:"ascent_speed_50perc" validate:"gt=0"`
	AscentSpeed50percTo6m float64 `json:"ascent_speed_50perc_to_6m" msgpack:"ascent_speed_50perc_to_6m" mapstructure:"ascent_speed_50perc_to_6m" validate:"gt=0"`
	AscentSpeed6m         float64 `json:"ascent_speed_6m" msgpack:"ascent_speed_6m" mapstructure:"ascent_speed_6m" validate:"gt=0"`

	// длительности в минутах
	ProblemSolvingDuration float64 `json:"problem_solving_duration" msgpack:"problem_solving_duration" mapstructure:"problem_solving_duration" validate:"gte=0"`
	GasSwitchDuration      float64 `json:"gas_switch_duration" msgpack:"gas_switch_duration" mapstructure:"gas_switch_duration" validate:"gte=0"`
}

// DefaultOptions рекомендуемые значения.
func DefaultOptions() Options {
	return Options{
		Altitude:               0,
		Salinity:               SalinityFresh,
		GfLow:                  0.4,
		GfHigh:                 0.85,
		MaxPpO2:                1.4,
		MaxDecoPpO2:            1.6,
		MaxEND:                 30,
		OxygenNarcotic:         true,
		LastStopDepth:          3,
		DecoStopDistance:       DefaultStopDistance,
		MinimumAutoStopDepth:   10,
		SafetyStop:             SafetyStopAuto,
		DescentSpeed:           18,
		AscentSpeed50perc:      9,
		AscentSpeed50percTo6m:  6,
		AscentSpeed6m:          3,
		ProblemSolvingDuration: 2,
		GasSwitchDuration:      1,
	}
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

func (o Options) DepthConverter() DepthConverter {
	return NewDepthConverter(o.Salinity, o.Altitude)
}

// AscentSpeed скорость всплытия (м/мин) с глубины depth при средней глубине
// плана averageDepth.
func (o Options) AscentSpeed(depth, averageDepth float64) float64 {
	if depth <= 6 {
		return o.AscentSpeed6m
	}

	if depth <= averageDepth/2 {
		return o.AscentSpeed50percTo6m
	}

	return o.AscentSpeed50perc
}

// MaxAscentSpeed наибольшая из настроенных скоростей всплытия.
func (o Options) MaxAscentSpeed() float64 {
	return max(o.AscentSpeed50perc, o.AscentSpeed50percTo6m, o.AscentSpeed6m)
}
