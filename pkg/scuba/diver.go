package scuba

import (
	"fmt"
)

// коэффициент SAC в стрессовой ситуации
const stressSacFactor = 3

// Diver параметры дайвера. SAC в литрах в минуту.
type Diver struct {
	SAC         float64 `json:"sac" msgpack:"sac" mapstructure:"sac" validate:"gt=0,lte=100"`
	MaxPpO2     float64 `json:"max_ppo2" msgpack:"max_ppo2" mapstructure:"max_ppo2" validate:"gte=0"`
	MaxDecoPpO2 float64 `json:"max_deco_ppo2" msgpack:"max_deco_ppo2" mapstructure:"max_deco_ppo2" validate:"gte=0"`
}

func DefaultDiver() Diver {
	return Diver{
		SAC:         20,
		MaxPpO2:     1.4,
		MaxDecoPpO2: 1.6,
	}
}

// StressSAC расход газа в стрессовой ситуации.
func (d Diver) StressSAC() float64 {
	return d.SAC * stressSacFactor
}

// ApplyTo переносит ограничения ppO2 дайвера в параметры расчета.
func (d Diver) ApplyTo(options Options) Options {
	if d.MaxPpO2 > 0 {
		options.MaxPpO2 = d.MaxPpO2
	}
	if d.MaxDecoPpO2 > 0 {
		options.MaxDecoPpO2 = d.MaxDecoPpO2
	}
	return options
}

func (d Diver) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid diver: %w", err)
	}
	return nil
}
