package scuba

import (
	"fmt"
	"math"
	"strings"
)

// Salinity тип воды, определяет плотность при пересчете глубины в давление.
type Salinity int

const (
	SalinityFresh    Salinity = 1
	SalinityBrackish Salinity = 2
	SalinitySalt     Salinity = 3
)

const (
	// Gravity ускорение свободного падения, м/с2
	Gravity = 9.80665
	// StandardPressure давление на уровне моря, бар
	StandardPressure = 1.01325

	freshWaterDensity    = 1000.0
	brackishWaterDensity = 1020.0
	saltWaterDensity     = 1030.0

	// стандартная атмосфера для барометрической формулы
	seaLevelTemperature = 288.15
	temperatureLapse    = -0.0065
	airMolarMass        = 0.0289644
	gasConstant         = 8.31432

	pascalsPerBar = 100000.0
)

// Density возвращает плотность воды в кг/м3.
func (s Salinity) Density() float64 {
	switch s {
	case SalinityBrackish:
		return brackishWaterDensity
	case SalinitySalt:
		return saltWaterDensity
	default:
		return freshWaterDensity
	}
}

func (s Salinity) String() string {
	switch s {
	case SalinityFresh:
		return "fresh"
	case SalinityBrackish:
		return "brackish"
	case SalinitySalt:
		return "salt"
	default:
		return fmt.Sprintf("salinity(%d)", int(s))
	}
}

// ParseSalinity разбирает название типа воды.
func ParseSalinity(value string) (Salinity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "fresh", "1":
		return SalinityFresh, nil
	case "brackish", "en13319", "2":
		return SalinityBrackish, nil
	case "salt", "sea", "3":
		return SalinitySalt, nil
	default:
		return 0, fmt.Errorf("unknown salinity %q", value)
	}
}

// AltitudePressure рассчитывает атмосферное давление (бар) на высоте в метрах
// по барометрической формуле.
func AltitudePressure(altitude float64) float64 {
	if altitude <= 0 {
		return StandardPressure
	}

	base := seaLevelTemperature / (seaLevelTemperature + temperatureLapse*altitude)
	exponent := Gravity * airMolarMass / (gasConstant * temperatureLapse)
	return StandardPressure * math.Pow(base, exponent)
}

// DepthConverter пересчитывает глубину в абсолютное давление и обратно.
// Единственное место, где хранится формула давления.
type DepthConverter struct {
	density         float64
	surfacePressure float64
}

func NewDepthConverter(salinity Salinity, altitude float64) DepthConverter {
	return DepthConverter{
		density:         salinity.Density(),
		surfacePressure: AltitudePressure(altitude),
	}
}

// SeaLevelConverter конвертер для уровня моря, используется для номинальных
// глубин переключения газов.
func SeaLevelConverter(salinity Salinity) DepthConverter {
	return NewDepthConverter(salinity, 0)
}

func (c DepthConverter) SurfacePressure() float64 {
	return c.surfacePressure
}

// ToBar возвращает абсолютное давление на глубине в барах.
func (c DepthConverter) ToBar(depth float64) float64 {
	return c.surfacePressure + depth*c.density*Gravity/pascalsPerBar
}

// FromBar возвращает глубину для абсолютного давления.
func (c DepthConverter) FromBar(bars float64) float64 {
	return (bars - c.surfacePressure) * pascalsPerBar / (c.density * Gravity)
}
