package scuba

import "math"

// SacCalculator пересчет между SAC, израсходованными барами и временем.
// Длительности в секундах, SAC в л/мин, глубина средняя за погружение.
type SacCalculator struct {
	converter DepthConverter
}

func NewSacCalculator(converter DepthConverter) SacCalculator {
	return SacCalculator{converter: converter}
}

// Sac расход на поверхности по израсходованному газу.
func (s SacCalculator) Sac(depth, tankSize, usedBars, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	liters := tankSize * usedBars
	return liters / s.converter.ToBar(depth) / ToMinutes(duration)
}

// UsedBars израсходованное давление при заданном SAC.
func (s SacCalculator) UsedBars(depth, tankSize, sac, duration float64) float64 {
	liters := ToMinutes(duration) * s.converter.ToBar(depth) * sac
	return math.Ceil(liters / tankSize)
}

// Duration время, на которое хватит usedBars при заданном SAC.
func (s SacCalculator) Duration(depth, tankSize, usedBars, sac float64) float64 {
	if sac <= 0 {
		return 0
	}
	liters := tankSize * usedBars
	return ToSeconds(liters / s.converter.ToBar(depth) / sac)
}
