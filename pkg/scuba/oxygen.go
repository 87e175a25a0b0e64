package scuba

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ppO2, ниже которого кислородная нагрузка не накапливается
const oxygenToxicityThreshold = 0.5

// OtuCalculator единицы кислородной токсичности по Бейкеру.
type OtuCalculator struct {
	converter DepthConverter
}

func NewOtuCalculator(converter DepthConverter) OtuCalculator {
	return OtuCalculator{converter: converter}
}

// Calculate сумма OTU по участкам.
func (o OtuCalculator) Calculate(segments Segments) float64 {
	parts := make([]float64, len(segments))
	for i, segment := range segments {
		parts[i] = o.segment(segment)
	}
	return floats.Sum(parts)
}

func (o OtuCalculator) segment(segment Segment) float64 {
	minutes := ToMinutes(segment.Duration)
	start := o.converter.ToBar(segment.StartDepth) * segment.Gas.O2
	end := o.converter.ToBar(segment.EndDepth) * segment.Gas.O2

	if segment.IsFlat() {
		return flatOtu(start, minutes)
	}

	low, high := math.Min(start, end), math.Max(start, end)
	if high <= oxygenToxicityThreshold {
		return 0
	}

	// учитываем только часть участка выше порога
	if low < oxygenToxicityThreshold {
		minutes = minutes * (high - oxygenToxicityThreshold) / (high - low)
		low = oxygenToxicityThreshold
	}

	if high == low {
		return flatOtu(high, minutes)
	}

	upper := math.Pow((high-oxygenToxicityThreshold)/oxygenToxicityThreshold, 11.0/6.0)
	lower := math.Pow((low-oxygenToxicityThreshold)/oxygenToxicityThreshold, 11.0/6.0)
	return 3.0 / 11.0 * minutes / (high - low) * (upper - lower)
}

func flatOtu(ppO2, minutes float64) float64 {
	if ppO2 <= oxygenToxicityThreshold {
		return 0
	}
	return minutes * math.Pow((ppO2-oxygenToxicityThreshold)/oxygenToxicityThreshold, 5.0/6.0)
}

// cnsRange предел времени tlim = slope*ppO2 + intercept минут в диапазоне ppO2.
type cnsRange struct {
	low, high        float64
	slope, intercept float64
}

// предельные времена NOAA в линейной аппроксимации
var cnsRanges = []cnsRange{
	{low: 0.5, high: 0.6, slope: -1800, intercept: 1800},
	{low: 0.6, high: 0.7, slope: -1500, intercept: 1620},
	{low: 0.7, high: 0.8, slope: -1200, intercept: 1410},
	{low: 0.8, high: 0.9, slope: -900, intercept: 1170},
	{low: 0.9, high: 1.1, slope: -600, intercept: 900},
	{low: 1.1, high: 1.5, slope: -300, intercept: 570},
	{low: 1.5, high: 1.65, slope: -750, intercept: 1245},
}

// минимальный tlim выше таблицы, минуты
const minimumCnsLimit = 1.0

// CnsCalculator кислородная нагрузка на ЦНС в процентах.
type CnsCalculator struct {
	converter DepthConverter
}

func NewCnsCalculator(converter DepthConverter) CnsCalculator {
	return CnsCalculator{converter: converter}
}

// Calculate сумма CNS % по участкам. Участки с изменением глубины
// интегрируются по секундам в средней точке шага.
func (c CnsCalculator) Calculate(segments Segments) float64 {
	parts := make([]float64, 0, len(segments))
	for _, segment := range segments {
		parts = append(parts, c.segment(segment))
	}
	return floats.Sum(parts) * 100
}

func (c CnsCalculator) segment(segment Segment) float64 {
	if segment.IsFlat() {
		ppO2 := c.converter.ToBar(segment.StartDepth) * segment.Gas.O2
		return fraction(ppO2, ToMinutes(segment.Duration))
	}

	total := 0.0
	for elapsed := 0.0; elapsed < segment.Duration; elapsed += OneSecond {
		part := math.Min(OneSecond, segment.Duration-elapsed)
		depth := segment.DepthAt(elapsed + part/2)
		ppO2 := c.converter.ToBar(depth) * segment.Gas.O2
		total += fraction(ppO2, ToMinutes(part))
	}
	return total
}

func fraction(ppO2, minutes float64) float64 {
	limit := cnsLimit(ppO2)
	if limit <= 0 {
		return 0
	}
	return minutes / limit
}

// cnsLimit предельное время в минутах, 0 если нагрузки нет.
func cnsLimit(ppO2 float64) float64 {
	if ppO2 <= oxygenToxicityThreshold {
		return 0
	}

	for _, r := range cnsRanges {
		if ppO2 <= r.high {
			return r.slope*ppO2 + r.intercept
		}
	}

	last := cnsRanges[len(cnsRanges)-1]
	return math.Max(last.slope*ppO2+last.intercept, minimumCnsLimit)
}
