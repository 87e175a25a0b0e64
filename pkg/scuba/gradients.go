package scuba

import "math"

// минимальная глубина привязки gfLow, бар ниже поверхности
const gfLowAnchorDepth = 1.0

// GradientFactors потолок с градиент факторами: gfLow действует на глубине
// первой остановки, gfHigh на поверхности, между ними линейно по давлению.
type GradientFactors struct {
	converter DepthConverter
	gfLow     float64
	gfHigh    float64
	// самое глубокое давление потолка по gfLow за погружение
	lowestCeiling float64
}

func NewGradientFactors(converter DepthConverter, gfLow, gfHigh float64) GradientFactors {
	return GradientFactors{
		converter:     converter,
		gfLow:         gfLow,
		gfHigh:        gfHigh,
		lowestCeiling: converter.SurfacePressure() + gfLowAnchorDepth,
	}
}

// Ceiling текущий потолок в метрах, 0 если остановка не нужна.
func (g *GradientFactors) Ceiling(tissues *Tissues) float64 {
	g.lowestCeiling = math.Max(g.lowestCeiling, tissues.Ceiling(g.gfLow))

	surface := g.converter.SurfacePressure()
	anchor := g.lowestCeiling
	tolerated := math.Inf(-1)
	for i := range tissues {
		tolerated = math.Max(tolerated, g.tolerated(tissues[i], surface, anchor))
	}

	depth := g.converter.FromBar(tolerated)
	return math.Max(0, depth)
}

func (g *GradientFactors) tolerated(tissue Tissue, surface, anchor float64) float64 {
	total, a, b := tissue.coefficients()
	highLimit := surface + g.gfHigh*(a+surface/b-surface)
	lowLimit := anchor + g.gfLow*(a+anchor/b-anchor)

	if lowLimit <= highLimit {
		return tissue.tolerated(g.gfHigh)
	}

	return surface + (total-highLimit)*(anchor-surface)/(lowLimit-highLimit)
}
