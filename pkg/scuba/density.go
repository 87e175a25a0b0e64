package scuba

const (
	// RecommendedMaxDensity рекомендуемый предел плотности смеси, г/л
	RecommendedMaxDensity = 5.7
	// HardMaxDensity предельная плотность смеси, г/л
	HardMaxDensity = 6.2

	// плотность газов при 1 бар, г/л
	oxygenDensity   = 1.429
	nitrogenDensity = 1.2506
	heliumDensity   = 0.1786
)

// DensityAt плотность смеси на глубине.
type DensityAt struct {
	Gas     Gas     `json:"gas" msgpack:"gas"`
	Depth   float64 `json:"depth" msgpack:"depth"`
	Density float64 `json:"density" msgpack:"density"`
}

// GasDensity плотность смеси в г/л на глубине.
func GasDensity(gas Gas, depth float64, converter DepthConverter) float64 {
	surfaceDensity := gas.O2*oxygenDensity + gas.N2()*nitrogenDensity + gas.He*heliumDensity
	return converter.ToBar(depth) * surfaceDensity
}

// HighestDensity наибольшая плотность смеси среди участков, оценивается
// на максимальной глубине каждого участка.
func HighestDensity(segments Segments, converter DepthConverter) DensityAt {
	highest := DensityAt{}
	for _, segment := range segments {
		depth := segment.MaxDepth()
		density := GasDensity(segment.Gas, depth, converter)
		if density > highest.Density {
			highest = DensityAt{Gas: segment.Gas, Depth: depth, Density: density}
		}
	}
	return highest
}
