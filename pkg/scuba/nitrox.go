package scuba

// NitroxCalculator калькулятор найтрокса. Доли кислорода задаются в процентах.
// Направление округления выбрано в безопасную сторону: MOD и лучшая смесь
// вниз, EAD и парциальное давление вверх.
type NitroxCalculator struct {
	converter DepthConverter
}

func NewNitroxCalculator(converter DepthConverter) NitroxCalculator {
	return NitroxCalculator{converter: converter}
}

// BestMix процент кислорода для ppO2 на глубине.
func (n NitroxCalculator) BestMix(ppO2, depth float64) float64 {
	result := BestMix(ppO2, depth, n.converter) * 100
	return Floor(result, 2)
}

// Ead эквивалентная воздушная глубина в метрах.
func (n NitroxCalculator) Ead(percentO2, depth float64) float64 {
	result := Ead(percentO2/100, depth)
	return Ceil(result, 2)
}

// Mod максимальная рабочая глубина в метрах.
func (n NitroxCalculator) Mod(ppO2, percentO2 float64) float64 {
	bars := Mod(ppO2, percentO2/100)
	return Floor(n.converter.FromBar(bars), 2)
}

// GasSwitch рекомендуемая глубина переключения: остановка не глубже MOD.
func (n NitroxCalculator) GasSwitch(ppO2, percentO2 float64) float64 {
	return NewGas(percentO2/100, 0).SwitchDepth(ppO2, n.converter, DefaultStopDistance)
}

// PartialPressure ppO2 смеси на глубине.
func (n NitroxCalculator) PartialPressure(percentO2, depth float64) float64 {
	bars := n.converter.ToBar(depth)
	result := PartialPressure(bars, percentO2) / 100
	return Ceil(result, 2)
}
