package scuba

import "math"

// Round округляет значение до заданного количества знаков.
func Round(value float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(value*p) / p
}

// Floor округляет вниз до заданного количества знаков.
func Floor(value float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Floor(value*p) / p
}

// Ceil округляет вверх до заданного количества знаков.
func Ceil(value float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Ceil(value*p) / p
}
