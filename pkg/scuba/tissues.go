package scuba

import "math"

const CompartmentCount = 16

// Tissue текущее насыщение одного отсека.
type Tissue struct {
	Compartment
	PN2 float64
	PHe float64
}

// Tissues состояние всех отсеков. Массив, поэтому копируется присваиванием.
type Tissues [CompartmentCount]Tissue

// NewTissues отсеки в равновесии с воздухом при давлении на поверхности.
func NewTissues(surfacePressure float64) Tissues {
	var tissues Tissues
	inspired := (surfacePressure - waterVapourPressure) * airN2Fraction
	for i := range tissues {
		tissues[i] = Tissue{
			Compartment: ZHL16C[i],
			PN2:         inspired,
		}
	}
	return tissues
}

// LoadSegment насыщает отсеки за участок с линейным изменением давления
// (уравнение Шрайнера). Порядок вызовов важен: состояние зависит от пути.
func (t *Tissues) LoadSegment(startPressure, endPressure, duration float64, gas Gas) {
	if duration <= 0 {
		return
	}

	rate := (endPressure - startPressure) / duration
	n2 := gas.N2()
	for i := range t {
		tissue := &t[i]
		tissue.PN2 = schreiner(tissue.PN2, startPressure, rate, duration, n2, tissue.N2HalfTime)
		tissue.PHe = schreiner(tissue.PHe, startPressure, rate, duration, gas.He, tissue.HeHalfTime)
	}
}

func schreiner(tissuePressure, ambient, rate, duration, fraction, halfTime float64) float64 {
	k := math.Ln2 / ToSeconds(halfTime)
	inspired := (ambient - waterVapourPressure) * fraction
	gasRate := rate * fraction
	return inspired + gasRate*(duration-1/k) -
		(inspired-tissuePressure-gasRate/k)*math.Exp(-k*duration)
}

// coefficients коэффициенты a и b, взвешенные по парциальным давлениям.
func (t Tissue) coefficients() (total, a, b float64) {
	total = t.PN2 + t.PHe
	if total <= 0 {
		return 0, t.N2A, t.N2B
	}

	a = (t.N2A*t.PN2 + t.HeA*t.PHe) / total
	b = (t.N2B*t.PN2 + t.HeB*t.PHe) / total
	return total, a, b
}

// tolerated минимальное допустимое давление окружающей среды для отсека.
func (t Tissue) tolerated(gf float64) float64 {
	total, a, b := t.coefficients()
	return (total - gf*a) / (1 - gf + gf/b)
}

// Ceiling минимальное допустимое давление окружающей среды (бар) по самому
// нагруженному отсеку для заданного градиент фактора.
func (t *Tissues) Ceiling(gf float64) float64 {
	ceiling := math.Inf(-1)
	for i := range t {
		ceiling = math.Max(ceiling, t[i].tolerated(gf))
	}
	return ceiling
}
