package scuba

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidGas = errors.New("invalid gas")

const (
	// MinPpO2 нижняя граница парциального давления кислорода (гипоксия)
	MinPpO2 = 0.18
	// доля азота в воздухе для расчета эквивалентной глубины
	airN2Fraction = 0.79
	// давление водяного пара в легких, бар
	waterVapourPressure = 0.0627
)

// Gas дыхательная смесь, доли кислорода и гелия, азот остаток.
// Сравнивается по значению и может быть ключом map.
type Gas struct {
	O2 float64 `json:"o2" msgpack:"o2" validate:"gt=0,lte=1"`
	He float64 `json:"he" msgpack:"he" validate:"gte=0,lt=1"`
}

var (
	Air          = Gas{O2: 0.209}
	EAN32        = Gas{O2: 0.32}
	EAN36        = Gas{O2: 0.36}
	EAN38        = Gas{O2: 0.38}
	EAN50        = Gas{O2: 0.5}
	Oxygen       = Gas{O2: 1}
	Trimix1845   = Gas{O2: 0.18, He: 0.45}
	Trimix2135   = Gas{O2: 0.21, He: 0.35}
	Trimix1555   = Gas{O2: 0.15, He: 0.55}
	Trimix1070   = Gas{O2: 0.10, He: 0.70}
	Helitrox2525 = Gas{O2: 0.25, He: 0.25}
)

// StandardGases именованные смеси в порядке отображения.
var StandardGases = []NamedGas{
	{Name: "Air", Gas: Air},
	{Name: "EAN32", Gas: EAN32},
	{Name: "EAN36", Gas: EAN36},
	{Name: "EAN38", Gas: EAN38},
	{Name: "EAN50", Gas: EAN50},
	{Name: "Oxygen", Gas: Oxygen},
	{Name: "Trimix 18/45", Gas: Trimix1845},
	{Name: "Trimix 21/35", Gas: Trimix2135},
	{Name: "Trimix 15/55", Gas: Trimix1555},
	{Name: "Trimix 10/70", Gas: Trimix1070},
	{Name: "Helitrox 25/25", Gas: Helitrox2525},
}

type NamedGas struct {
	Name string
	Gas  Gas
}

func NewGas(o2, he float64) Gas {
	return Gas{O2: o2, He: he}
}

// N2 доля азота.
func (g Gas) N2() float64 {
	return math.Max(0, 1-g.O2-g.He)
}

func (g Gas) Validate() error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGas, err)
	}
	if g.O2+g.He > 1 {
		return fmt.Errorf("%w: oxygen and helium exceed 100%%", ErrInvalidGas)
	}
	return nil
}

// Name возвращает стандартное имя смеси.
func (g Gas) Name() string {
	for _, named := range StandardGases {
		if named.Gas == g {
			return named.Name
		}
	}

	o2 := int(math.Round(g.O2 * 100))
	if g.He > 0 {
		return fmt.Sprintf("Trimix %d/%d", o2, int(math.Round(g.He*100)))
	}
	if o2 == 100 {
		return "Oxygen"
	}
	return fmt.Sprintf("EAN%d", o2)
}

func (g Gas) String() string {
	return g.Name()
}

// PartialPressure возвращает парциальное давление кислорода на глубине.
func (g Gas) PartialPressure(depth float64, converter DepthConverter) float64 {
	return PartialPressure(converter.ToBar(depth), g.O2)
}

// Mod максимальная рабочая глубина для заданного ppO2.
func (g Gas) Mod(ppO2 float64, converter DepthConverter) float64 {
	return converter.FromBar(Mod(ppO2, g.O2))
}

// SwitchDepth самая глубокая остановка, где ppO2 смеси с точностью до сотых
// не превышает ppO2.
func (g Gas) SwitchDepth(ppO2 float64, converter DepthConverter, distance float64) float64 {
	bars := Mod(ppO2+ppO2Tolerance, g.O2)
	return FloorToStop(converter.FromBar(bars), distance)
}

// Ceiling минимальная глубина, на которой смесь не гипоксична.
func (g Gas) Ceiling(converter DepthConverter) float64 {
	minimum := converter.FromBar(MinPpO2 / g.O2)
	return math.Max(0, minimum)
}

// End эквивалентная наркотическая глубина.
func (g Gas) End(depth float64, converter DepthConverter, oxygenNarcotic bool) float64 {
	narcotic := g.N2()
	airNarcotic := Air.N2()
	if oxygenNarcotic {
		narcotic += g.O2
		airNarcotic += Air.O2
	}

	bars := converter.ToBar(depth) * narcotic / airNarcotic
	return math.Max(0, converter.FromBar(bars))
}

// PartialPressure парциальное давление компонента с долей fraction.
func PartialPressure(absolutePressure, fraction float64) float64 {
	return absolutePressure * fraction
}

// ppO2Tolerance ppO2 сравнивается с точностью до сотых.
const ppO2Tolerance = 0.005

// Mod абсолютное давление (бар), на котором смесь достигает ppO2.
func Mod(ppO2, fO2 float64) float64 {
	return ppO2 / fO2
}

// BestMix доля кислорода, дающая ppO2 на глубине.
func BestMix(ppO2, depth float64, converter DepthConverter) float64 {
	return ppO2 / converter.ToBar(depth)
}

// Ead эквивалентная воздушная глубина по упрощенной формуле (10 м на бар).
func Ead(fO2, depth float64) float64 {
	fN2 := 1 - fO2
	return (depth+10)*fN2/airN2Fraction - 10
}

// ParseGas разбирает смесь: "air", "ean32", "32", "oxygen", "18/45".
func ParseGas(value string) (Gas, error) {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == "" {
		return Gas{}, fmt.Errorf("%w: empty name", ErrInvalidGas)
	}

	for _, named := range StandardGases {
		if strings.ToLower(named.Name) == text {
			return named.Gas, nil
		}
	}

	switch text {
	case "o2", "oxygen":
		return Oxygen, nil
	}

	text = strings.TrimPrefix(text, "ean")
	text = strings.TrimPrefix(text, "trimix")
	text = strings.TrimSpace(text)

	parts := strings.Split(text, "/")
	if len(parts) > 2 {
		return Gas{}, fmt.Errorf("%w: %q", ErrInvalidGas, value)
	}

	o2, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Gas{}, fmt.Errorf("%w: %q", ErrInvalidGas, value)
	}

	he := 0.0
	if len(parts) == 2 {
		he, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return Gas{}, fmt.Errorf("%w: %q", ErrInvalidGas, value)
		}
	}

	gas := Gas{O2: o2 / 100, He: he / 100}
	if gas.O2 == 0.21 && gas.He == 0 {
		gas = Air
	}

	if err := gas.Validate(); err != nil {
		return Gas{}, err
	}
	return gas, nil
}

// Gases набор смесей, доступных в погружении: донные и деко.
type Gases struct {
	bottom []Gas
	deco   []Gas
}

// NewGases создает набор с одной донной смесью.
func NewGases(bottom Gas, deco ...Gas) Gases {
	gases := Gases{}
	gases.AddBottomGas(bottom)
	for _, gas := range deco {
		gases.AddDecoGas(gas)
	}
	return gases
}

// GasesFromTanks первый баллон донный, остальные деко.
func GasesFromTanks(tanks []Tank) Gases {
	gases := Gases{}
	for i, tank := range tanks {
		if i == 0 {
			gases.AddBottomGas(tank.Gas)
			continue
		}
		gases.AddDecoGas(tank.Gas)
	}
	return gases
}

func (g *Gases) AddBottomGas(gas Gas) {
	if !g.IsRegistered(gas) {
		g.bottom = append(g.bottom, gas)
	}
}

func (g *Gases) AddDecoGas(gas Gas) {
	if !g.IsRegistered(gas) {
		g.deco = append(g.deco, gas)
	}
}

func (g Gases) IsRegistered(gas Gas) bool {
	for _, current := range g.All() {
		if current == gas {
			return true
		}
	}
	return false
}

func (g Gases) All() []Gas {
	all := make([]Gas, 0, len(g.bottom)+len(g.deco))
	all = append(all, g.bottom...)
	return append(all, g.deco...)
}

func (g Gases) Len() int {
	return len(g.bottom) + len(g.deco)
}

func (g Gases) Validate() error {
	if len(g.bottom) == 0 {
		return fmt.Errorf("%w: no bottom gas", ErrInvalidGas)
	}
	for _, gas := range g.All() {
		if err := gas.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BestDecoGas выбирает самую богатую кислородом деко смесь, которую можно
// дышать на глубине: номинальная глубина переключения не мельче текущей
// и END в пределах ограничения.
func (g Gases) BestDecoGas(depth float64, options Options) (Gas, bool) {
	seaLevel := SeaLevelConverter(options.Salinity)
	converter := options.DepthConverter()

	var found Gas
	ok := false
	for _, candidate := range g.deco {
		switchDepth := candidate.SwitchDepth(options.MaxDecoPpO2, seaLevel, options.DecoStopDistance)
		if depth > switchDepth {
			continue
		}

		if candidate.End(depth, converter, options.OxygenNarcotic) > options.MaxEND {
			continue
		}

		if !ok || candidate.O2 > found.O2 || (candidate.O2 == found.O2 && candidate.He < found.He) {
			found = candidate
			ok = true
		}
	}

	return found, ok
}
