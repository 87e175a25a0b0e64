package scuba

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidTank = errors.New("invalid tank")
	ErrUnknownTank = errors.New("unknown tank")
)

// Tank баллон. Давления в барах, объем в литрах.
// Consumed и Reserve целые бары, рассчитываются движком.
type Tank struct {
	ID              int     `json:"id" msgpack:"id" validate:"gte=1"`
	Size            float64 `json:"size" msgpack:"size" validate:"gt=0"`
	WorkingPressure float64 `json:"working_pressure" msgpack:"working_pressure" validate:"gte=0"`
	StartPressure   float64 `json:"start_pressure" msgpack:"start_pressure" validate:"gt=0"`
	Gas             Gas     `json:"gas" msgpack:"gas"`
	Consumed        float64 `json:"consumed" msgpack:"consumed" validate:"gte=0"`
	Reserve         float64 `json:"reserve" msgpack:"reserve" validate:"gte=0"`
}

// NewTank баллон с давлением наполнения, равным рабочему.
func NewTank(id int, size, pressure float64, gas Gas) Tank {
	return Tank{
		ID:              id,
		Size:            size,
		WorkingPressure: pressure,
		StartPressure:   pressure,
		Gas:             gas,
	}
}

// EndPressure давление после погружения за вычетом резерва.
func (t Tank) EndPressure() float64 {
	return t.StartPressure - t.Consumed - t.Reserve
}

// Remaining давление, оставшееся в баллоне после погружения.
func (t Tank) Remaining() float64 {
	return t.StartPressure - t.Consumed
}

// HasReserve в баллоне остается не меньше резерва.
func (t Tank) HasReserve() bool {
	return t.EndPressure() >= 0
}

// Volume объем газа в литрах при начальном давлении.
func (t Tank) Volume() float64 {
	return t.Size * t.StartPressure
}

func (t Tank) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTank, err)
	}
	if err := t.Gas.Validate(); err != nil {
		return fmt.Errorf("%w: tank %d: %v", ErrInvalidTank, t.ID, err)
	}
	return nil
}

// ValidateTanks проверяет баллоны и уникальность идентификаторов.
func ValidateTanks(tanks []Tank) error {
	if len(tanks) == 0 {
		return fmt.Errorf("%w: no tanks", ErrInvalidTank)
	}

	seen := make(map[int]bool, len(tanks))
	for _, tank := range tanks {
		if err := tank.Validate(); err != nil {
			return err
		}
		if seen[tank.ID] {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidTank, tank.ID)
		}
		seen[tank.ID] = true
	}
	return nil
}

// HaveReserve во всех баллонах остается резерв.
func HaveReserve(tanks []Tank) bool {
	for _, tank := range tanks {
		if !tank.HasReserve() {
			return false
		}
	}
	return true
}

// ResetConsumption копии баллонов с обнуленным расходом и резервом.
func ResetConsumption(tanks []Tank) []Tank {
	reset := make([]Tank, len(tanks))
	for i, tank := range tanks {
		tank.Consumed = 0
		tank.Reserve = 0
		reset[i] = tank
	}
	return reset
}

// StandardTank типовой баллон.
type StandardTank struct {
	Name            string
	Size            float64
	WorkingPressure float64
}

var StandardTanks = []StandardTank{
	{Name: "7", Size: 7, WorkingPressure: 200},
	{Name: "10", Size: 10, WorkingPressure: 200},
	{Name: "12", Size: 12, WorkingPressure: 200},
	{Name: "15", Size: 15, WorkingPressure: 200},
	{Name: "18", Size: 18, WorkingPressure: 200},
	{Name: "D7", Size: 14, WorkingPressure: 200},
	{Name: "D12", Size: 24, WorkingPressure: 200},
	{Name: "AL80", Size: 11.1, WorkingPressure: 207},
	{Name: "AL40", Size: 5.7, WorkingPressure: 207},
	{Name: "S80", Size: 12.7, WorkingPressure: 207},
}

// StandardTankByName ищет типовой баллон по имени.
func StandardTankByName(name string) (StandardTank, bool) {
	for _, tank := range StandardTanks {
		if tank.Name == name {
			return tank, true
		}
	}
	return StandardTank{}, false
}

// barsFromLiters переводит литры в бары с округлением вверх.
func barsFromLiters(liters, size float64) float64 {
	return math.Ceil(liters / size)
}
