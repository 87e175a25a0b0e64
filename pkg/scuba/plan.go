package scuba

import "fmt"

// SimplePlan план с погружением на глубину и работой на ней; duration общее
// время в минутах, включая погружение.
func SimplePlan(depth, duration float64, tank Tank, options Options) (Segments, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: depth must be positive", ErrInvalidSegment)
	}

	descent := depth / options.DescentSpeed * OneMinute
	total := ToSeconds(duration)
	if total < descent {
		return nil, fmt.Errorf("%w: %.1f min is shorter than the descent", ErrInvalidSegment, duration)
	}

	plan := Segments{}
	plan.Add(depth, tank.Gas, descent)
	plan.AddFlat(tank.Gas, total-descent)
	for i := range plan {
		plan[i].TankID = tank.ID
	}
	return plan, nil
}

// Level уровень многоуровневого плана, время в минутах.
type Level struct {
	Depth    float64 `json:"depth" msgpack:"depth" validate:"gte=0"`
	Duration float64 `json:"duration" msgpack:"duration" validate:"gte=0"`
	Gas      Gas     `json:"gas" msgpack:"gas"`
	TankID   int     `json:"tank_id,omitempty" msgpack:"tank_id,omitempty"`
}

// LevelPlan строит план по уровням; переход на уровень входит в его время,
// если оно не короче перехода.
func LevelPlan(levels []Level, options Options) (Segments, error) {
	plan := Segments{}
	for i, level := range levels {
		current := plan.CurrentDepth()
		speed := options.DescentSpeed
		if level.Depth < current {
			speed = options.AscentSpeed50perc
		}

		transit := 0.0
		if level.Depth != current {
			transit = absDiff(level.Depth, current) / speed * OneMinute
			plan.Add(level.Depth, level.Gas, transit)
			plan[len(plan)-1].TankID = level.TankID
		}

		stay := ToSeconds(level.Duration) - transit
		if stay < 0 {
			return nil, fmt.Errorf("%w: level %d is shorter than its transit", ErrInvalidSegment, i)
		}
		if stay > 0 {
			plan.AddFlat(level.Gas, stay)
			plan[len(plan)-1].TankID = level.TankID
		}
	}

	if len(plan) == 0 {
		return nil, ErrNoSegments
	}
	return plan, nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
