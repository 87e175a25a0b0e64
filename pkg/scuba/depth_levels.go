package scuba

import (
	"fmt"
	"math"
	"strings"
)

// SafetyStop политика остановки безопасности.
type SafetyStop int

const (
	SafetyStopNever SafetyStop = iota
	SafetyStopAuto
	SafetyStopAlways
)

const (
	DefaultStopDistance = 3.0
	// SafetyStopDuration длительность остановки безопасности
	SafetyStopDuration = 3 * OneMinute
)

func (s SafetyStop) String() string {
	switch s {
	case SafetyStopNever:
		return "never"
	case SafetyStopAuto:
		return "auto"
	case SafetyStopAlways:
		return "always"
	default:
		return fmt.Sprintf("safety(%d)", int(s))
	}
}

func ParseSafetyStop(value string) (SafetyStop, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "never":
		return SafetyStopNever, nil
	case "auto":
		return SafetyStopAuto, nil
	case "always":
		return SafetyStopAlways, nil
	default:
		return 0, fmt.Errorf("unknown safety stop %q", value)
	}
}

// FloorToStop округляет глубину вниз до кратного шагу остановок.
func FloorToStop(depth, distance float64) float64 {
	if distance <= 0 {
		return math.Max(0, depth)
	}
	return math.Max(0, math.Floor(depth/distance)*distance)
}

// DepthLevels уровни остановок при всплытии.
type DepthLevels struct {
	lastStop             float64
	stopDistance         float64
	safetyStop           SafetyStop
	minimumAutoStopDepth float64
}

func NewDepthLevels(options Options) DepthLevels {
	return DepthLevels{
		lastStop:             options.LastStopDepth,
		stopDistance:         options.DecoStopDistance,
		safetyStop:           options.SafetyStop,
		minimumAutoStopDepth: options.MinimumAutoStopDepth,
	}
}

// NextStop следующая (более мелкая) остановка. Глубина ровно на границе шага
// дает следующий уровень, а не ту же глубину.
func (l DepthLevels) NextStop(depth float64) float64 {
	if depth <= l.lastStop {
		return 0
	}

	rounded := math.Floor(depth/l.stopDistance) * l.stopDistance
	if rounded == depth {
		rounded -= l.stopDistance
	}

	if rounded < l.lastStop {
		return l.lastStop
	}
	return rounded
}

// CeilingStop ближайший уровень остановки не мельче потолка.
func (l DepthLevels) CeilingStop(ceiling float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	if ceiling <= l.lastStop {
		return l.lastStop
	}
	return math.Ceil(ceiling/l.stopDistance) * l.stopDistance
}

// AddSafetyStop нужна ли остановка безопасности на глубине depth.
func (l DepthLevels) AddSafetyStop(depth, maxDepth float64) bool {
	if depth != l.lastStop {
		return false
	}

	switch l.safetyStop {
	case SafetyStopAlways:
		return true
	case SafetyStopAuto:
		return maxDepth > l.minimumAutoStopDepth
	default:
		return false
	}
}
