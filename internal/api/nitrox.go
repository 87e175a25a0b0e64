package api

import (
	"fmt"
	"net/http"
	"strconv"

	"deco-planner/pkg/scuba"

	"github.com/gorilla/mux"
)

// nitrox синхронные калькуляторы. Параметры запроса: o2 (%), depth (м),
// ppo2 (бар), altitude (м), salinity (fresh|brackish|salt).
func (s *Server) nitrox(w http.ResponseWriter, r *http.Request) {
	query := nitroxQuery{values: r, defaults: s.config.Planner}

	converter, err := query.converter()
	if err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	calculator := scuba.NewNitroxCalculator(converter)

	var response map[string]float64
	switch mux.Vars(r)["calculation"] {
	case "mod":
		ppO2, o2 := query.ppO2(s.config.Planner.MaxPpO2), query.percent("o2")
		if err = query.err; err == nil {
			response = map[string]float64{
				"mod":        calculator.Mod(ppO2, o2),
				"gas_switch": calculator.GasSwitch(ppO2, o2),
			}
		}
	case "ead":
		o2, depth := query.percent("o2"), query.depth()
		if err = query.err; err == nil {
			response = map[string]float64{"ead": calculator.Ead(o2, depth)}
		}
	case "best-mix":
		ppO2, depth := query.ppO2(s.config.Planner.MaxPpO2), query.depth()
		if err = query.err; err == nil {
			response = map[string]float64{"best_mix": calculator.BestMix(ppO2, depth)}
		}
	case "partial-pressure":
		o2, depth := query.percent("o2"), query.depth()
		if err = query.err; err == nil {
			response = map[string]float64{"ppo2": calculator.PartialPressure(o2, depth)}
		}
	default:
		s.respondWithError(w, r, http.StatusNotFound, "Unknown calculation")
		return
	}

	if err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.respondWithJSON(w, r, http.StatusOK, response)
}

// nitroxQuery разбор параметров, первая ошибка сохраняется в err.
type nitroxQuery struct {
	values   *http.Request
	defaults scuba.Options
	err      error
}

func (q *nitroxQuery) float(name string, fallback float64, valid func(float64) bool) float64 {
	raw := q.values.URL.Query().Get(name)
	if raw == "" {
		if fallback < 0 && q.err == nil {
			q.err = fmt.Errorf("parameter %s is required", name)
		}
		return fallback
	}

	value, err := strconv.ParseFloat(raw, 64)
	if (err != nil || !valid(value)) && q.err == nil {
		q.err = fmt.Errorf("invalid %s %q", name, raw)
	}
	return value
}

func (q *nitroxQuery) percent(name string) float64 {
	return q.float(name, -1, func(v float64) bool { return v > 0 && v <= 100 })
}

func (q *nitroxQuery) depth() float64 {
	return q.float("depth", -1, func(v float64) bool { return v >= 0 && v <= 300 })
}

func (q *nitroxQuery) ppO2(fallback float64) float64 {
	return q.float("ppo2", fallback, func(v float64) bool { return v > 0 && v <= 3 })
}

func (q *nitroxQuery) converter() (scuba.DepthConverter, error) {
	altitude := q.float("altitude", q.defaults.Altitude, func(v float64) bool { return v >= 0 && v <= 5000 })
	if q.err != nil {
		return scuba.DepthConverter{}, q.err
	}

	salinity := q.defaults.Salinity
	if raw := q.values.URL.Query().Get("salinity"); raw != "" {
		parsed, err := scuba.ParseSalinity(raw)
		if err != nil {
			return scuba.DepthConverter{}, err
		}
		salinity = parsed
	}

	return scuba.NewDepthConverter(salinity, altitude), nil
}
