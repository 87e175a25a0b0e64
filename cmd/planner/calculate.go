package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"deco-planner/internal/domain"
	"deco-planner/internal/infrastructure"
	"deco-planner/pkg/scuba"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errNoLevels = errors.New("plan needs --file or at least one --level")

type calculateFlags struct {
	file       string
	levels     []string
	tanks      []string
	gfLow      float64
	gfHigh     float64
	altitude   float64
	salinity   string
	safetyStop string
	sac        float64
	format     string
}

func newCalculateCmd(a *app) *cobra.Command {
	f := &calculateFlags{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate decompression profile and gas consumption",
		Example: `  planner calculate --level 30:20 --tank 15:200:air
  planner calculate --file plan.txt --tank 24:200:21/35 --tank 11:200:ean50 --gf-low 0.3 --gf-high 0.75`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := f.planRequest(a, cmd.Flags())
			if err != nil {
				return err
			}

			planner := scuba.NewPlanner(scuba.PlannerConfig{Logger: a.logger})
			result, err := planner.Calculate(cmd.Context(), *request)
			if err != nil {
				return err
			}

			return writeResult(cmd.OutOrStdout(), f.format, result)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "plan file, one level per line: depth duration [gas] [tank]")
	flags.StringArrayVarP(&f.levels, "level", "l", nil, "level depth:duration[:gas], repeatable")
	flags.StringArrayVarP(&f.tanks, "tank", "t", []string{"15:200:air"}, "tank size:pressure[:gas] or standard name (AL80, D12), repeatable, first is bottom tank")
	flags.Float64Var(&f.gfLow, "gf-low", 0, "gradient factor low, fraction")
	flags.Float64Var(&f.gfHigh, "gf-high", 0, "gradient factor high, fraction")
	flags.Float64Var(&f.altitude, "altitude", 0, "dive site altitude, m")
	flags.StringVar(&f.salinity, "salinity", "", "water: fresh, brackish, salt")
	flags.StringVar(&f.safetyStop, "safety-stop", "", "safety stop: never, auto, always")
	flags.Float64Var(&f.sac, "sac", 0, "surface air consumption, l/min")
	flags.StringVarP(&f.format, "format", "o", formatText, "output format: text, json, msgpack")

	return cmd
}

// planRequest собирает запрос: уровни из файла или флагов, баллоны из флагов,
// параметры из конфигурации с переопределением явно заданными флагами.
func (f *calculateFlags) planRequest(a *app, flags *pflag.FlagSet) (*scuba.PlanRequest, error) {
	if !isFormat(f.format) {
		return nil, fmt.Errorf("unknown format %q", f.format)
	}

	levels, name, err := f.readLevels(a)
	if err != nil {
		return nil, err
	}

	tanks := make([]scuba.Tank, 0, len(f.tanks))
	for i, value := range f.tanks {
		tank, err := parseTank(i+1, value)
		if err != nil {
			return nil, err
		}
		tanks = append(tanks, tank)
	}

	options, diver, err := f.settings(a, flags)
	if err != nil {
		return nil, err
	}

	create := domain.CreatePlanRequest{Name: name, Tanks: tanks, Levels: levels}
	return create.ToPlanRequest(options, diver)
}

func (f *calculateFlags) readLevels(a *app) ([]scuba.Level, string, error) {
	if f.file != "" {
		reader := infrastructure.NewTXTFileReader(a.logger)
		levels, err := reader.ReadLevelsFromFile(f.file)
		if err != nil {
			return nil, "", err
		}
		return levels, filepath.Base(f.file), nil
	}

	if len(f.levels) == 0 {
		return nil, "", errNoLevels
	}

	levels := make([]scuba.Level, 0, len(f.levels))
	for _, value := range f.levels {
		level, err := parseLevel(value)
		if err != nil {
			return nil, "", err
		}
		levels = append(levels, level)
	}
	return levels, "", nil
}

func (f *calculateFlags) settings(a *app, flags *pflag.FlagSet) (scuba.Options, scuba.Diver, error) {
	options, diver := a.cfg.Planner, a.cfg.Diver

	if flags.Changed("gf-low") {
		options.GfLow = f.gfLow
	}
	if flags.Changed("gf-high") {
		options.GfHigh = f.gfHigh
	}
	if flags.Changed("altitude") {
		options.Altitude = f.altitude
	}
	if flags.Changed("salinity") {
		salinity, err := scuba.ParseSalinity(f.salinity)
		if err != nil {
			return options, diver, err
		}
		options.Salinity = salinity
	}
	if flags.Changed("safety-stop") {
		safetyStop, err := scuba.ParseSafetyStop(f.safetyStop)
		if err != nil {
			return options, diver, err
		}
		options.SafetyStop = safetyStop
	}
	if flags.Changed("sac") {
		diver.SAC = f.sac
	}

	return options, diver, nil
}

// parseTank разбирает "size:pressure[:gas]". Вместо объема допустимо имя
// типового баллона (AL80, D12), тогда давление можно опустить.
func parseTank(id int, value string) (scuba.Tank, error) {
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return scuba.Tank{}, fmt.Errorf("%w: %q, expected size:pressure[:gas]", scuba.ErrInvalidTank, value)
	}

	var tank scuba.Tank
	standard, isStandard := scuba.StandardTankByName(strings.ToUpper(parts[0]))
	if isStandard {
		tank = scuba.NewTank(id, standard.Size, standard.WorkingPressure, scuba.Air)
	} else {
		size, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return scuba.Tank{}, fmt.Errorf("%w: bad size %q", scuba.ErrInvalidTank, parts[0])
		}
		tank = scuba.NewTank(id, size, 0, scuba.Air)
	}

	if len(parts) >= 2 && parts[1] != "" {
		pressure, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return scuba.Tank{}, fmt.Errorf("%w: bad pressure %q", scuba.ErrInvalidTank, parts[1])
		}
		tank.StartPressure = pressure
		if !isStandard {
			tank.WorkingPressure = pressure
		}
	}

	if len(parts) == 3 {
		gas, err := scuba.ParseGas(parts[2])
		if err != nil {
			return scuba.Tank{}, err
		}
		tank.Gas = gas
	}

	if err := tank.Validate(); err != nil {
		return scuba.Tank{}, err
	}
	return tank, nil
}

// parseLevel разбирает "depth:duration[:gas]", длительность в минутах.
func parseLevel(value string) (scuba.Level, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return scuba.Level{}, fmt.Errorf("bad level %q, expected depth:duration[:gas]", value)
	}

	depth, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || depth < 0 {
		return scuba.Level{}, fmt.Errorf("bad level depth %q", parts[0])
	}

	duration, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || duration <= 0 {
		return scuba.Level{}, fmt.Errorf("bad level duration %q", parts[1])
	}

	level := scuba.Level{Depth: depth, Duration: duration}
	if len(parts) == 3 {
		if level.Gas, err = scuba.ParseGas(parts[2]); err != nil {
			return scuba.Level{}, err
		}
	}
	return level, nil
}
