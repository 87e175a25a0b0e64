package main

import (
	"fmt"
	"strconv"

	"deco-planner/pkg/scuba"

	"github.com/spf13/cobra"
)

type nitroxFlags struct {
	ppO2     float64
	altitude float64
	salinity string
}

func newNitroxCmd(a *app) *cobra.Command {
	f := &nitroxFlags{}

	cmd := &cobra.Command{
		Use:   "nitrox",
		Short: "Nitrox calculators: mod, ead, bestmix, ppo2",
	}

	cmd.PersistentFlags().Float64Var(&f.ppO2, "ppo2", 0, "oxygen partial pressure limit, bar (default from config)")
	cmd.PersistentFlags().Float64Var(&f.altitude, "altitude", 0, "altitude, m")
	cmd.PersistentFlags().StringVar(&f.salinity, "salinity", "", "water: fresh, brackish, salt")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "mod <o2 %>",
			Short: "Maximum operating depth and gas switch depth",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				calculator, err := f.calculator(a, cmd)
				if err != nil {
					return err
				}
				o2, err := parsePercent(args[0])
				if err != nil {
					return err
				}
				ppO2 := f.limit(a, cmd)
				fmt.Fprintf(cmd.OutOrStdout(), "mod: %.2f m\ngas switch: %.0f m\n",
					calculator.Mod(ppO2, o2), calculator.GasSwitch(ppO2, o2))
				return nil
			},
		},
		&cobra.Command{
			Use:   "ead <o2 %> <depth m>",
			Short: "Equivalent air depth",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				calculator, err := f.calculator(a, cmd)
				if err != nil {
					return err
				}
				o2, depth, err := parseMix(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ead: %.2f m\n", calculator.Ead(o2, depth))
				return nil
			},
		},
		&cobra.Command{
			Use:   "bestmix <depth m>",
			Short: "Best nitrox mix for the depth",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				calculator, err := f.calculator(a, cmd)
				if err != nil {
					return err
				}
				depth, err := parseNumber("depth", args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "best mix: %.2f %%\n", calculator.BestMix(f.limit(a, cmd), depth))
				return nil
			},
		},
		&cobra.Command{
			Use:   "ppo2 <o2 %> <depth m>",
			Short: "Oxygen partial pressure at depth",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				calculator, err := f.calculator(a, cmd)
				if err != nil {
					return err
				}
				o2, depth, err := parseMix(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ppO2: %.2f bar\n", calculator.PartialPressure(o2, depth))
				return nil
			},
		},
	)

	return cmd
}

func (f *nitroxFlags) calculator(a *app, cmd *cobra.Command) (scuba.NitroxCalculator, error) {
	options := a.cfg.Planner
	if cmd.Flags().Changed("altitude") {
		options.Altitude = f.altitude
	}
	if cmd.Flags().Changed("salinity") {
		salinity, err := scuba.ParseSalinity(f.salinity)
		if err != nil {
			return scuba.NitroxCalculator{}, err
		}
		options.Salinity = salinity
	}
	return scuba.NewNitroxCalculator(options.DepthConverter()), nil
}

func (f *nitroxFlags) limit(a *app, cmd *cobra.Command) float64 {
	if cmd.Flags().Changed("ppo2") {
		return f.ppO2
	}
	return a.cfg.Planner.MaxPpO2
}

func parseNumber(name, value string) (float64, error) {
	number, err := strconv.ParseFloat(value, 64)
	if err != nil || number < 0 {
		return 0, fmt.Errorf("bad %s %q", name, value)
	}
	return number, nil
}

// parsePercent доля кислорода в процентах, 1..100.
func parsePercent(value string) (float64, error) {
	o2, err := parseNumber("o2", value)
	if err != nil {
		return 0, err
	}
	if o2 < 1 || o2 > 100 {
		return 0, fmt.Errorf("o2 %q out of range 1-100 %%", value)
	}
	return o2, nil
}

func parseMix(o2Value, depthValue string) (float64, float64, error) {
	o2, err := parsePercent(o2Value)
	if err != nil {
		return 0, 0, err
	}
	depth, err := parseNumber("depth", depthValue)
	return o2, depth, err
}
