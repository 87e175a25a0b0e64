package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"deco-planner/pkg/scuba"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	formatText    = "text"
	formatJSON    = "json"
	formatMsgpack = "msgpack"
)

func isFormat(format string) bool {
	switch format {
	case formatText, formatJSON, formatMsgpack:
		return true
	}
	return false
}

func writeResult(w io.Writer, format string, result *scuba.DiveResult) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case formatMsgpack:
		return msgpack.NewEncoder(w).Encode(result)
	case formatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, result *scuba.DiveResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Profile")
	fmt.Fprintln(tw, "  start\tdepth\tduration\tgas\ttank")
	elapsed := 0.0
	for _, segment := range result.Profile.Segments {
		fmt.Fprintf(tw, "  %s\t%.0f -> %.0f m\t%s\t%s\t%d\n",
			clock(elapsed), segment.StartDepth, segment.EndDepth,
			clock(segment.Duration), segment.Gas.Name(), segment.TankID)
		elapsed += segment.Duration
	}

	for _, profileErr := range result.Profile.Errors {
		fmt.Fprintf(tw, "  error\t%s\tsegment %d\t%s\n", profileErr.Type, profileErr.Segment, profileErr.Message)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Dive info")
	fmt.Fprintf(tw, "  no decompression limit\t%d min\n", result.NoDeco)
	fmt.Fprintf(tw, "  average depth\t%.2f m\n", result.AverageDepth)
	fmt.Fprintf(tw, "  highest density\t%.2f g/l at %.0f m (%s)\n",
		result.HighestDensity.Density, result.HighestDensity.Depth, result.HighestDensity.Gas.Name())
	fmt.Fprintf(tw, "  OTU\t%.1f\n", result.Otu)
	fmt.Fprintf(tw, "  CNS\t%.1f %%\n", result.Cns)

	if result.CalculationFailed {
		fmt.Fprintln(tw, "  gas consumption\tnot calculated")
		return tw.Flush()
	}

	fmt.Fprintf(tw, "  time to surface\t%d min\n", result.TimeToSurface)
	fmt.Fprintf(tw, "  max bottom time\t%d min\n", result.MaxBottomTime)
	fmt.Fprintf(tw, "  turn time\t%.0f min\n", result.TurnTime)
	fmt.Fprintf(tw, "  turn pressure\t%.0f bar\n", result.TurnPressure)

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Tanks")
	fmt.Fprintln(tw, "  id\tgas\tsize\tstart\tconsumed\treserve\tremaining")
	for _, tank := range result.Tanks {
		fmt.Fprintf(tw, "  %d\t%s\t%.1f l\t%.0f bar\t%.0f bar\t%.0f bar\t%.0f bar\n",
			tank.ID, tank.Gas.Name(), tank.Size, tank.StartPressure, tank.Consumed, tank.Reserve, tank.Remaining())
	}

	if len(result.Events) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Events")
		for _, event := range result.Events {
			fmt.Fprintf(tw, "  %s\t%.0f m\t%s\t%s\n", clock(event.Time), event.Depth, event.Type, event.Message)
		}
	}

	warnings := warningsOf(result)
	if len(warnings) > 0 {
		fmt.Fprintln(tw)
		for _, warning := range warnings {
			fmt.Fprintln(tw, "WARNING:", warning)
		}
	}

	return tw.Flush()
}

func warningsOf(result *scuba.DiveResult) []string {
	var warnings []string
	if result.NoDecoExceeded {
		warnings = append(warnings, "no decompression limit exceeded")
	}
	if result.NotEnoughGas {
		warnings = append(warnings, "not enough gas to keep the reserve")
	}
	return warnings
}

// clock форматирует секунды как ч:мм:сс.
func clock(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}
