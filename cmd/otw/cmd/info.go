package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/rawfile"
)

var showMeasures bool

var infoCmd = &cobra.Command{
	Use:   "info <raw-file>",
	Short: "Show header, variables and sweep summary of a dump",
	Long: `Read a waveform dump and display its header, variable table and step
layout. Sweep parameters from a companion .log file are attached
automatically.

Examples:
  otw info lowpass.raw
  otw info -m sweep.raw      # include .meas results from sweep.log`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVarP(&showMeasures, "measures", "m", false,
		"show measurement results from the companion log")
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	logger := newLogger()

	f, logData, err := loadDump(filename, logger)
	if err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}

	h := f.Header()
	fmt.Printf("File:      %s\n", filename)
	fmt.Printf("Title:     %s\n", h.Title)
	fmt.Printf("Plotname:  %s\n", h.PlotName)
	if h.Date != "" {
		fmt.Printf("Date:      %s\n", h.Date)
	}
	fmt.Printf("Flags:     %s\n", h.Flags)
	if h.Command != "" {
		fmt.Printf("Command:   %s\n", h.Command)
	}
	if h.Offset != 0 {
		fmt.Printf("Offset:    %g\n", h.Offset)
	}
	for _, p := range h.Extra {
		fmt.Printf("%-10s %s\n", p.Key+":", p.Value)
	}
	fmt.Printf("Encoding:  %s\n", describeEncoding(f.Encoding()))
	fmt.Printf("Points:    %d\n", f.NumPoints())

	fmt.Printf("\nVariables: %d\n", f.NumVariables())
	for _, v := range f.Variables() {
		fmt.Printf("  %3d  %-24s %s\n", v.Index, v.Name, v.Tag)
	}

	if f.StepCount() > 1 {
		fmt.Printf("\nSteps: %d\n", f.StepCount())
		for _, s := range f.Steps() {
			fmt.Printf("  %3d  %6d points", s.Index, s.Len())
			if len(s.Params) > 0 {
				fmt.Printf("  %s", formatParams(s.Params))
			}
			fmt.Println()
		}
	}

	if showMeasures {
		if logData == nil {
			fmt.Println("\nNo companion log file found.")
			return nil
		}
		names := logData.MeasureNames()
		fmt.Printf("\nMeasurements: %d\n", len(names))
		for _, name := range names {
			vals, err := logData.Measures(name)
			if err != nil {
				continue
			}
			if len(vals) == 1 {
				fmt.Printf("  %-20s %s\n", name, vals[0])
				continue
			}
			fmt.Printf("  %-20s %d per-step values\n", name, len(vals))
			if verbose {
				for i, v := range vals {
					fmt.Printf("    step %-3d %s\n", i, v)
				}
			}
		}
	}
	return nil
}

// describeEncoding renders the storage layout of a dump in one line.
func describeEncoding(e rawfile.Encoding) string {
	var s string
	switch {
	case e.ASCII:
		s = "ascii"
	case e.BigEndian:
		s = "binary big-endian"
	default:
		s = "binary little-endian"
	}
	if !e.ASCII {
		switch {
		case e.Complex:
			s += ", complex float64 pairs"
		case e.DoublePrecision:
			s += ", float64 data"
		default:
			s += ", float64 axis, float32 data"
		}
		if e.FastAccess {
			s += ", variable-major"
		}
		if e.Compressed {
			s += ", compressed"
		}
	} else if e.Complex {
		s += ", complex"
	}
	if e.UTF16Header {
		s += ", UTF-16 text"
	}
	return s
}
