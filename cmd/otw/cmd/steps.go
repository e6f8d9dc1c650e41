package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/simlog"
)

var (
	stepsTSV   bool
	stepsSplit bool
	stepsOut   string
)

var stepsCmd = &cobra.Command{
	Use:   "steps <raw-or-log-file>",
	Short: "Show the sweep table of a stepped simulation",
	Long: `Display the steps of a sweep with their parameter values. The
argument may be a waveform dump, whose companion .log file supplies
the parameters, or a .log file directly. With --tsv the sweep table
and all measurement results export as tab-separated text.

Examples:
  otw steps sweep.raw
  otw steps sweep.log --tsv -o sweep.tsv
  otw steps sweep.log --tsv --split      # complex measures as mag/phase`,
	Args: cobra.ExactArgs(1),
	RunE: runSteps,
}

func init() {
	rootCmd.AddCommand(stepsCmd)

	stepsCmd.Flags().BoolVar(&stepsTSV, "tsv", false,
		"export the sweep table and measures as TSV")
	stepsCmd.Flags().BoolVar(&stepsSplit, "split", false,
		"derive magnitude and phase columns from complex measures")
	stepsCmd.Flags().StringVarP(&stepsOut, "output", "o", "",
		"output file for --tsv (default stdout)")
}

func runSteps(cmd *cobra.Command, args []string) error {
	filename := args[0]
	logger := newLogger()

	if strings.EqualFold(filepath.Ext(filename), ".log") {
		ld, err := simlog.ReadFile(filename, &simlog.ReadOptions{Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to read log: %w", err)
		}
		if stepsTSV {
			return exportLog(ld)
		}
		printLogSteps(ld)
		return nil
	}

	f, logData, err := loadDump(filename, logger)
	if err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}
	if stepsTSV {
		if logData == nil {
			return fmt.Errorf("TSV export needs the companion .log file")
		}
		return exportLog(logData)
	}

	fmt.Printf("Steps: %d\n", f.StepCount())
	for _, s := range f.Steps() {
		fmt.Printf("  %3d  %6d points", s.Index, s.Len())
		if len(s.Params) > 0 {
			fmt.Printf("  %s", formatParams(s.Params))
		}
		fmt.Println()
	}
	return nil
}

func exportLog(ld *simlog.Data) error {
	if stepsSplit {
		ld.SplitComplexMeasures()
	}
	if stepsOut == "" {
		if err := ld.ExportTSV(os.Stdout); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		return nil
	}
	if err := ld.ExportFile(stepsOut); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	if verbose {
		fmt.Printf("Wrote %s\n", stepsOut)
	}
	return nil
}

func printLogSteps(ld *simlog.Data) {
	if ld.Circuit() != "" {
		fmt.Printf("Circuit: %s\n", ld.Circuit())
	}
	if ld.HasSteps() {
		fmt.Printf("Steps: %d\n", ld.StepCount())
		for i, params := range ld.StepParams() {
			fmt.Printf("  %3d  %s\n", i, formatParams(params))
		}
	} else {
		fmt.Println("No sweep steps.")
	}
	names := ld.MeasureNames()
	if len(names) == 0 {
		return
	}
	fmt.Printf("\nMeasurements: %d\n", len(names))
	for _, name := range names {
		vals, err := ld.Measures(name)
		if err != nil {
			continue
		}
		if len(vals) == 1 {
			fmt.Printf("  %-20s %s\n", name, vals[0])
		} else {
			fmt.Printf("  %-20s %d per-step values\n", name, len(vals))
		}
	}
}
