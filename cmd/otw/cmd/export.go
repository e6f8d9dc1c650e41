package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/rawfile"
)

var (
	exportTraces []string
	exportOut    string
	exportStep   int
	exportTSV    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <raw-file>",
	Short: "Export traces as CSV or TSV",
	Long: `Write trace values as delimited text, one row per point, with the
sweep axis in the first column. Complex traces export as a real and an
imaginary column.

Examples:
  otw export lowpass.raw                      # All traces to stdout
  otw export lowpass.raw -t V(out) -t I(R1)   # Selected traces
  otw export sweep.raw --step 2 -o step2.csv  # One step of a sweep`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringArrayVarP(&exportTraces, "trace", "t", nil,
		"trace to export, repeatable (default all)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "",
		"output file (default stdout)")
	exportCmd.Flags().IntVarP(&exportStep, "step", "s", rawfile.AllSteps,
		"export a single step of a sweep")
	exportCmd.Flags().BoolVar(&exportTSV, "tsv", false,
		"tab-separated output")
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	f, _, err := loadDump(args[0], logger)
	if err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}

	names := exportTraces
	if len(names) == 0 {
		names = f.TraceNames()
	}

	axisName := "index"
	if f.NumVariables() > 0 {
		axisName = f.Variables()[0].Name
	}
	axis, err := f.AxisValues(exportStep)
	if err != nil {
		return fmt.Errorf("failed to read axis: %w", err)
	}
	header := []string{axisName}
	cols := [][]float64{axis}

	for _, name := range names {
		tr, err := f.Trace(name)
		if err != nil {
			return fmt.Errorf("failed to look up trace: %w", err)
		}
		if tr.Index() == 0 {
			continue // the axis is always the first column
		}
		if tr.IsComplex() {
			re, err := tr.RealParts(exportStep)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", tr.Name(), err)
			}
			im, err := tr.ImagParts(exportStep)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", tr.Name(), err)
			}
			header = append(header, "Re("+tr.Name()+")", "Im("+tr.Name()+")")
			cols = append(cols, re, im)
		} else {
			vals, err := tr.Values(exportStep)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", tr.Name(), err)
			}
			header = append(header, tr.Name())
			cols = append(cols, vals)
		}
	}

	if exportOut == "" {
		return writeTable(os.Stdout, header, cols)
	}
	file, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := writeTable(file, header, cols); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if verbose {
		fmt.Printf("Wrote %d columns, %d points to %s\n", len(header), len(axis), exportOut)
	}
	return nil
}

func writeTable(w io.Writer, header []string, cols [][]float64) error {
	cw := csv.NewWriter(w)
	if exportTSV {
		cw.Comma = '\t'
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	rec := make([]string, len(cols))
	for i := 0; i < len(cols[0]); i++ {
		for j, col := range cols {
			rec[j] = strconv.FormatFloat(col[i], 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
