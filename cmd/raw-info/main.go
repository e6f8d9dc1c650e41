package main

import (
	"fmt"
	"os"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/engval"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/rawfile"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/wave"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: raw-info <raw-file> [trace-name]")
		fmt.Println("\nExamples:")
		fmt.Println("  raw-info lowpass.raw           # Header and variable table")
		fmt.Println("  raw-info lowpass.raw V(out)    # Statistics for one trace")
		os.Exit(1)
	}

	filename := os.Args[1]
	f, err := rawfile.ReadFile(filename, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading dump: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) >= 3 {
		showTrace(f, os.Args[2])
		return
	}
	showSummary(f)
}

func showSummary(f *rawfile.File) {
	h := f.Header()
	fmt.Printf("Title:    %s\n", h.Title)
	fmt.Printf("Plotname: %s\n", h.PlotName)
	fmt.Printf("Flags:    %s\n", h.Flags)
	fmt.Printf("Points:   %d", f.NumPoints())
	if f.StepCount() > 1 {
		fmt.Printf(" in %d steps", f.StepCount())
	}
	fmt.Println()

	fmt.Printf("\n%-4s %-24s %s\n", "Idx", "Name", "Type")
	for _, v := range f.Variables() {
		fmt.Printf("%-4d %-24s %s\n", v.Index, v.Name, v.Tag)
	}
}

func showTrace(f *rawfile.File, name string) {
	tr, err := f.Trace(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var vals []float64
	if tr.IsComplex() {
		vals, err = tr.Magnitudes(rawfile.AllSteps)
	} else {
		vals, err = tr.Values(rawfile.AllSteps)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Trace: %s (%s)\n", tr.Name(), tr.Kind())
	if tr.IsComplex() {
		fmt.Println("Statistics over the magnitude:")
	}
	fmt.Printf("  Points:       %d\n", len(vals))
	fmt.Printf("  Min:          %s\n", engval.Format(wave.Min(vals)))
	fmt.Printf("  Max:          %s\n", engval.Format(wave.Max(vals)))
	fmt.Printf("  Mean:         %s\n", engval.Format(wave.Mean(vals)))
	fmt.Printf("  RMS:          %s\n", engval.Format(wave.RMS(vals)))
	fmt.Printf("  Peak-to-peak: %s\n", engval.Format(wave.PeakToPeak(vals)))
}
