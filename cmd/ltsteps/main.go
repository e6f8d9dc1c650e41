package main

import (
	"fmt"
	"os"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/simlog"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <log-file> [output.tsv]\n", os.Args[0])
		os.Exit(1)
	}

	data, err := simlog.ReadFile(os.Args[1], nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading log: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) >= 3 {
		if err := data.ExportFile(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing export: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d steps, %d measures to %s\n",
			data.StepCount(), len(data.MeasureNames()), os.Args[2])
		return
	}

	if err := data.ExportTSV(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing export: %v\n", err)
		os.Exit(1)
	}
}
