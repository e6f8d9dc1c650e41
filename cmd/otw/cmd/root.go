package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/rawfile"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/simlog"
)

var (
	// Global flags
	verbose bool
	noLog   bool
)

var rootCmd = &cobra.Command{
	Use:   "otw",
	Short: "OpenTraceWave - simulator waveform dump and log tools",
	Long: `OpenTraceWave (otw) reads the waveform dumps and log files circuit
simulators write (LTspice, ngspice, Xyce), shows their contents, and
converts between their encodings.

Examples:
  otw info lowpass.raw                      # Show header and variables
  otw export lowpass.raw -t V(out)          # Export traces as CSV
  otw convert lowpass.raw out.raw --ascii   # Re-encode a dump
  otw steps sweep.raw                       # Show the sweep table`,
	Version: "0.9.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noLog, "no-log", false, "do not read the companion .log file")
}

// newLogger builds the diagnostic logger the readers report tolerated
// oddities to. Warnings always show, -v adds debug detail.
func newLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// siblingLog returns the path of the .log file next to a dump, empty
// when there is none.
func siblingLog(path string) string {
	logPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".log"
	if logPath == path {
		return ""
	}
	if _, err := os.Stat(logPath); err != nil {
		return ""
	}
	return logPath
}

// loadDump reads a waveform dump. Sweep parameters from a companion
// log file are attached to the steps unless --no-log is set.
func loadDump(path string, logger *zap.SugaredLogger) (*rawfile.File, *simlog.Data, error) {
	opts := &rawfile.ReadOptions{Logger: logger}
	var logData *simlog.Data
	if !noLog {
		if logPath := siblingLog(path); logPath != "" {
			ld, err := simlog.ReadFile(logPath, &simlog.ReadOptions{Logger: logger})
			if err != nil {
				logger.Warnf("ignoring companion log %s: %v", logPath, err)
			} else {
				logData = ld
				if sp := ld.StepParams(); sp != nil {
					opts.StepParams = sp
				}
				logger.Debugf("attached sweep parameters from %s", logPath)
			}
		}
	}
	f, err := rawfile.ReadFile(path, opts)
	if err != nil {
		return nil, nil, err
	}
	return f, logData, nil
}

// formatParams renders a sweep parameter map as "name=value" pairs in
// sorted name order.
func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return strings.Join(parts, " ")
}
