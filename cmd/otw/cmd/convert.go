package cmd

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/rawfile"
)

var (
	convASCII   bool
	convBinary  bool
	convDouble  bool
	convSingle  bool
	convByVar   bool
	convByPoint bool
	convUTF16   bool
	convUTF8    bool
	convBig     bool
	convLittle  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <in-file> <out-file>",
	Short: "Re-encode a waveform dump",
	Long: `Read a dump and write it back in a different representation. Options
not given keep the representation of the input; a compressed input
must be converted with --binary or --ascii.

Examples:
  otw convert lowpass.raw lowpass.ascii.raw --ascii
  otw convert lowpass.raw wide.raw --double
  otw convert sweep.raw fast.raw --by-variable`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&convASCII, "ascii", false, "write a text data block")
	convertCmd.Flags().BoolVar(&convBinary, "binary", false, "write a binary data block")
	convertCmd.Flags().BoolVar(&convDouble, "double", false, "store all columns as float64")
	convertCmd.Flags().BoolVar(&convSingle, "single", false, "store non-axis columns as float32")
	convertCmd.Flags().BoolVar(&convByVar, "by-variable", false, "one contiguous block per variable")
	convertCmd.Flags().BoolVar(&convByPoint, "by-point", false, "interleave one row per point")
	convertCmd.Flags().BoolVar(&convUTF16, "utf16", false, "UTF-16LE header text")
	convertCmd.Flags().BoolVar(&convUTF8, "utf8", false, "UTF-8 header text")
	convertCmd.Flags().BoolVar(&convBig, "big-endian", false, "big-endian binary samples")
	convertCmd.Flags().BoolVar(&convLittle, "little-endian", false, "little-endian binary samples")
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	f, _, err := loadDump(args[0], logger)
	if err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}

	opts := &rawfile.WriteOptions{}
	switch {
	case convASCII && convBinary:
		return fmt.Errorf("--ascii and --binary are mutually exclusive")
	case convASCII:
		opts.Format = rawfile.FormatASCII
	case convBinary:
		opts.Format = rawfile.FormatBinary
	}
	switch {
	case convDouble && convSingle:
		return fmt.Errorf("--double and --single are mutually exclusive")
	case convDouble:
		opts.Precision = rawfile.PrecisionDouble
	case convSingle:
		opts.Precision = rawfile.PrecisionSingle
	}
	switch {
	case convByVar && convByPoint:
		return fmt.Errorf("--by-variable and --by-point are mutually exclusive")
	case convByVar:
		opts.Layout = rawfile.LayoutByVariable
	case convByPoint:
		opts.Layout = rawfile.LayoutByPoint
	}
	switch {
	case convUTF16 && convUTF8:
		return fmt.Errorf("--utf16 and --utf8 are mutually exclusive")
	case convUTF16:
		opts.HeaderText = rawfile.HeaderTextUTF16
	case convUTF8:
		opts.HeaderText = rawfile.HeaderTextUTF8
	}
	switch {
	case convBig && convLittle:
		return fmt.Errorf("--big-endian and --little-endian are mutually exclusive")
	case convBig:
		opts.ByteOrder = binary.BigEndian
	case convLittle:
		opts.ByteOrder = binary.LittleEndian
	}

	if err := f.WriteFile(args[1], opts); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	fmt.Printf("Wrote %s (%d variables, %d points)\n", args[1], f.NumVariables(), f.NumPoints())
	return nil
}
