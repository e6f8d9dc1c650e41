// Package rawfile reads and writes circuit-simulator waveform dumps in
// the raw format shared by LTspice, ngspice and Xyce.
//
// A raw file is a text header followed by a data block. The header carries
// the plot metadata (title, plot name, flags, variable table, step count)
// and the data block carries one value per variable per simulation point,
// either as printable text ("Values:") or as packed IEEE floats ("Binary:").
//
// # Overview
//
// The package provides:
//   - File: a parsed dump with lazy column decoding
//   - Trace: accessors for a single variable's values
//   - Step: a contiguous slice of points belonging to one .step run
//   - Builder: constructs a File from scratch for writing
//   - Read/ReadFile and Write/WriteFile: the entry points
//
// # Usage
//
// Reading follows this pattern:
//
//	f, err := rawfile.ReadFile("lowpass.raw", nil)
//	if err != nil {
//		return err
//	}
//	tr, err := f.Trace("V(out)")
//	if err != nil {
//		return err
//	}
//	vals, err := tr.Values(rawfile.AllSteps)
//
// Writing a file built from computed data:
//
//	b := rawfile.NewBuilder("Transient Analysis")
//	b.AddVariable("time", "time")
//	b.AddVariable("V(out)", "voltage")
//	err := b.AddStep(nil, times, volts)
//	f, err := b.Build()
//	err = f.WriteFile("out.raw", nil)
//
// # Encodings
//
// Binary LTspice dumps store the axis variable as float64 and every other
// real variable as float32 unless the "double" flag is present. Complex
// values are always float64 pairs. Dumps produced by ngspice or Xyce store
// everything as float64; the dialect is detected from the Command header
// line. The "fastaccess" flag selects a transposed layout where each
// variable's column is stored contiguously. Headers may be UTF-8 or
// UTF-16LE; the encoding is detected per file and preserved on rewrite.
//
// # Stepped simulations
//
// A .step directive makes the simulator run the analysis once per parameter
// combination and concatenate the results. Boundaries between runs are
// found where the axis variable decreases; a Steps: header block, when
// present, supplies the parameter values for each run. Per-step data is
// exposed through Step, StepParams and the step argument of the Trace
// accessors.
//
// # Limitations
//
//   - Compressed dumps are read-only; writing one is rejected
//   - Step boundaries that do not show an axis decrease survive a
//     round-trip only when the declared count divides the points evenly
package rawfile
