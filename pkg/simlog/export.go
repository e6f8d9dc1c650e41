package simlog

import (
	"encoding/csv"
	"io"
	"math"
	"math/cmplx"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SplitComplexMeasures derives two extra measurements from every
// all-complex measurement: name_mag with the linear magnitude and
// name_ph with the phase in degrees. Calling it twice is a no-op.
func (d *Data) SplitComplexMeasures() {
	for _, name := range append([]string(nil), d.order...) {
		vals := d.measures[name]
		if len(vals) == 0 {
			continue
		}
		if _, ok := d.measures[name+"_mag"]; ok {
			continue
		}
		complexOnly := true
		for _, v := range vals {
			if v.Kind != ValueComplex {
				complexOnly = false
				break
			}
		}
		if !complexOnly {
			continue
		}
		mags := make([]Value, len(vals))
		phs := make([]Value, len(vals))
		for i, v := range vals {
			mags[i] = numberValue(cmplx.Abs(v.Complex))
			phs[i] = numberValue(cmplx.Phase(v.Complex) * 180 / math.Pi)
		}
		d.measures[name+"_mag"] = mags
		d.measures[name+"_ph"] = phs
		d.order = append(d.order, name+"_mag", name+"_ph")
	}
}

func numberValue(f float64) Value {
	return Value{Kind: ValueNumber, Number: f, Text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// ExportTSV writes the sweep table and all measurements as
// tab-separated text. The first column is the 1-based step number,
// followed by the sweep variables and the measurements in log order.
// A single-run log exports as one row.
func (d *Data) ExportTSV(w io.Writer) error {
	rows := len(d.stepLines)
	if rows == 0 && len(d.order) > 0 {
		rows = 1
	}
	for _, name := range d.order {
		if got := len(d.measures[name]); got != rows {
			return errors.Errorf("simlog: measure %q has %d values for %d rows", name, got, rows)
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.UseCRLF = false

	header := append([]string{"step"}, d.stepVars...)
	header = append(header, d.order...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "simlog: write export header")
	}
	for i := 0; i < rows; i++ {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(i+1))
		for _, v := range d.stepVars {
			sv, ok := d.stepLines[i][v]
			if !ok {
				sv = math.NaN()
			}
			rec = append(rec, strconv.FormatFloat(sv, 'g', -1, 64))
		}
		for _, name := range d.order {
			rec = append(rec, d.measures[name][i].Text)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "simlog: write export row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "simlog: flush export")
}

// ExportFile writes the TSV export to a file on disk.
func (d *Data) ExportFile(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "simlog: create export file")
	}
	defer func() {
		err = multierr.Combine(err, file.Close())
	}()
	return d.ExportTSV(file)
}
