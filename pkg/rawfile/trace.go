package rawfile

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/wave"
)

// Trace is one named waveform of a dump. Accessors taking a step
// index accept AllSteps to span the whole dump.
type Trace struct {
	file *File
	v    Variable
}

// Name returns the declared variable name, e.g. "V(out)".
func (t *Trace) Name() string {
	return t.v.Name
}

// Index returns the declaration index of the variable.
func (t *Trace) Index() int {
	return t.v.Index
}

// Kind returns the classification of the variable.
func (t *Trace) Kind() VarKind {
	return t.v.Kind
}

// Variable returns the full declaration of the trace.
func (t *Trace) Variable() Variable {
	return t.v
}

// IsComplex reports whether the trace holds complex samples.
func (t *Trace) IsComplex() bool {
	return t.file.enc.cplx
}

// Len returns the total number of points across all steps.
func (t *Trace) Len() int {
	return t.file.header.NumPoints
}

// Values returns the real samples of one step, or of the whole dump
// for AllSteps. The slice shares the decoded storage.
func (t *Trace) Values(step int) ([]float64, error) {
	if t.file.enc.cplx {
		return nil, &TypeMismatchError{Name: t.v.Name, Reason: "real values of a complex trace"}
	}
	start, end, err := t.file.stepRange(step)
	if err != nil {
		return nil, err
	}
	t.file.ensureColumn(t.v.Index)
	return t.file.realCols[t.v.Index][start:end], nil
}

// Complex returns the complex samples of one step.
func (t *Trace) Complex(step int) ([]complex128, error) {
	if !t.file.enc.cplx {
		return nil, &TypeMismatchError{Name: t.v.Name, Reason: "complex values of a real trace"}
	}
	start, end, err := t.file.stepRange(step)
	if err != nil {
		return nil, err
	}
	t.file.ensureColumn(t.v.Index)
	return t.file.cplxCols[t.v.Index][start:end], nil
}

// Magnitudes returns |z| per point of a complex trace.
func (t *Trace) Magnitudes(step int) ([]float64, error) {
	c, err := t.Complex(step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c))
	for i, z := range c {
		out[i] = cmplx.Abs(z)
	}
	return out, nil
}

// Phases returns the phase per point of a complex trace, in degrees.
func (t *Trace) Phases(step int) ([]float64, error) {
	c, err := t.Complex(step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c))
	for i, z := range c {
		out[i] = cmplx.Phase(z) * 180 / math.Pi
	}
	return out, nil
}

// RealParts returns the real part per point of a complex trace.
func (t *Trace) RealParts(step int) ([]float64, error) {
	c, err := t.Complex(step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c))
	for i, z := range c {
		out[i] = real(z)
	}
	return out, nil
}

// ImagParts returns the imaginary part per point of a complex trace.
func (t *Trace) ImagParts(step int) ([]float64, error) {
	c, err := t.Complex(step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c))
	for i, z := range c {
		out[i] = imag(z)
	}
	return out, nil
}

// Value returns a single real sample by point index within a step.
func (t *Trace) Value(point, step int) (float64, error) {
	vals, err := t.Values(step)
	if err != nil {
		return 0, err
	}
	if point < 0 || point >= len(vals) {
		return 0, fmt.Errorf("rawfile: point %d out of range (%d points)", point, len(vals))
	}
	return vals[point], nil
}

// ComplexValue returns a single complex sample by point index within
// a step.
func (t *Trace) ComplexValue(point, step int) (complex128, error) {
	vals, err := t.Complex(step)
	if err != nil {
		return 0, err
	}
	if point < 0 || point >= len(vals) {
		return 0, fmt.Errorf("rawfile: point %d out of range (%d points)", point, len(vals))
	}
	return vals[point], nil
}

// ValueAt linearly interpolates a real trace at an axis position
// inside one step.
func (t *Trace) ValueAt(x float64, step int) (float64, error) {
	vals, err := t.Values(step)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("rawfile: trace %q has no points in step %d", t.v.Name, step)
	}
	axis, err := t.file.AxisValues(step)
	if err != nil {
		return 0, err
	}
	return wave.SampleAt(axis, vals, x), nil
}

// ComplexValueAt linearly interpolates a complex trace at an axis
// position inside one step.
func (t *Trace) ComplexValueAt(x float64, step int) (complex128, error) {
	vals, err := t.Complex(step)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("rawfile: trace %q has no points in step %d", t.v.Name, step)
	}
	axis, err := t.file.AxisValues(step)
	if err != nil {
		return 0, err
	}
	return wave.SampleAtComplex(axis, vals, x), nil
}
