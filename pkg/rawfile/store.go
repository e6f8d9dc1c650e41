package rawfile

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// AllSteps selects every step at once in step-taking accessors.
const AllSteps = -1

// File is an in-memory waveform dump: the parsed header, the step
// index, and the decoded trace data. Files are immutable once read;
// concurrent access is safe. Slices returned by accessors share the
// decoded storage and must not be modified.
type File struct {
	header Header
	enc    encParams
	steps  []Step
	axis   []float64 // axis values as reals, backing the step index

	nameIdx map[string]int

	mu       sync.Mutex
	payload  []byte // binary payload retained for deferred decoding
	decoded  []bool
	realCols [][]float64
	cplxCols [][]complex128

	log *zap.SugaredLogger
}

// newFile allocates a File with empty column storage for the header's
// variable count.
func newFile(h Header, enc encParams, log *zap.SugaredLogger) *File {
	nvars := len(h.Variables)
	f := &File{
		header:  h,
		enc:     enc,
		nameIdx: make(map[string]int, nvars),
		decoded: make([]bool, nvars),
		log:     log,
	}
	for _, v := range h.Variables {
		f.nameIdx[strings.ToLower(v.Name)] = v.Index
	}
	if enc.cplx {
		f.cplxCols = make([][]complex128, nvars)
	} else {
		f.realCols = make([][]float64, nvars)
	}
	return f
}

// Header returns the parsed declaration section. The slices inside
// are shared and must not be modified.
func (f *File) Header() Header {
	return f.header
}

// Encoding summarizes the representation the dump was stored in.
func (f *File) Encoding() Encoding {
	return f.enc.public()
}

// Variables returns the declared variables in declaration order.
func (f *File) Variables() []Variable {
	out := make([]Variable, len(f.header.Variables))
	copy(out, f.header.Variables)
	return out
}

// TraceNames returns all variable names in declaration order.
func (f *File) TraceNames() []string {
	names := make([]string, len(f.header.Variables))
	for i, v := range f.header.Variables {
		names[i] = v.Name
	}
	return names
}

// NumPoints returns the total number of points across all steps.
func (f *File) NumPoints() int {
	return f.header.NumPoints
}

// NumVariables returns the number of declared variables.
func (f *File) NumVariables() int {
	return len(f.header.Variables)
}

// StepCount returns the number of runs in the dump, 1 for unstepped
// simulations.
func (f *File) StepCount() int {
	return len(f.steps)
}

// Steps returns the step index. The parameter maps are shared and
// must not be modified.
func (f *File) Steps() []Step {
	out := make([]Step, len(f.steps))
	copy(out, f.steps)
	return out
}

// StepParams returns the sweep parameters of every step in order. A
// dump without sweep information yields empty maps.
func (f *File) StepParams() []map[string]float64 {
	out := make([]map[string]float64, len(f.steps))
	for i, s := range f.steps {
		out[i] = s.Params
	}
	return out
}

// StepLen returns the number of points in one step.
func (f *File) StepLen(step int) (int, error) {
	start, end, err := f.stepRange(step)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// stepRange resolves a step selector to a point range.
func (f *File) stepRange(step int) (int, int, error) {
	if step == AllSteps {
		return 0, f.header.NumPoints, nil
	}
	if step < 0 || step >= len(f.steps) {
		return 0, 0, &StepOutOfRangeError{Step: step, Count: len(f.steps)}
	}
	s := f.steps[step]
	return s.Start, s.End, nil
}

// Axis returns the independent axis trace, variable 0.
func (f *File) Axis() (*Trace, error) {
	return f.TraceAt(0)
}

// AxisValues returns the axis values of one step as reals. For
// complex dumps this is the real part of the axis column.
func (f *File) AxisValues(step int) ([]float64, error) {
	start, end, err := f.stepRange(step)
	if err != nil {
		return nil, err
	}
	return f.axis[start:end], nil
}

// Trace looks a trace up by name. Names match case-insensitively.
func (f *File) Trace(name string) (*Trace, error) {
	idx, ok := f.nameIdx[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownVariableError{Name: name}
	}
	return &Trace{file: f, v: f.header.Variables[idx]}, nil
}

// TraceAt looks a trace up by declaration index.
func (f *File) TraceAt(index int) (*Trace, error) {
	if index < 0 || index >= len(f.header.Variables) {
		return nil, &UnknownVariableError{Index: index}
	}
	return &Trace{file: f, v: f.header.Variables[index]}, nil
}

// mustColumn decodes one column in place. Callers must hold mu or
// have exclusive access during construction.
func (f *File) mustColumn(col int) {
	if f.decoded[col] {
		return
	}
	nvars := len(f.header.Variables)
	npoints := f.header.NumPoints
	if f.enc.cplx {
		f.cplxCols[col] = decodeComplexColumn(f.payload, f.enc, nvars, npoints, col)
	} else {
		f.realCols[col] = decodeRealColumn(f.payload, f.enc, nvars, npoints, col)
	}
	f.decoded[col] = true
	f.log.Debugf("decoded %s", f.header.Variables[col].Name)
}

// ensureColumn decodes one column on first access. Size checks happen
// at read time, so decoding itself cannot fail.
func (f *File) ensureColumn(col int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustColumn(col)
}

// ensureAll decodes every remaining column, for the writer.
func (f *File) ensureAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for col := range f.decoded {
		f.mustColumn(col)
	}
}
