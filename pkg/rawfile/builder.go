package rawfile

import (
	"fmt"

	"go.uber.org/zap"
)

// Builder assembles a waveform dump in memory, for writing simulator
// output or synthesizing test fixtures. Declare variables first, then
// add one run of column data per step.
type Builder struct {
	Title   string
	Date    string
	Command string
	Offset  float64

	plotName string
	vars     []Variable
	kindSet  bool
	cplx     bool
	steps    []builderStep
}

type builderStep struct {
	params map[string]float64
	re     [][]float64
	cx     [][]complex128
	points int
}

// NewBuilder starts a dump with the given plot name, e.g.
// "Transient Analysis".
func NewBuilder(plotName string) *Builder {
	return &Builder{plotName: plotName}
}

// AddVariable declares the next data column and returns its index.
// The first variable is the independent axis. Variables cannot be
// added once step data exists.
func (b *Builder) AddVariable(name, tag string) (int, error) {
	if len(b.steps) > 0 {
		return 0, fmt.Errorf("rawfile: cannot declare %q after step data", name)
	}
	idx := len(b.vars)
	b.vars = append(b.vars, Variable{
		Index: idx,
		Name:  name,
		Tag:   tag,
		Kind:  kindFromTag(tag),
	})
	return idx, nil
}

// AddStep appends one run of real data, one column per declared
// variable. The axis column must be non-decreasing within the run.
// Columns are copied.
func (b *Builder) AddStep(params map[string]float64, columns ...[]float64) error {
	if b.kindSet && b.cplx {
		return fmt.Errorf("rawfile: real step in a complex dump")
	}
	if err := b.checkColumns(len(columns)); err != nil {
		return err
	}
	npoints := len(columns[0])
	re := make([][]float64, len(columns))
	for i, col := range columns {
		if len(col) != npoints {
			return fmt.Errorf("rawfile: column %d has %d points, expected %d", i, len(col), npoints)
		}
		re[i] = append([]float64(nil), col...)
	}
	if err := checkAxisOrder(re[0]); err != nil {
		return err
	}
	b.kindSet = true
	b.steps = append(b.steps, builderStep{params: copyParams(params), re: re, points: npoints})
	return nil
}

// AddComplexStep appends one run of complex data. The axis column
// must have non-decreasing real parts within the run.
func (b *Builder) AddComplexStep(params map[string]float64, columns ...[]complex128) error {
	if b.kindSet && !b.cplx {
		return fmt.Errorf("rawfile: complex step in a real dump")
	}
	if err := b.checkColumns(len(columns)); err != nil {
		return err
	}
	npoints := len(columns[0])
	cx := make([][]complex128, len(columns))
	for i, col := range columns {
		if len(col) != npoints {
			return fmt.Errorf("rawfile: column %d has %d points, expected %d", i, len(col), npoints)
		}
		cx[i] = append([]complex128(nil), col...)
	}
	axis := make([]float64, npoints)
	for p, z := range cx[0] {
		axis[p] = real(z)
	}
	if err := checkAxisOrder(axis); err != nil {
		return err
	}
	b.kindSet = true
	b.cplx = true
	b.steps = append(b.steps, builderStep{params: copyParams(params), cx: cx, points: npoints})
	return nil
}

func (b *Builder) checkColumns(got int) error {
	if len(b.vars) == 0 {
		return fmt.Errorf("rawfile: declare variables before adding data")
	}
	if got != len(b.vars) {
		return fmt.Errorf("rawfile: got %d columns for %d variables", got, len(b.vars))
	}
	return nil
}

func checkAxisOrder(axis []float64) error {
	for k := 1; k < len(axis); k++ {
		if axis[k] < axis[k-1] {
			return fmt.Errorf("rawfile: axis decreases at point %d within a run", k)
		}
	}
	return nil
}

func copyParams(params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// Build assembles the dump. The result carries the default
// representation, binary little-endian interleaved single precision,
// which WriteOptions can override at write time.
func (b *Builder) Build() (*File, error) {
	if len(b.vars) == 0 {
		return nil, fmt.Errorf("rawfile: a dump needs at least one variable")
	}
	if err := checkVariableNames(b.vars); err != nil {
		return nil, err
	}

	npoints := 0
	for _, s := range b.steps {
		npoints += s.points
	}

	flags := Flags(0)
	if b.cplx {
		flags |= FlagComplex
	}
	if len(b.steps) > 1 {
		flags |= FlagStepped
	}

	steps := make([]Step, 0, len(b.steps))
	var table []map[string]float64
	withParams := 0
	pos := 0
	for i, s := range b.steps {
		steps = append(steps, Step{Index: i, Start: pos, End: pos + s.points, Params: s.params})
		table = append(table, s.params)
		if len(s.params) > 0 {
			withParams++
		}
		pos += s.points
	}
	if len(steps) == 0 {
		steps = []Step{{Params: map[string]float64{}}}
	}

	h := Header{
		Title:        b.Title,
		Date:         b.Date,
		PlotName:     b.plotName,
		Flags:        flags,
		NumVariables: len(b.vars),
		NumPoints:    npoints,
		Offset:       b.Offset,
		Command:      b.Command,
		Variables:    b.vars,
	}
	if len(steps) > 1 {
		h.NumSteps = len(steps)
		if withParams == len(b.steps) {
			h.StepParams = table
		}
	}

	f := newFile(h, encParams{cplx: b.cplx}, zap.NewNop().Sugar())
	f.steps = steps

	nvars := len(b.vars)
	if b.cplx {
		for col := 0; col < nvars; col++ {
			merged := make([]complex128, 0, npoints)
			for _, s := range b.steps {
				merged = append(merged, s.cx[col]...)
			}
			f.cplxCols[col] = merged
		}
		axis := make([]float64, npoints)
		for p, z := range f.cplxCols[0] {
			axis[p] = real(z)
		}
		f.axis = axis
	} else {
		for col := 0; col < nvars; col++ {
			merged := make([]float64, 0, npoints)
			for _, s := range b.steps {
				merged = append(merged, s.re[col]...)
			}
			f.realCols[col] = merged
		}
		f.axis = f.realCols[0]
	}
	for i := range f.decoded {
		f.decoded[i] = true
	}
	return f, nil
}
