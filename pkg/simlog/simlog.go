// Package simlog reads the log files circuit simulators write next to
// their waveform dumps. A log carries the .step lines of a sweep and
// the results of .meas directives, either as single "name: expr=value"
// lines or, for stepped runs, as per-step measurement tables. Names
// are matched case-insensitively, the way the simulators treat them.
package simlog

import (
	"bytes"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/stepdir"
)

// ReadOptions adjusts how a log is read.
type ReadOptions struct {
	// Logger receives diagnostic messages about tolerated oddities,
	// such as malformed step lines. Nil discards them.
	Logger *zap.SugaredLogger
}

// Data holds the contents of one simulator log: the sweep table built
// from its .step lines and the measurement results keyed by name. All
// names are stored lowercase.
type Data struct {
	circuit string
	date    string

	stepLines []map[string]float64
	stepVars  []string

	measures map[string][]Value
	order    []string

	log *zap.SugaredLogger
}

// Read parses a simulator log from r.
func Read(r io.Reader, opts *ReadOptions) (*Data, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "simlog: read input")
	}
	return parse(data, opts)
}

// ReadFile parses a simulator log from a file on disk.
func ReadFile(path string, opts *ReadOptions) (*Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "simlog: read file")
	}
	return parse(data, opts)
}

func parse(data []byte, opts *ReadOptions) (*Data, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	p, err := stepdir.NewParser()
	if err != nil {
		return nil, errors.Wrap(err, "simlog: build step parser")
	}

	d := &Data{measures: make(map[string][]Value), log: log}
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		t := strings.TrimSpace(strings.TrimRight(lines[i], "\r"))
		switch {
		case t == "":
		case hasFoldPrefix(t, "circuit:"):
			d.circuit = strings.TrimSpace(t[len("circuit:"):])
		case hasFoldPrefix(t, "date:"):
			d.date = strings.TrimSpace(t[len("date:"):])
		case stepdir.IsDirective(t):
			dir, err := p.ParseLine(t)
			if err != nil {
				log.Warnf("skipping malformed step line %d: %v", i+1, err)
				continue
			}
			d.addStepLine(dir)
		case hasFoldPrefix(t, "measurement:"):
			name := strings.ToLower(strings.TrimSpace(t[len("measurement:"):]))
			i = d.readMeasureTable(name, lines, i)
		default:
			if name, v, ok := measureLine(t); ok {
				d.addMeasure(name, v)
			}
		}
	}

	if n := len(d.stepLines); n > 0 {
		for _, name := range d.order {
			if got := len(d.measures[name]); got != n {
				log.Warnf("measure %q has %d values for %d steps", name, got, n)
			}
		}
		for i, line := range d.stepLines {
			for _, v := range d.stepVars {
				if _, ok := line[v]; !ok {
					log.Warnf("step line %d does not assign %s", i+1, v)
				}
			}
		}
	}

	log.Debugf("loaded log: %d steps, %d measures", len(d.stepLines), len(d.order))
	return d, nil
}

// decodeText converts the raw log bytes to a string. LTspice writes
// logs in UTF-16LE on some platforms, detected by the BOM or by the
// zero high byte of the first character.
func decodeText(data []byte) (string, error) {
	if len(data) >= 2 && ((data[0] == 0xff && data[1] == 0xfe) || (data[0] != 0 && data[1] == 0)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", errors.Wrap(err, "simlog: decode log text")
		}
		return string(out), nil
	}
	return string(bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})), nil
}

func (d *Data) addStepLine(dir *stepdir.Directive) {
	vals := dir.Values()
	line := make(map[string]float64, len(vals))
	for _, name := range dir.Names() {
		v, ok := vals[name]
		if !ok {
			d.log.Warnf("ignoring non-numeric step value for %s", name)
			continue
		}
		key := strings.ToLower(name)
		line[key] = v
		if !contains(d.stepVars, key) {
			d.stepVars = append(d.stepVars, key)
		}
	}
	d.stepLines = append(d.stepLines, line)
}

func (d *Data) addMeasure(name string, v Value) {
	if _, ok := d.measures[name]; !ok {
		d.order = append(d.order, name)
	}
	d.measures[name] = append(d.measures[name], v)
}

// readMeasureTable consumes the per-step table that follows a
// "Measurement: name" line. The first non-numbered line is the column
// title row; data rows start with a 1-based step number and carry the
// result in the second column. Returns the index of the last line of
// the table.
func (d *Data) readMeasureTable(name string, lines []string, start int) int {
	var vals []Value
	headerSkipped := false

	i := start + 1
	for ; i < len(lines); i++ {
		t := strings.TrimSpace(strings.TrimRight(lines[i], "\r"))
		if t == "" {
			break
		}
		fields := strings.Fields(t)
		step, err := strconv.Atoi(fields[0])
		if err != nil {
			if !headerSkipped && len(vals) == 0 {
				headerSkipped = true
				continue
			}
			break
		}
		if len(fields) < 2 {
			d.log.Warnf("measurement %q row %d has no value", name, step)
			continue
		}
		if step != len(vals)+1 {
			d.log.Warnf("measurement %q rows out of order at step %d", name, step)
		}
		vals = append(vals, parseValue(fields[1]))
	}

	if _, ok := d.measures[name]; !ok {
		d.order = append(d.order, name)
	}
	d.measures[name] = append(d.measures[name], vals...)
	return i - 1
}

// measureLine extracts a single-run measurement result of the form
// "name: expr=value tail" or "name=value tail". The value is the
// token directly behind the first equals sign; solver statistics,
// which pad the equals sign with spaces, do not match.
func measureLine(line string) (string, Value, bool) {
	eq := strings.IndexByte(line, '=')
	if eq <= 0 || eq+1 >= len(line) {
		return "", Value{}, false
	}
	if line[eq-1] == ' ' || line[eq-1] == '\t' || line[eq+1] == ' ' || line[eq+1] == '\t' {
		return "", Value{}, false
	}
	head := line[:eq]
	if c := strings.IndexByte(head, ':'); c >= 0 {
		head = head[:c]
	}
	name := strings.TrimSpace(head)
	if !isIdent(name) {
		return "", Value{}, false
	}
	fields := strings.Fields(line[eq+1:])
	if len(fields) == 0 {
		return "", Value{}, false
	}
	return strings.ToLower(name), parseValue(fields[0]), true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Circuit returns the circuit path from the log's Circuit: line.
func (d *Data) Circuit() string { return d.circuit }

// Date returns the timestamp from the log's Date: line.
func (d *Data) Date() string { return d.date }

// HasSteps reports whether the log belongs to a stepped simulation.
func (d *Data) HasSteps() bool { return len(d.stepLines) > 0 }

// StepCount returns the number of .step lines, 0 for a single run.
func (d *Data) StepCount() int { return len(d.stepLines) }

// StepVars returns the sweep variable names in declaration order.
func (d *Data) StepVars() []string {
	return append([]string(nil), d.stepVars...)
}

// StepValues returns the per-step values of one sweep variable.
// Steps whose .step line does not assign the variable hold NaN.
func (d *Data) StepValues(name string) ([]float64, error) {
	key := strings.ToLower(name)
	if !contains(d.stepVars, key) {
		return nil, errors.Errorf("simlog: no step variable %q in log", name)
	}
	out := make([]float64, len(d.stepLines))
	for i, line := range d.stepLines {
		if v, ok := line[key]; ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// StepParams returns the sweep table as one parameter map per step,
// in the shape rawfile.ReadOptions.StepParams takes. Nil for a
// single-run log.
func (d *Data) StepParams() []map[string]float64 {
	if len(d.stepLines) == 0 {
		return nil
	}
	out := make([]map[string]float64, len(d.stepLines))
	for i, line := range d.stepLines {
		m := make(map[string]float64, len(line))
		for k, v := range line {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// MeasureNames returns the measurement names in log order.
func (d *Data) MeasureNames() []string {
	return append([]string(nil), d.order...)
}

// Measures returns all values of one measurement, one per step for
// stepped runs and a single entry otherwise.
func (d *Data) Measures(name string) ([]Value, error) {
	vals, ok := d.measures[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("simlog: no measure %q in log", name)
	}
	return vals, nil
}

// MeasureValue returns the result of a measurement that has exactly
// one value. For stepped measurements use MeasureAt or MeasureWith.
func (d *Data) MeasureValue(name string) (Value, error) {
	vals, err := d.Measures(name)
	if err != nil {
		return Value{}, err
	}
	if len(vals) != 1 {
		return Value{}, errors.Errorf("simlog: measure %q has %d per-step values, pick a step", name, len(vals))
	}
	return vals[0], nil
}

// MeasureAt returns the value of a measurement at one step.
func (d *Data) MeasureAt(name string, step int) (Value, error) {
	vals, err := d.Measures(name)
	if err != nil {
		return Value{}, err
	}
	if step < 0 || step >= len(vals) {
		return Value{}, errors.Errorf("simlog: step %d out of range, measure %q has %d values", step, name, len(vals))
	}
	return vals[step], nil
}

// MeasureFloats returns a measurement as real numbers, converting
// complex values to their magnitude. Fails when any value is text,
// such as a failed measurement marker.
func (d *Data) MeasureFloats(name string) ([]float64, error) {
	vals, err := d.Measures(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, ok := v.Float()
		if !ok {
			return nil, errors.Errorf("simlog: measure %q value %q is not numeric", name, v.Text)
		}
		out[i] = f
	}
	return out, nil
}

// StepsWith returns the 0-based indices of the steps whose sweep
// variables equal every given condition. Empty conditions match all
// steps.
func (d *Data) StepsWith(conds map[string]float64) ([]int, error) {
	idx := make([]int, len(d.stepLines))
	for i := range idx {
		idx[i] = i
	}
	names := make([]string, 0, len(conds))
	for name := range conds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		vals, err := d.StepValues(name)
		if err != nil {
			return nil, err
		}
		want := conds[name]
		keep := idx[:0]
		for _, i := range idx {
			if vals[i] == want {
				keep = append(keep, i)
			}
		}
		idx = keep
	}
	return idx, nil
}

// MeasureWith returns the value of a measurement at the single step
// selected by the given sweep conditions. Fails when the conditions
// match zero or several steps.
func (d *Data) MeasureWith(name string, conds map[string]float64) (Value, error) {
	steps, err := d.StepsWith(conds)
	if err != nil {
		return Value{}, err
	}
	if len(steps) != 1 {
		return Value{}, errors.Errorf("simlog: conditions match %d steps, want exactly one", len(steps))
	}
	return d.MeasureAt(name, steps[0])
}
