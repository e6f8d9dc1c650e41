package rawfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const lowpassHeader = "Title: * lowpass.asc\n" +
	"Date: Sat Aug 22 10:00:00 2026\n" +
	"Plotname: Transient Analysis\n" +
	"Flags: real\n" +
	"No. Variables: 2\n" +
	"No. Points: 3\n" +
	"Variables:\n" +
	"\t0\ttime\ttime\n" +
	"\t1\tV(out)\tvoltage\n" +
	"Binary:\n"

var lowpassRows = [][]float64{
	{0, 0},
	{1e-6, 0.5},
	{2e-6, 1.0},
}

// TestReadMinimalBinary reads a small transient dump and checks the
// parsed header and the decoded data.
func TestReadMinimalBinary(t *testing.T) {
	data := dumpBytes(lowpassHeader, singlePayload(lowpassRows))
	f, err := Read(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	h := f.Header()
	if h.Title != "* lowpass.asc" {
		t.Errorf("Title = %q", h.Title)
	}
	if h.PlotName != "Transient Analysis" {
		t.Errorf("PlotName = %q", h.PlotName)
	}
	if h.Flags != 0 {
		t.Errorf("Flags = %v", h.Flags)
	}
	if f.NumVariables() != 2 || f.NumPoints() != 3 {
		t.Errorf("got %d variables, %d points", f.NumVariables(), f.NumPoints())
	}

	vars := f.Variables()
	if vars[0].Name != "time" || vars[0].Kind != KindTime {
		t.Errorf("variable 0 = %+v", vars[0])
	}
	if vars[1].Name != "V(out)" || vars[1].Kind != KindVoltage {
		t.Errorf("variable 1 = %+v", vars[1])
	}

	enc := f.Encoding()
	if enc.ASCII || enc.Complex || enc.DoublePrecision || enc.FastAccess || enc.UTF16Header {
		t.Errorf("unexpected encoding %+v", enc)
	}

	tr, err := f.Trace("V(out)")
	if err != nil {
		t.Fatalf("Failed to look up trace: %v", err)
	}
	vals, err := tr.Values(AllSteps)
	if err != nil {
		t.Fatalf("Failed to get values: %v", err)
	}
	wantVals := []float64{0, 0.5, 1.0}
	for i, want := range wantVals {
		if vals[i] != want {
			t.Errorf("V(out)[%d] = %v, want %v", i, vals[i], want)
		}
	}

	axis, err := f.AxisValues(AllSteps)
	if err != nil {
		t.Fatalf("Failed to get axis: %v", err)
	}
	wantAxis := []float64{0, 1e-6, 2e-6}
	for i, want := range wantAxis {
		if axis[i] != want {
			t.Errorf("axis[%d] = %v, want %v", i, axis[i], want)
		}
	}
}

// TestHeaderOptionalKeys checks Offset, Command, Backannotation and
// unrecognized keys.
func TestHeaderOptionalKeys(t *testing.T) {
	header := strings.Replace(lowpassHeader, "Flags: real\n",
		"Flags: real\n"+
			"Offset: 1.5e-09\n"+
			"Command: Linear Technology Corporation LTspice XVII\n"+
			"Backannotation: u1 1 2\n"+
			"Source: lowpass.net\n", 1)
	f, err := Read(bytes.NewReader(dumpBytes(header, singlePayload(lowpassRows))), nil)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	h := f.Header()
	if h.Offset != 1.5e-9 {
		t.Errorf("Offset = %v", h.Offset)
	}
	if !strings.Contains(h.Command, "LTspice") {
		t.Errorf("Command = %q", h.Command)
	}
	if len(h.Backannotations) != 1 || h.Backannotations[0] != "u1 1 2" {
		t.Errorf("Backannotations = %v", h.Backannotations)
	}
	if v, ok := h.Lookup("source"); !ok || v != "lowpass.net" {
		t.Errorf("Lookup(source) = %q, %v", v, ok)
	}
	if _, ok := h.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

// TestHeaderKeysCaseInsensitive checks that key matching ignores case.
func TestHeaderKeysCaseInsensitive(t *testing.T) {
	header := "TITLE: t\n" +
		"PLOTNAME: AC Analysis\n" +
		"FLAGS: REAL\n" +
		"NO. VARIABLES: 1\n" +
		"NO. POINTS: 1\n" +
		"VARIABLES:\n" +
		"\t0\ttime\ttime\n" +
		"BINARY:\n"
	f, err := Read(bytes.NewReader(dumpBytes(header, singlePayload([][]float64{{0}}))), nil)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if f.Header().PlotName != "AC Analysis" {
		t.Errorf("PlotName = %q", f.Header().PlotName)
	}
}

// TestHeaderErrors exercises the malformed header cases.
func TestHeaderErrors(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		reason string
	}{
		{"empty input", nil, "empty input"},
		{"missing title",
			[]byte(strings.Replace(lowpassHeader, "Title: * lowpass.asc\n", "", 1)),
			"missing Title"},
		{"missing plotname",
			[]byte(strings.Replace(lowpassHeader, "Plotname: Transient Analysis\n", "", 1)),
			"missing Plotname"},
		{"missing flags",
			[]byte(strings.Replace(lowpassHeader, "Flags: real\n", "", 1)),
			"missing Flags"},
		{"missing point count",
			[]byte(strings.Replace(lowpassHeader, "No. Points: 3\n", "", 1)),
			"missing No. Points"},
		{"missing variable table",
			[]byte(strings.Replace(lowpassHeader,
				"Variables:\n\t0\ttime\ttime\n\t1\tV(out)\tvoltage\n", "", 1)),
			"missing variable table"},
		{"missing sentinel",
			[]byte(strings.Replace(lowpassHeader, "Binary:\n", "", 1)),
			"missing Binary: or Values: sentinel"},
		{"table before count",
			[]byte(strings.Replace(lowpassHeader, "No. Variables: 2\n", "", 1)),
			"before No. Variables"},
		{"line without colon",
			[]byte(strings.Replace(lowpassHeader, "Flags: real\n", "Flags: real\ngarbage line\n", 1)),
			"key: value"},
		{"bad variable count",
			[]byte(strings.Replace(lowpassHeader, "No. Variables: 2\n", "No. Variables: two\n", 1)),
			"bad variable count"},
		{"negative point count",
			[]byte(strings.Replace(lowpassHeader, "No. Points: 3\n", "No. Points: -3\n", 1)),
			"bad point count"},
		{"bad offset",
			[]byte(strings.Replace(lowpassHeader, "Flags: real\n", "Flags: real\nOffset: none\n", 1)),
			"bad offset"},
		{"truncated variable table",
			[]byte("Title: t\nPlotname: p\nFlags: real\nNo. Variables: 2\nNo. Points: 1\nVariables:\n\t0\ttime\ttime\n"),
			"variable table"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tc.data), nil)
			var herr *MalformedHeaderError
			if !errors.As(err, &herr) {
				t.Fatalf("got %v, want MalformedHeaderError", err)
			}
			if !strings.Contains(herr.Reason, tc.reason) {
				t.Errorf("reason %q does not mention %q", herr.Reason, tc.reason)
			}
		})
	}
}

// TestVariableTableErrors checks duplicate names and index gaps.
func TestVariableTableErrors(t *testing.T) {
	t.Run("duplicate name", func(t *testing.T) {
		header := strings.Replace(lowpassHeader, "\t1\tV(out)\tvoltage\n", "\t1\tv(OUT)\tvoltage\n", 1)
		header = strings.Replace(header, "\t0\ttime\ttime\n", "\t0\tV(out)\tvoltage\n", 1)
		_, err := Read(bytes.NewReader(dumpBytes(header, nil)), nil)
		var derr *DuplicateVariableError
		if !errors.As(err, &derr) {
			t.Fatalf("got %v, want DuplicateVariableError", err)
		}
		if derr.First != 0 || derr.Second != 1 {
			t.Errorf("duplicate at %d and %d", derr.First, derr.Second)
		}
	})

	t.Run("index gap", func(t *testing.T) {
		header := strings.Replace(lowpassHeader, "\t1\tV(out)\tvoltage\n", "\t2\tV(out)\tvoltage\n", 1)
		_, err := Read(bytes.NewReader(dumpBytes(header, nil)), nil)
		var gerr *IndexGapError
		if !errors.As(err, &gerr) {
			t.Fatalf("got %v, want IndexGapError", err)
		}
		if gerr.Want != 1 || gerr.Got != 2 {
			t.Errorf("gap = want %d got %d", gerr.Want, gerr.Got)
		}
	})

	t.Run("short declaration", func(t *testing.T) {
		header := strings.Replace(lowpassHeader, "\t1\tV(out)\tvoltage\n", "\t1\tV(out)\n", 1)
		_, err := Read(bytes.NewReader(dumpBytes(header, nil)), nil)
		var herr *MalformedHeaderError
		if !errors.As(err, &herr) {
			t.Fatalf("got %v, want MalformedHeaderError", err)
		}
	})
}

// TestHeaderStepTable checks that a Steps: block is parsed into the
// sweep table and attached to the step index.
func TestHeaderStepTable(t *testing.T) {
	header := "Title: sweep\n" +
		"Plotname: Transient Analysis\n" +
		"Flags: real stepped\n" +
		"No. Variables: 2\n" +
		"No. Points: 4\n" +
		"No. Steps: 2\n" +
		"Steps:\n" +
		".step rload=1k\n" +
		".step rload=2k\n" +
		"Variables:\n" +
		"\t0\ttime\ttime\n" +
		"\t1\tV(out)\tvoltage\n" +
		"Binary:\n"
	rows := [][]float64{
		{0, 1}, {1e-6, 2},
		{0, 3}, {1e-6, 4},
	}
	f, err := Read(bytes.NewReader(dumpBytes(header, singlePayload(rows))), nil)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	if f.StepCount() != 2 {
		t.Fatalf("StepCount = %d, want 2", f.StepCount())
	}
	params := f.StepParams()
	if params[0]["rload"] != 1000 || params[1]["rload"] != 2000 {
		t.Errorf("StepParams = %v", params)
	}

	steps := f.Steps()
	if v, ok := steps[1].Param("rload"); !ok || v != 2000 {
		t.Errorf("steps[1].Param(rload) = %v, %v", v, ok)
	}
	if _, ok := steps[0].Param("cload"); ok {
		t.Error("Param(cload) should fail")
	}
}

// TestHeaderStepTableMultiParam checks a sweep over two parameters.
func TestHeaderStepTableMultiParam(t *testing.T) {
	header := "Title: sweep\n" +
		"Plotname: Transient Analysis\n" +
		"Flags: real stepped\n" +
		"No. Variables: 1\n" +
		"No. Points: 2\n" +
		"Steps:\n" +
		".step param rload=1k cload=1p\n" +
		".step param rload=2k cload=2p\n" +
		"Variables:\n" +
		"\t0\ttime\ttime\n" +
		"Binary:\n"
	rows := [][]float64{{0}, {0}}
	f, err := Read(bytes.NewReader(dumpBytes(header, singlePayload(rows))), nil)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	params := f.StepParams()
	if len(params) != 2 {
		t.Fatalf("got %d steps", len(params))
	}
	if params[1]["rload"] != 2000 || params[1]["cload"] != 2e-12 {
		t.Errorf("params[1] = %v", params[1])
	}
}

// TestUTF16Header reads headers encoded as UTF-16LE, with and without
// a byte order mark.
func TestUTF16Header(t *testing.T) {
	payload := singlePayload(lowpassRows)

	t.Run("with BOM", func(t *testing.T) {
		raw, err := encodeText(lowpassHeader, true)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		data := append([]byte{0xff, 0xfe}, raw...)
		data = append(data, payload...)
		f, err := Read(bytes.NewReader(data), nil)
		if err != nil {
			t.Fatalf("Failed to read: %v", err)
		}
		if !f.Encoding().UTF16Header {
			t.Error("UTF16Header not detected")
		}
		checkLowpass(t, f)
	})

	t.Run("without BOM", func(t *testing.T) {
		raw, err := encodeText(lowpassHeader, true)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		data := append(raw, payload...)
		f, err := Read(bytes.NewReader(data), nil)
		if err != nil {
			t.Fatalf("Failed to read: %v", err)
		}
		if !f.Encoding().UTF16Header {
			t.Error("UTF16Header not detected")
		}
		checkLowpass(t, f)
	})

	t.Run("CRLF lines", func(t *testing.T) {
		crlf := strings.ReplaceAll(lowpassHeader, "\n", "\r\n")
		raw, err := encodeText(crlf, true)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		f, err := Read(bytes.NewReader(append(raw, payload...)), nil)
		if err != nil {
			t.Fatalf("Failed to read: %v", err)
		}
		checkLowpass(t, f)
	})
}

// checkLowpass verifies the decoded values of the lowpass fixture.
func checkLowpass(t *testing.T, f *File) {
	t.Helper()
	tr, err := f.Trace("V(out)")
	if err != nil {
		t.Fatalf("Failed to look up trace: %v", err)
	}
	vals, err := tr.Values(AllSteps)
	if err != nil {
		t.Fatalf("Failed to get values: %v", err)
	}
	want := []float64{0, 0.5, 1.0}
	if len(vals) != len(want) {
		t.Fatalf("got %d values, want %d", len(vals), len(want))
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("V(out)[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

// TestHeaderWarnings checks that tolerated oddities are logged rather
// than rejected.
func TestHeaderWarnings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core).Sugar()

	header := strings.Replace(lowpassHeader, "Flags: real\n", "Flags: real turbo\n", 1)
	payload := append(singlePayload(lowpassRows), 0xde, 0xad)
	_, err := Read(bytes.NewReader(dumpBytes(header, payload)), &ReadOptions{Logger: logger})
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	var flagWarn, trailWarn bool
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, "unknown flag") {
			flagWarn = true
		}
		if strings.Contains(entry.Message, "trailing bytes") {
			trailWarn = true
		}
	}
	if !flagWarn {
		t.Error("unknown flag not warned about")
	}
	if !trailWarn {
		t.Error("trailing bytes not warned about")
	}
}
