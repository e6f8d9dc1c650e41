package rawfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

// buildLowpass assembles a small transient dump with values that do
// not fit float32 exactly.
func buildLowpass(t *testing.T) *File {
	t.Helper()
	b := NewBuilder("Transient Analysis")
	b.Title = "* lowpass.asc"
	b.Date = "Sat Aug 22 10:00:00 2026"
	if _, err := b.AddVariable("time", "time"); err != nil {
		t.Fatalf("Failed to add variable: %v", err)
	}
	if _, err := b.AddVariable("V(out)", "voltage"); err != nil {
		t.Fatalf("Failed to add variable: %v", err)
	}
	err := b.AddStep(nil,
		[]float64{0, 1e-6, 2e-6},
		[]float64{0, 0.3, 0.9})
	if err != nil {
		t.Fatalf("Failed to add step: %v", err)
	}
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	return f
}

// rewrite serializes f and reads the result back.
func rewrite(t *testing.T, f *File, wopts *WriteOptions, ropts *ReadOptions) *File {
	t.Helper()
	var buf bytes.Buffer
	n, err := f.Write(&buf, wopts)
	if err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("Write reported %d bytes, buffer has %d", n, buf.Len())
	}
	g, err := Read(bytes.NewReader(buf.Bytes()), ropts)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	return g
}

// traceValues fetches one trace of one file for comparison.
func traceValues(t *testing.T, f *File, name string) []float64 {
	t.Helper()
	tr, err := f.Trace(name)
	if err != nil {
		t.Fatalf("Failed to look up %q: %v", name, err)
	}
	vals, err := tr.Values(AllSteps)
	if err != nil {
		t.Fatalf("Failed to get %q: %v", name, err)
	}
	return vals
}

// TestRoundTripSingle writes the default representation and expects
// non-axis columns back at float32 resolution.
func TestRoundTripSingle(t *testing.T) {
	f := buildLowpass(t)
	g := rewrite(t, f, nil, nil)

	if g.Header().Title != "* lowpass.asc" || g.Header().PlotName != "Transient Analysis" {
		t.Errorf("header = %+v", g.Header())
	}

	axis := traceValues(t, g, "time")
	for i, want := range []float64{0, 1e-6, 2e-6} {
		if axis[i] != want {
			t.Errorf("time[%d] = %v, want %v", i, axis[i], want)
		}
	}

	vals := traceValues(t, g, "V(out)")
	for i, orig := range []float64{0, 0.3, 0.9} {
		want := float64(float32(orig))
		if vals[i] != want {
			t.Errorf("V(out)[%d] = %v, want %v", i, vals[i], want)
		}
		if rel := vals[i] - orig; rel > 1e-6 || rel < -1e-6 {
			t.Errorf("V(out)[%d] off by %v", i, rel)
		}
	}
}

// TestRoundTripDouble writes double precision and expects bit-exact
// values back.
func TestRoundTripDouble(t *testing.T) {
	f := buildLowpass(t)
	g := rewrite(t, f, &WriteOptions{Precision: PrecisionDouble}, nil)

	if !g.Encoding().DoublePrecision {
		t.Error("DoublePrecision not set after read back")
	}
	vals := traceValues(t, g, "V(out)")
	for i, want := range []float64{0, 0.3, 0.9} {
		if vals[i] != want {
			t.Errorf("V(out)[%d] = %v, want %v", i, vals[i], want)
		}
	}
}

// TestRoundTripASCII writes a text data block and expects bit-exact
// values back.
func TestRoundTripASCII(t *testing.T) {
	f := buildLowpass(t)

	var buf bytes.Buffer
	if _, err := f.Write(&buf, &WriteOptions{Format: FormatASCII}); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if !strings.Contains(buf.String(), "Values:") {
		t.Error("output has no Values: sentinel")
	}

	g, err := Read(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !g.Encoding().ASCII {
		t.Error("ASCII not set after read back")
	}
	vals := traceValues(t, g, "V(out)")
	for i, want := range []float64{0, 0.3, 0.9} {
		if vals[i] != want {
			t.Errorf("V(out)[%d] = %v, want %v", i, vals[i], want)
		}
	}
}

// TestRoundTripFastAccess writes the transposed layout.
func TestRoundTripFastAccess(t *testing.T) {
	f := buildLowpass(t)
	g := rewrite(t, f,
		&WriteOptions{Layout: LayoutByVariable, Precision: PrecisionDouble}, nil)

	if !g.Encoding().FastAccess {
		t.Error("FastAccess not set after read back")
	}
	vals := traceValues(t, g, "V(out)")
	for i, want := range []float64{0, 0.3, 0.9} {
		if vals[i] != want {
			t.Errorf("V(out)[%d] = %v, want %v", i, vals[i], want)
		}
	}
}

// TestRoundTripUTF16 writes an UTF-16LE header.
func TestRoundTripUTF16(t *testing.T) {
	f := buildLowpass(t)

	var buf bytes.Buffer
	if _, err := f.Write(&buf, &WriteOptions{HeaderText: HeaderTextUTF16}); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	raw := buf.Bytes()
	if raw[0] != 'T' || raw[1] != 0 {
		t.Errorf("header does not start with UTF-16LE text: % x", raw[:4])
	}

	g, err := Read(bytes.NewReader(raw), nil)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !g.Encoding().UTF16Header {
		t.Error("UTF16Header not set after read back")
	}
	if g.Header().PlotName != "Transient Analysis" {
		t.Errorf("PlotName = %q", g.Header().PlotName)
	}
	axis := traceValues(t, g, "time")
	if axis[2] != 2e-6 {
		t.Errorf("time[2] = %v", axis[2])
	}

	// The encoding is sticky: writing again without options keeps
	// UTF-16.
	var again bytes.Buffer
	if _, err := g.Write(&again, nil); err != nil {
		t.Fatalf("Failed to rewrite: %v", err)
	}
	if again.Bytes()[1] != 0 {
		t.Error("rewrite dropped the UTF-16 header")
	}
}

// TestRoundTripBigEndian writes and reads most significant byte
// first.
func TestRoundTripBigEndian(t *testing.T) {
	f := buildLowpass(t)
	g := rewrite(t, f,
		&WriteOptions{ByteOrder: binary.BigEndian, Precision: PrecisionDouble},
		&ReadOptions{ByteOrder: binary.BigEndian})
	vals := traceValues(t, g, "V(out)")
	if vals[1] != 0.3 {
		t.Errorf("V(out)[1] = %v", vals[1])
	}
}

// TestRoundTripComplex writes an AC dump and expects exact float64
// pairs back, in both binary and text form.
func TestRoundTripComplex(t *testing.T) {
	b := NewBuilder("AC Analysis")
	if _, err := b.AddVariable("frequency", "frequency"); err != nil {
		t.Fatalf("Failed to add variable: %v", err)
	}
	if _, err := b.AddVariable("V(out)", "voltage"); err != nil {
		t.Fatalf("Failed to add variable: %v", err)
	}
	err := b.AddComplexStep(nil,
		[]complex128{complex(1e3, 0), complex(1e4, 0)},
		[]complex128{complex(0.9, -0.1), complex(0.5, -0.5)})
	if err != nil {
		t.Fatalf("Failed to add step: %v", err)
	}
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}

	for _, opts := range []*WriteOptions{nil, {Format: FormatASCII}} {
		g := rewrite(t, f, opts, nil)
		if !g.Encoding().Complex {
			t.Error("Complex not set after read back")
		}
		tr, err := g.Trace("V(out)")
		if err != nil {
			t.Fatalf("Failed to look up trace: %v", err)
		}
		vals, err := tr.Complex(AllSteps)
		if err != nil {
			t.Fatalf("Failed to get complex values: %v", err)
		}
		if vals[0] != complex(0.9, -0.1) || vals[1] != complex(0.5, -0.5) {
			t.Errorf("values = %v", vals)
		}
	}
}

// TestRoundTripStepped checks that runs and their parameters survive
// serialization.
func TestRoundTripStepped(t *testing.T) {
	build := func(axes [][]float64) *File {
		b := NewBuilder("Transient Analysis")
		if _, err := b.AddVariable("time", "time"); err != nil {
			t.Fatalf("Failed to add variable: %v", err)
		}
		if _, err := b.AddVariable("V(out)", "voltage"); err != nil {
			t.Fatalf("Failed to add variable: %v", err)
		}
		for i, axis := range axes {
			vals := make([]float64, len(axis))
			for p := range vals {
				vals[p] = float64(i + 1)
			}
			params := map[string]float64{"freq": float64(i+1) * 1e6}
			if err := b.AddStep(params, axis, vals); err != nil {
				t.Fatalf("Failed to add step: %v", err)
			}
		}
		f, err := b.Build()
		if err != nil {
			t.Fatalf("Failed to build: %v", err)
		}
		return f
	}

	t.Run("axis restarts", func(t *testing.T) {
		f := build([][]float64{{0, 1e-6, 2e-6}, {0, 1e-6}})
		var buf bytes.Buffer
		if _, err := f.Write(&buf, nil); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		head := buf.String()[:bytes.Index(buf.Bytes(), []byte("Binary:\n"))]
		if !strings.Contains(head, "No. Steps: 2") {
			t.Error("No. Steps not written")
		}
		if !strings.Contains(head, ".step freq=1e+06") {
			t.Errorf("sweep table not written:\n%s", head)
		}

		g, err := Read(bytes.NewReader(buf.Bytes()), nil)
		if err != nil {
			t.Fatalf("Failed to read back: %v", err)
		}
		if g.StepCount() != 2 {
			t.Fatalf("StepCount = %d", g.StepCount())
		}
		params := g.StepParams()
		if params[0]["freq"] != 1e6 || params[1]["freq"] != 2e6 {
			t.Errorf("StepParams = %v", params)
		}
		n, err := g.StepLen(1)
		if err != nil {
			t.Fatalf("Failed to get step length: %v", err)
		}
		if n != 2 {
			t.Errorf("StepLen(1) = %d", n)
		}
	})

	t.Run("monotonic axis splits evenly", func(t *testing.T) {
		f := build([][]float64{{0, 1e-6}, {2e-6, 3e-6}})
		g := rewrite(t, f, nil, nil)
		if g.StepCount() != 2 {
			t.Fatalf("StepCount = %d", g.StepCount())
		}
		vals := traceValues(t, g, "V(out)")
		if vals[1] != 1 || vals[2] != 2 {
			t.Errorf("values = %v", vals)
		}
	})
}

// TestWriteCompressed covers the compressed read path and the
// write-side refusal.
func TestWriteCompressed(t *testing.T) {
	f := buildLowpass(t)
	var buf bytes.Buffer
	if _, err := f.Write(&buf, nil); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	data := buf.Bytes()
	idx := bytes.Index(data, []byte("Binary:\n"))
	if idx < 0 {
		t.Fatal("no Binary: sentinel")
	}
	idx += len("Binary:\n")

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("Failed to init compressor: %v", err)
	}
	packed := enc.EncodeAll(data[idx:], nil)
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close compressor: %v", err)
	}

	head := bytes.Replace(data[:idx], []byte("Flags: real\n"), []byte("Flags: real compressed\n"), 1)
	comp := append(head, packed...)

	g, err := Read(bytes.NewReader(comp), nil)
	if err != nil {
		t.Fatalf("Failed to read compressed dump: %v", err)
	}
	if !g.Encoding().Compressed {
		t.Error("Compressed not set")
	}
	vals := traceValues(t, g, "V(out)")
	if vals[1] != float64(float32(0.3)) {
		t.Errorf("V(out)[1] = %v", vals[1])
	}

	t.Run("inherited write is refused", func(t *testing.T) {
		var out bytes.Buffer
		_, err := g.Write(&out, nil)
		var uerr *UnsupportedEncodingError
		if !errors.As(err, &uerr) {
			t.Fatalf("got %v, want UnsupportedEncodingError", err)
		}
		if out.Len() != 0 {
			t.Errorf("%d bytes written despite the error", out.Len())
		}
	})

	t.Run("explicit format writes decompressed", func(t *testing.T) {
		h := rewrite(t, g, &WriteOptions{Format: FormatBinary}, nil)
		if h.Encoding().Compressed {
			t.Error("Compressed still set")
		}
		vals := traceValues(t, h, "V(out)")
		if vals[1] != float64(float32(0.3)) {
			t.Errorf("V(out)[1] = %v", vals[1])
		}
	})

	t.Run("foreign compression is rejected", func(t *testing.T) {
		bogus := append(append([]byte{}, head...), 0x1f, 0x8b, 0x08, 0x00)
		_, err := Read(bytes.NewReader(bogus), nil)
		var uerr *UnsupportedEncodingError
		if !errors.As(err, &uerr) {
			t.Fatalf("got %v, want UnsupportedEncodingError", err)
		}
	})
}

// TestWriteFileRoundTrip goes through the filesystem entry points.
func TestWriteFileRoundTrip(t *testing.T) {
	f := buildLowpass(t)
	path := filepath.Join(t.TempDir(), "lowpass.raw")
	if err := f.WriteFile(path, &WriteOptions{Precision: PrecisionDouble}); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	g, err := ReadFile(path, nil)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	vals := traceValues(t, g, "V(out)")
	if vals[2] != 0.9 {
		t.Errorf("V(out)[2] = %v", vals[2])
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.raw"), nil); err == nil {
		t.Error("reading a missing file should fail")
	}
}

// TestHeaderRender checks the rendered header: derived representation
// flags, preserved analysis flags and unrecognized keys.
func TestHeaderRender(t *testing.T) {
	header := strings.Replace(lowpassHeader, "Flags: real\n",
		"Flags: real forward log\nSource: lowpass.net\n", 1)
	f, err := Read(bytes.NewReader(dumpBytes(header, singlePayload(lowpassRows))), nil)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	var buf bytes.Buffer
	if _, err := f.Write(&buf, &WriteOptions{Precision: PrecisionDouble, Layout: LayoutByVariable}); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	head := buf.String()[:bytes.Index(buf.Bytes(), []byte("Binary:\n"))]

	if !strings.Contains(head, "Flags: real forward log double fastaccess\n") {
		t.Errorf("flags line wrong:\n%s", head)
	}
	if !strings.Contains(head, "Source: lowpass.net\n") {
		t.Error("unrecognized key dropped")
	}
	if !strings.Contains(head, "\t1\tV(out)\tvoltage\n") {
		t.Error("variable table wrong")
	}

	g, err := Read(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !g.Header().Flags.Has(FlagForward | FlagLog) {
		t.Errorf("flags = %v", g.Header().Flags)
	}
	if v, ok := g.Header().Lookup("Source"); !ok || v != "lowpass.net" {
		t.Errorf("Lookup(Source) = %q, %v", v, ok)
	}
}
