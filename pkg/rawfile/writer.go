package rawfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding/unicode"
)

// Format selects the data block representation of a written dump
type Format int

const (
	FormatInherit Format = iota // keep the representation the dump was read with
	FormatBinary
	FormatASCII
)

// Precision selects the stored width of real columns: single keeps
// float32 for non-axis columns, double widens everything to float64.
type Precision int

const (
	PrecisionInherit Precision = iota
	PrecisionSingle
	PrecisionDouble
)

// Layout selects the sample order of binary data blocks: ByPoint
// interleaves one row per point, ByVariable writes one contiguous
// block per variable for fast single-trace access.
type Layout int

const (
	LayoutInherit Layout = iota
	LayoutByPoint
	LayoutByVariable
)

// HeaderText selects the text encoding of the header
type HeaderText int

const (
	HeaderTextInherit HeaderText = iota
	HeaderTextUTF8
	HeaderTextUTF16
)

// WriteOptions adjusts the representation of a written dump. The zero
// value reuses the source representation. A dump read from a
// compressed data block cannot be written back verbatim; select
// FormatBinary or FormatASCII to write it decompressed.
type WriteOptions struct {
	Format     Format
	Precision  Precision
	Layout     Layout
	HeaderText HeaderText
	ByteOrder  binary.ByteOrder // nil inherits
}

func (f *File) targetEnc(opts *WriteOptions) (encParams, error) {
	e := f.enc
	if opts.Format == FormatInherit {
		if e.compressed {
			return e, &UnsupportedEncodingError{Variant: "compressed"}
		}
	} else {
		e.compressed = false
		e.ascii = opts.Format == FormatASCII
	}
	switch opts.Precision {
	case PrecisionSingle:
		e.allDouble = false
	case PrecisionDouble:
		e.allDouble = true
	}
	switch opts.Layout {
	case LayoutByPoint:
		e.fastAccess = false
	case LayoutByVariable:
		e.fastAccess = true
	}
	switch opts.HeaderText {
	case HeaderTextUTF8:
		e.utf16 = false
	case HeaderTextUTF16:
		e.utf16 = true
	}
	if opts.ByteOrder != nil {
		e.bigEndian = opts.ByteOrder == binary.BigEndian
	}
	return e, nil
}

// WriteTo serializes the dump in the representation it was read with.
// It implements io.WriterTo.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	return f.Write(w, nil)
}

// Write serializes the dump. The whole output is assembled in memory
// and flushed with a single write, so a failed serialization leaves w
// untouched. Run boundaries survive a round trip through the data
// itself: readers recover them from axis restarts, or split evenly
// when the axis never restarts.
func (f *File) Write(w io.Writer, opts *WriteOptions) (int64, error) {
	if opts == nil {
		opts = &WriteOptions{}
	}
	enc, err := f.targetEnc(opts)
	if err != nil {
		return 0, err
	}
	f.ensureAll()
	if err := f.validateColumns(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	text := f.headerText(enc)
	if enc.ascii {
		text += f.asciiData()
	}
	raw, err := encodeText(text, enc.utf16)
	if err != nil {
		return 0, err
	}
	buf.Write(raw)
	if !enc.ascii {
		f.binaryData(&buf, enc)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), errors.Wrap(err, "rawfile: write dump")
}

// WriteFile serializes the dump to a file on disk.
func (f *File) WriteFile(path string, opts *WriteOptions) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "rawfile: create file")
	}
	defer func() {
		err = multierr.Combine(err, file.Close())
	}()
	_, err = f.Write(file, opts)
	return err
}

// validateColumns checks that the decoded storage matches the header
// before any byte is emitted.
func (f *File) validateColumns() error {
	npoints := f.header.NumPoints
	for col, v := range f.header.Variables {
		var n int
		if f.enc.cplx {
			n = len(f.cplxCols[col])
		} else {
			n = len(f.realCols[col])
		}
		if n != npoints {
			return errors.Errorf("rawfile: column %s has %d points, header declares %d", v.Name, n, npoints)
		}
	}
	return nil
}

// headerText renders the declaration section including the data
// sentinel line. Representation flags are derived from what is
// actually being written, never copied from the source.
func (f *File) headerText(enc encParams) string {
	var b strings.Builder
	h := f.header

	b.WriteString("Title: " + h.Title + "\n")
	if h.Date != "" {
		b.WriteString("Date: " + h.Date + "\n")
	}
	b.WriteString("Plotname: " + h.PlotName + "\n")

	flags := h.Flags &^ (FlagComplex | FlagStepped | FlagDouble | FlagFastAccess | FlagCompressed)
	if enc.cplx {
		flags |= FlagComplex
	}
	if enc.allDouble && !enc.cplx {
		flags |= FlagDouble
	}
	if enc.fastAccess && !enc.ascii {
		flags |= FlagFastAccess
	}
	if len(f.steps) > 1 {
		flags |= FlagStepped
	}
	b.WriteString("Flags: " + flags.String() + "\n")

	b.WriteString("No. Variables: " + strconv.Itoa(len(h.Variables)) + "\n")
	b.WriteString("No. Points: " + strconv.Itoa(h.NumPoints) + "\n")
	b.WriteString("Offset: " + strconv.FormatFloat(h.Offset, 'e', -1, 64) + "\n")
	if h.Command != "" {
		b.WriteString("Command: " + h.Command + "\n")
	}
	for _, ba := range h.Backannotations {
		b.WriteString("Backannotation: " + ba + "\n")
	}
	for _, p := range h.Extra {
		b.WriteString(p.Key + ": " + p.Value + "\n")
	}

	if len(f.steps) > 1 {
		b.WriteString("No. Steps: " + strconv.Itoa(len(f.steps)) + "\n")
		if stepsHaveParams(f.steps) {
			b.WriteString("Steps:\n")
			for _, s := range f.steps {
				b.WriteString(formatStepLine(s.Params) + "\n")
			}
		}
	}

	b.WriteString("Variables:\n")
	for _, v := range h.Variables {
		b.WriteString("\t" + strconv.Itoa(v.Index) + "\t" + v.Name + "\t" + v.Tag + "\n")
	}
	if enc.ascii {
		b.WriteString("Values:\n")
	} else {
		b.WriteString("Binary:\n")
	}
	return b.String()
}

func stepsHaveParams(steps []Step) bool {
	for _, s := range steps {
		if len(s.Params) == 0 {
			return false
		}
	}
	return len(steps) > 0
}

// formatStepLine renders one sweep table entry with the parameters in
// name order.
func formatStepLine(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(".step")
	for _, name := range names {
		b.WriteString(" " + name + "=" + strconv.FormatFloat(params[name], 'g', -1, 64))
	}
	return b.String()
}

// asciiData renders the text data block, one line per point: the
// point index followed by one value per variable. Complex samples
// render as a "re,im" pair.
func (f *File) asciiData() string {
	var b strings.Builder
	nvars := len(f.header.Variables)
	for p := 0; p < f.header.NumPoints; p++ {
		b.WriteString(strconv.Itoa(p))
		for col := 0; col < nvars; col++ {
			b.WriteByte('\t')
			if f.enc.cplx {
				z := f.cplxCols[col][p]
				b.WriteString(strconv.FormatFloat(real(z), 'e', -1, 64))
				b.WriteByte(',')
				b.WriteString(strconv.FormatFloat(imag(z), 'e', -1, 64))
			} else {
				b.WriteString(strconv.FormatFloat(f.realCols[col][p], 'e', -1, 64))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// binaryData renders the binary data block in the requested layout,
// precision and byte order.
func (f *File) binaryData(buf *bytes.Buffer, enc encParams) {
	bo := enc.byteOrder()
	nvars := len(f.header.Variables)
	npoints := f.header.NumPoints
	var scratch [8]byte

	putReal := func(v float64, width int) {
		if width == 8 {
			bo.PutUint64(scratch[:8], math.Float64bits(v))
			buf.Write(scratch[:8])
		} else {
			bo.PutUint32(scratch[:4], math.Float32bits(float32(v)))
			buf.Write(scratch[:4])
		}
	}
	putComplex := func(z complex128) {
		bo.PutUint64(scratch[:8], math.Float64bits(real(z)))
		buf.Write(scratch[:8])
		bo.PutUint64(scratch[:8], math.Float64bits(imag(z)))
		buf.Write(scratch[:8])
	}

	if enc.fastAccess {
		for col := 0; col < nvars; col++ {
			if enc.cplx {
				for p := 0; p < npoints; p++ {
					putComplex(f.cplxCols[col][p])
				}
			} else {
				width := enc.colBytes(col)
				for p := 0; p < npoints; p++ {
					putReal(f.realCols[col][p], width)
				}
			}
		}
		return
	}

	for p := 0; p < npoints; p++ {
		for col := 0; col < nvars; col++ {
			if enc.cplx {
				putComplex(f.cplxCols[col][p])
			} else {
				putReal(f.realCols[col][p], enc.colBytes(col))
			}
		}
	}
}

// encodeText converts header or ASCII data text to its on-disk bytes.
func encodeText(s string, utf16 bool) ([]byte, error) {
	if !utf16 {
		return []byte(s), nil
	}
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "rawfile: encode header text")
	}
	return out, nil
}
