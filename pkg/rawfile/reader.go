package rawfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
)

// ReadOptions adjusts how a dump is read. The zero value decodes
// eagerly, assumes little-endian data, and detects the simulator
// dialect from the Command header line.
type ReadOptions struct {
	// Logger receives diagnostic messages about tolerated oddities.
	// Nil discards them.
	Logger *zap.SugaredLogger

	// Lazy defers decoding of non-axis columns until a trace is first
	// accessed. ASCII dumps always decode eagerly.
	Lazy bool

	// ByteOrder of binary samples. Nil means little endian.
	ByteOrder binary.ByteOrder

	// Dialect overrides simulator detection from the Command line.
	Dialect Dialect

	// StepParams attaches sweep parameters to the steps, for example
	// from a companion log file. When set it replaces the header's
	// own sweep table and may define the step count for dumps whose
	// axis shows no run boundaries.
	StepParams []map[string]float64
}

// Read parses a complete waveform dump from r.
func Read(r io.Reader, opts *ReadOptions) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "rawfile: read input")
	}
	return parse(data, opts)
}

// ReadFile parses a waveform dump from a file on disk.
func ReadFile(path string, opts *ReadOptions) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "rawfile: read file")
	}
	return parse(data, opts)
}

func parse(data []byte, opts *ReadOptions) (*File, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	h, meta, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	for _, w := range meta.warnings {
		log.Warnf("header: %s", w)
	}
	for _, p := range h.Extra {
		log.Debugf("header: keeping unrecognized key %q", p.Key)
	}

	bo := opts.ByteOrder
	if bo == nil {
		bo = binary.LittleEndian
	}
	enc := encFromHeader(h, opts.Dialect, meta.utf16, meta.ascii, bo)

	nvars := h.NumVariables
	npoints := h.NumPoints
	f := newFile(*h, enc, log)
	payload := data[meta.dataOffset:]

	if enc.ascii {
		body, err := asciiBody(payload, meta.utf16)
		if err != nil {
			return nil, err
		}
		re, cx, err := decodeASCII(body, enc, nvars, npoints, log)
		if err != nil {
			return nil, err
		}
		if enc.cplx {
			f.cplxCols = cx
		} else {
			f.realCols = re
		}
		for i := range f.decoded {
			f.decoded[i] = true
		}
	} else {
		if enc.compressed {
			payload, err = decompress(payload)
			if err != nil {
				return nil, err
			}
		}
		want := enc.blockBytes(nvars, npoints)
		if len(payload) < want {
			return nil, &TruncatedDataError{Want: int64(want), Got: int64(len(payload)), Unit: "bytes"}
		}
		if len(payload) > want {
			log.Warnf("ignoring %d trailing bytes after data block", len(payload)-want)
			payload = payload[:want]
		}
		f.payload = payload
		if opts.Lazy && nvars > 0 {
			f.mustColumn(0) // the step index needs the axis
		} else {
			for col := 0; col < nvars; col++ {
				f.mustColumn(col)
			}
			f.payload = nil
		}
	}

	if nvars > 0 {
		if enc.cplx {
			c := f.cplxCols[0]
			axis := make([]float64, len(c))
			for i, z := range c {
				axis[i] = real(z)
			}
			f.axis = axis
		} else {
			f.axis = f.realCols[0]
		}
	}

	table := h.StepParams
	if opts.StepParams != nil {
		if h.StepParams != nil && len(h.StepParams) != len(opts.StepParams) {
			log.Warnf("replacing %d-step header sweep table with %d external entries",
				len(h.StepParams), len(opts.StepParams))
		}
		table = opts.StepParams
	}
	steps, err := buildSteps(f.axis, npoints, h.NumSteps, table)
	if err != nil {
		return nil, err
	}
	if len(table) > 0 && len(table) != len(steps) {
		log.Warnf("sweep table lists %d steps, dump has %d", len(table), len(steps))
	}
	f.steps = steps

	log.Debugf("loaded %q: %d variables, %d points, %d steps",
		h.PlotName, nvars, npoints, len(steps))
	return f, nil
}

// asciiBody decodes the text payload of a Values: dump. LTspice
// writes the whole file, data included, in the header's encoding.
func asciiBody(payload []byte, utf16 bool) (string, error) {
	if !utf16 {
		return string(payload), nil
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(payload)
	if err != nil {
		return "", errors.Wrap(err, "rawfile: decode text data block")
	}
	return string(out), nil
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// decompress expands a compressed data block. Only zstd framing is
// understood; a compressed flag over anything else is a variant this
// reader does not support.
func decompress(payload []byte) ([]byte, error) {
	if !bytes.HasPrefix(payload, zstdMagic) {
		return nil, &UnsupportedEncodingError{Variant: "compressed"}
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "rawfile: init decompressor")
	}
	defer dec.Close()
	out, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, errors.Wrap(err, "rawfile: decompress data block")
	}
	return out, nil
}
