package rawfile

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/engval"
)

// decodeRealColumn extracts one real column from a binary payload.
// The payload size must already be validated against the header.
func decodeRealColumn(payload []byte, e encParams, nvars, npoints, col int) []float64 {
	out := make([]float64, npoints)
	bo := e.byteOrder()
	width := e.colBytes(col)

	var base, stride int
	if e.fastAccess {
		for j := 0; j < col; j++ {
			base += e.colBytes(j) * npoints
		}
		stride = width
	} else {
		base = e.colOffset(col)
		stride = e.rowBytes(nvars)
	}

	if width == 8 {
		for p := 0; p < npoints; p++ {
			out[p] = math.Float64frombits(bo.Uint64(payload[base+p*stride:]))
		}
	} else {
		for p := 0; p < npoints; p++ {
			out[p] = float64(math.Float32frombits(bo.Uint32(payload[base+p*stride:])))
		}
	}
	return out
}

// decodeComplexColumn extracts one complex column. Complex samples are
// always a (real, imaginary) float64 pair regardless of flags.
func decodeComplexColumn(payload []byte, e encParams, nvars, npoints, col int) []complex128 {
	out := make([]complex128, npoints)
	bo := e.byteOrder()

	var base, stride int
	if e.fastAccess {
		base = 16 * col * npoints
		stride = 16
	} else {
		base = 16 * col
		stride = 16 * nvars
	}

	for p := 0; p < npoints; p++ {
		off := base + p*stride
		re := math.Float64frombits(bo.Uint64(payload[off:]))
		im := math.Float64frombits(bo.Uint64(payload[off+8:]))
		out[p] = complex(re, im)
	}
	return out
}

// decodeASCII parses the text data block behind a Values: sentinel.
// Each point is an index token followed by one value token per
// variable; complex values are a single "re,im" token. Layout of the
// tokens across lines does not matter.
func decodeASCII(body string, e encParams, nvars, npoints int, log *zap.SugaredLogger) ([][]float64, [][]complex128, error) {
	fields := strings.Fields(body)
	perPoint := 1 + nvars
	want := npoints * perPoint

	if len(fields) < want {
		return nil, nil, &TruncatedDataError{Want: int64(want), Got: int64(len(fields)), Unit: "values"}
	}
	if len(fields) > want {
		log.Warnf("ignoring %d trailing values after data block", len(fields)-want)
		fields = fields[:want]
	}

	if e.cplx {
		cols := make([][]complex128, nvars)
		for i := range cols {
			cols[i] = make([]complex128, npoints)
		}
		for p := 0; p < npoints; p++ {
			row := fields[p*perPoint : (p+1)*perPoint]
			if _, err := strconv.ParseFloat(row[0], 64); err != nil {
				return nil, nil, badToken(row[0], p, want)
			}
			for v := 0; v < nvars; v++ {
				c, err := engval.ParseComplex(row[1+v])
				if err != nil {
					return nil, nil, badToken(row[1+v], p, want)
				}
				cols[v][p] = c
			}
		}
		return nil, cols, nil
	}

	cols := make([][]float64, nvars)
	for i := range cols {
		cols[i] = make([]float64, npoints)
	}
	for p := 0; p < npoints; p++ {
		row := fields[p*perPoint : (p+1)*perPoint]
		if _, err := strconv.ParseFloat(row[0], 64); err != nil {
			return nil, nil, badToken(row[0], p, want)
		}
		for v := 0; v < nvars; v++ {
			x, err := strconv.ParseFloat(row[1+v], 64)
			if err != nil {
				return nil, nil, badToken(row[1+v], p, want)
			}
			cols[v][p] = x
		}
	}
	return cols, nil, nil
}

// badToken reports an unparseable value token. The usable data ends
// there, so the error carries the truncation type.
func badToken(tok string, point, want int) error {
	return errors.Wrapf(
		&TruncatedDataError{Want: int64(want), Got: int64(point), Unit: "values"},
		"bad value %q at point %d", tok, point)
}
