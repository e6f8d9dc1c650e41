package rawfile

import (
	"encoding/binary"
	"strings"
)

// Dialect selects the simulator family whose storage conventions the
// data block follows. It matters for binary real dumps: LTspice
// stores non-axis columns as float32 unless the double flag is set,
// while ngspice and Xyce always store float64.
type Dialect int

const (
	DialectAuto Dialect = iota // detect from the Command header line
	DialectLTspice
	DialectNgspice
	DialectXyce
)

var dialectNames = map[Dialect]string{
	DialectAuto:    "auto",
	DialectLTspice: "ltspice",
	DialectNgspice: "ngspice",
	DialectXyce:    "xyce",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return "auto"
}

// detectDialect resolves DialectAuto against the Command header line.
func detectDialect(d Dialect, command string) Dialect {
	if d != DialectAuto {
		return d
	}
	cmd := strings.ToLower(command)
	switch {
	case strings.Contains(cmd, "ngspice"):
		return DialectNgspice
	case strings.Contains(cmd, "xyce"):
		return DialectXyce
	default:
		return DialectLTspice
	}
}

// encParams captures everything the decoder and writer need to know
// about the byte-level representation of the data block.
type encParams struct {
	ascii      bool
	cplx       bool
	allDouble  bool // every real column 8 bytes wide
	fastAccess bool // transposed layout, one variable block after another
	compressed bool
	bigEndian  bool
	utf16      bool // header text encoding
}

func encFromHeader(h *Header, d Dialect, utf16, ascii bool, bo binary.ByteOrder) encParams {
	e := encParams{
		ascii:      ascii,
		cplx:       h.Flags.Has(FlagComplex),
		allDouble:  h.Flags.Has(FlagDouble),
		fastAccess: h.Flags.Has(FlagFastAccess),
		compressed: h.Flags.Has(FlagCompressed),
		bigEndian:  bo == binary.BigEndian,
		utf16:      utf16,
	}
	if detectDialect(d, h.Command) != DialectLTspice {
		e.allDouble = true
	}
	return e
}

func (e encParams) byteOrder() binary.ByteOrder {
	if e.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// colBytes returns the stored width of one sample of column col.
// Complex samples are a float64 pair. In real dumps the axis column
// is always float64; the rest are float32 unless widened.
func (e encParams) colBytes(col int) int {
	if e.cplx {
		return 16
	}
	if e.allDouble || col == 0 {
		return 8
	}
	return 4
}

// rowBytes returns the width of one point across all columns.
func (e encParams) rowBytes(nvars int) int {
	n := 0
	for col := 0; col < nvars; col++ {
		n += e.colBytes(col)
	}
	return n
}

// colOffset returns the byte offset of column col inside one row.
func (e encParams) colOffset(col int) int {
	n := 0
	for j := 0; j < col; j++ {
		n += e.colBytes(j)
	}
	return n
}

// blockBytes returns the total binary payload size.
func (e encParams) blockBytes(nvars, npoints int) int {
	return e.rowBytes(nvars) * npoints
}

// Encoding summarizes the stored representation of a dump.
type Encoding struct {
	ASCII           bool // text data block after a Values: sentinel
	Complex         bool
	DoublePrecision bool // every column float64
	FastAccess      bool // transposed, variable-major layout
	Compressed      bool
	BigEndian       bool
	UTF16Header     bool
}

func (e encParams) public() Encoding {
	return Encoding{
		ASCII:           e.ascii,
		Complex:         e.cplx,
		DoublePrecision: e.allDouble,
		FastAccess:      e.fastAccess,
		Compressed:      e.compressed,
		BigEndian:       e.bigEndian,
		UTF16Header:     e.utf16,
	}
}
