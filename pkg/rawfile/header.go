package rawfile

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/stepdir"
)

// Param is one raw header entry that the format does not define.
type Param struct {
	Key   string
	Value string
}

// Header holds the declaration section of a waveform dump, everything
// before the Binary: or Values: sentinel.
type Header struct {
	Title           string
	Date            string
	PlotName        string
	Flags           Flags
	NumVariables    int
	NumPoints       int
	NumSteps        int     // declared step count, 0 when the key is absent
	Offset          float64 // axis offset, usually 0
	Command         string
	Backannotations []string
	Extra           []Param // unrecognized keys in file order

	Variables  []Variable
	StepParams []map[string]float64 // sweep values from the Steps: table, nil when absent
}

// Lookup returns the value of an unrecognized header key.
func (h *Header) Lookup(key string) (string, bool) {
	for _, p := range h.Extra {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// headerMeta carries parse results that are not part of the Header
// value itself.
type headerMeta struct {
	utf16      bool
	ascii      bool
	dataOffset int // byte offset of the payload behind the sentinel
	warnings   []string
}

// lineScanner walks the header region line by line, tracking the byte
// offset so the data block can be located exactly. LTspice writes
// UTF-16LE headers; everything else is plain ASCII or UTF-8.
type lineScanner struct {
	data  []byte
	pos   int
	line  int
	utf16 bool
}

func newLineScanner(data []byte) *lineScanner {
	s := &lineScanner{data: data}
	if len(data) >= 2 {
		if data[0] == 0xff && data[1] == 0xfe {
			s.utf16 = true
			s.pos = 2
		} else if data[0] != 0 && data[1] == 0 {
			s.utf16 = true
		}
	}
	return s
}

// next returns the next decoded line without its terminator. The
// second result is false at end of input.
func (s *lineScanner) next() (string, bool) {
	if s.pos >= len(s.data) {
		return "", false
	}
	s.line++

	if !s.utf16 {
		rest := s.data[s.pos:]
		idx := bytes.IndexByte(rest, '\n')
		var raw []byte
		if idx < 0 {
			raw = rest
			s.pos = len(s.data)
		} else {
			raw = rest[:idx]
			s.pos += idx + 1
		}
		raw = bytes.TrimSuffix(raw, []byte{'\r'})
		return string(raw), true
	}

	start := s.pos
	end := len(s.data)
	for i := s.pos; i+1 < len(s.data); i += 2 {
		if s.data[i] == '\n' && s.data[i+1] == 0 {
			end = i
			s.pos = i + 2
			break
		}
	}
	if end == len(s.data) {
		s.pos = len(s.data)
	}
	raw := s.data[start:end]
	raw = bytes.TrimSuffix(raw, []byte{'\r', 0})
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return string(raw), true
	}
	return string(out), true
}

// parseHeader consumes the header region of data and returns the
// parsed header plus the location and text encoding of the payload.
func parseHeader(data []byte) (*Header, headerMeta, error) {
	var meta headerMeta
	if len(data) == 0 {
		return nil, meta, &MalformedHeaderError{Reason: "empty input"}
	}

	h := &Header{}
	sc := newLineScanner(data)
	meta.utf16 = sc.utf16

	var seenTitle, seenFlags, seenVarCount, seenPoints, seenPlot bool

	for {
		line, ok := sc.next()
		if !ok {
			return nil, meta, &MalformedHeaderError{Reason: "missing Binary: or Values: sentinel"}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, meta, &MalformedHeaderError{Line: sc.line, Reason: "expected \"key: value\""}
		}
		k := strings.ToLower(strings.TrimSpace(key))
		v := strings.TrimSpace(value)

		switch k {
		case "title":
			h.Title = v
			seenTitle = true
		case "date":
			h.Date = v
		case "plotname":
			h.PlotName = v
			seenPlot = true
		case "flags":
			var unknown []string
			h.Flags, unknown = parseFlags(v)
			for _, w := range unknown {
				meta.warnings = append(meta.warnings, "unknown flag "+strconv.Quote(w))
			}
			seenFlags = true
		case "no. variables":
			n, err := parseCount(v)
			if err != nil {
				return nil, meta, &MalformedHeaderError{Line: sc.line, Reason: "bad variable count " + strconv.Quote(v)}
			}
			h.NumVariables = n
			seenVarCount = true
		case "no. points":
			n, err := parseCount(v)
			if err != nil {
				return nil, meta, &MalformedHeaderError{Line: sc.line, Reason: "bad point count " + strconv.Quote(v)}
			}
			h.NumPoints = n
			seenPoints = true
		case "no. steps":
			n, err := parseCount(v)
			if err != nil {
				return nil, meta, &MalformedHeaderError{Line: sc.line, Reason: "bad step count " + strconv.Quote(v)}
			}
			h.NumSteps = n
		case "offset":
			off, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, meta, &MalformedHeaderError{Line: sc.line, Reason: "bad offset " + strconv.Quote(v)}
			}
			h.Offset = off
		case "command":
			h.Command = v
		case "backannotation":
			h.Backannotations = append(h.Backannotations, v)
		case "steps":
			table, warns, err := parseStepTable(sc)
			if err != nil {
				return nil, meta, err
			}
			h.StepParams = table
			meta.warnings = append(meta.warnings, warns...)
		case "variables":
			if !seenVarCount {
				return nil, meta, &MalformedHeaderError{Line: sc.line, Reason: "variable table before No. Variables"}
			}
			vars, err := parseVariableTable(sc, h.NumVariables)
			if err != nil {
				return nil, meta, err
			}
			h.Variables = vars
		case "binary", "values":
			meta.ascii = k == "values"
			meta.dataOffset = sc.pos

			switch {
			case !seenTitle:
				return nil, meta, &MalformedHeaderError{Reason: "missing Title"}
			case !seenPlot:
				return nil, meta, &MalformedHeaderError{Reason: "missing Plotname"}
			case !seenFlags:
				return nil, meta, &MalformedHeaderError{Reason: "missing Flags"}
			case !seenVarCount:
				return nil, meta, &MalformedHeaderError{Reason: "missing No. Variables"}
			case !seenPoints:
				return nil, meta, &MalformedHeaderError{Reason: "missing No. Points"}
			case h.Variables == nil:
				return nil, meta, &MalformedHeaderError{Reason: "missing variable table"}
			}
			return h, meta, nil
		default:
			h.Extra = append(h.Extra, Param{Key: strings.TrimSpace(key), Value: v})
		}
	}
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

// parseVariableTable reads count declaration lines from the scanner.
func parseVariableTable(sc *lineScanner, count int) ([]Variable, error) {
	vars := make([]Variable, 0, count)
	for i := 0; i < count; i++ {
		line, ok := sc.next()
		if !ok {
			return nil, &MalformedHeaderError{Reason: "unexpected end of header in variable table"}
		}
		v, err := parseVariableLine(line, i)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	if err := checkVariableNames(vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// parseStepTable reads consecutive .step directive lines from the
// scanner, stopping before the first line that is not one.
func parseStepTable(sc *lineScanner) ([]map[string]float64, []string, error) {
	parser, err := stepdir.NewParser()
	if err != nil {
		return nil, nil, &MalformedHeaderError{Reason: "step directive grammar: " + err.Error()}
	}

	var table []map[string]float64
	var warns []string
	for {
		save := *sc
		line, ok := sc.next()
		if !ok {
			return nil, nil, &MalformedHeaderError{Reason: "unexpected end of header in step table"}
		}
		if !stepdir.IsDirective(line) {
			*sc = save
			return table, warns, nil
		}
		dir, err := parser.ParseLine(line)
		if err != nil {
			return nil, nil, &MalformedHeaderError{Line: sc.line, Reason: "bad step directive: " + err.Error()}
		}
		vals := dir.Values()
		for _, a := range dir.Assignments {
			if _, ok := a.Value(); !ok {
				warns = append(warns, "non-numeric step value "+a.Name+"="+a.Raw)
			}
		}
		table = append(table, vals)
	}
}
