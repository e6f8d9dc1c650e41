package rawfile

import (
	"strconv"
	"strings"
)

// VarKind classifies a variable by its declared type tag
type VarKind int

const (
	KindOther VarKind = iota
	KindTime
	KindFrequency
	KindVoltage
	KindCurrent
	KindParameter
)

var kindNames = map[VarKind]string{
	KindOther:     "other",
	KindTime:      "time",
	KindFrequency: "frequency",
	KindVoltage:   "voltage",
	KindCurrent:   "current",
	KindParameter: "parameter",
}

func (k VarKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// Variable describes one column of the data block
type Variable struct {
	Index int     // position in the declaration table and in each data row
	Name  string  // as declared, e.g. "V(out)" or "I(R1)"
	Tag   string  // raw type tag, e.g. "voltage" or "device_current"
	Kind  VarKind // classification derived from Tag
}

// kindFromTag maps a declared type tag to a kind. Simulators disagree
// on exact tag spelling, so matching is loose.
func kindFromTag(tag string) VarKind {
	t := strings.ToLower(tag)
	switch {
	case t == "time":
		return KindTime
	case t == "frequency":
		return KindFrequency
	case strings.Contains(t, "voltage"):
		return KindVoltage
	case strings.Contains(t, "current"):
		return KindCurrent
	case strings.HasPrefix(t, "param"):
		return KindParameter
	default:
		return KindOther
	}
}

// parseVariableLine parses one declaration of the variable table.
// Lines have the form "\t0\ttime\ttime"; any whitespace separates the
// three fields.
func parseVariableLine(line string, position int) (Variable, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Variable{}, &MalformedHeaderError{Reason: "variable declaration needs index, name and type"}
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return Variable{}, &MalformedHeaderError{Reason: "variable index " + strconv.Quote(fields[0]) + " is not a number"}
	}
	if idx != position {
		return Variable{}, &IndexGapError{Want: position, Got: idx}
	}

	name := fields[1]
	tag := fields[2]
	return Variable{
		Index: idx,
		Name:  name,
		Tag:   tag,
		Kind:  kindFromTag(tag),
	}, nil
}

// checkVariableNames rejects case-insensitive duplicate names.
func checkVariableNames(vars []Variable) error {
	seen := make(map[string]int, len(vars))
	for _, v := range vars {
		key := strings.ToLower(v.Name)
		if first, dup := seen[key]; dup {
			return &DuplicateVariableError{Name: v.Name, First: first, Second: v.Index}
		}
		seen[key] = v.Index
	}
	return nil
}
