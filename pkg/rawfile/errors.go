package rawfile

import (
	"fmt"
)

// MalformedHeaderError reports a structurally invalid dump header:
// missing mandatory keys, unparseable counts, or a missing data
// sentinel. Line is the 1-based header line number, 0 when the
// problem is not tied to a single line.
type MalformedHeaderError struct {
	Line   int
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("rawfile: malformed header at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("rawfile: malformed header: %s", e.Reason)
}

// DuplicateVariableError reports two variable declarations sharing a
// name. Names compare case-insensitively.
type DuplicateVariableError struct {
	Name          string
	First, Second int
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("rawfile: duplicate variable %q (indices %d and %d)", e.Name, e.First, e.Second)
}

// IndexGapError reports a variable declaration whose index does not
// match its position in the declaration list.
type IndexGapError struct {
	Want, Got int
}

func (e *IndexGapError) Error() string {
	return fmt.Sprintf("rawfile: variable entry %d declares index %d", e.Want, e.Got)
}

// TruncatedDataError reports a data block shorter than the header
// declares. Unit is "bytes" for binary payloads and "values" for
// ASCII ones.
type TruncatedDataError struct {
	Want, Got int64
	Unit      string
}

func (e *TruncatedDataError) Error() string {
	return fmt.Sprintf("rawfile: truncated data block: want %d %s, got %d", e.Want, e.Unit, e.Got)
}

// InconsistentStepError reports disagreement between the declared step
// count and the step structure found in the data.
type InconsistentStepError struct {
	Declared, Found int
}

func (e *InconsistentStepError) Error() string {
	return fmt.Sprintf("rawfile: inconsistent steps: %d declared, %d found in data", e.Declared, e.Found)
}

// UnknownVariableError reports a trace lookup that matched no declared
// variable. Name is empty for lookups by index.
type UnknownVariableError struct {
	Name  string
	Index int
}

func (e *UnknownVariableError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rawfile: unknown variable %q", e.Name)
	}
	return fmt.Sprintf("rawfile: variable index %d out of range", e.Index)
}

// StepOutOfRangeError reports a step index outside the step index of
// the file.
type StepOutOfRangeError struct {
	Step, Count int
}

func (e *StepOutOfRangeError) Error() string {
	return fmt.Sprintf("rawfile: step %d out of range (%d steps)", e.Step, e.Count)
}

// TypeMismatchError reports an accessor that does not apply to the
// numeric kind of a trace, such as asking a real trace for phases.
type TypeMismatchError struct {
	Name   string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("rawfile: trace %q: %s", e.Name, e.Reason)
}

// UnsupportedEncodingError reports a representation variant the
// implementation cannot produce, or an input variant it cannot decode.
type UnsupportedEncodingError struct {
	Variant string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("rawfile: unsupported encoding variant %q", e.Variant)
}
