package simlog

import (
	"math/cmplx"
	"strings"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/engval"
)

// ValueKind classifies a measurement result.
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueComplex
	ValueText
)

// Value is one measurement result from a log file. Simulators report
// plain numbers, polar complex values like "(6.02dB,45°)", and the
// occasional bare word such as a failure marker. Text always holds
// the token as it appeared in the log.
type Value struct {
	Kind    ValueKind
	Number  float64
	Complex complex128
	Text    string
}

// parseValue classifies one result token. Numbers may carry
// engineering suffixes; parenthesized tokens are complex literals.
func parseValue(tok string) Value {
	if strings.HasPrefix(tok, "(") {
		if c, err := engval.ParseComplex(tok); err == nil {
			return Value{Kind: ValueComplex, Complex: c, Text: tok}
		}
		return Value{Kind: ValueText, Text: tok}
	}
	if n, err := engval.Parse(tok); err == nil {
		return Value{Kind: ValueNumber, Number: n, Text: tok}
	}
	return Value{Kind: ValueText, Text: tok}
}

// Float returns the value as a real number. Complex values convert to
// their magnitude, text has no numeric form.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Number, true
	case ValueComplex:
		return cmplx.Abs(v.Complex), true
	default:
		return 0, false
	}
}

// Cmplx returns the value as a complex number, widening a plain
// number to a zero-phase complex.
func (v Value) Cmplx() (complex128, bool) {
	switch v.Kind {
	case ValueNumber:
		return complex(v.Number, 0), true
	case ValueComplex:
		return v.Complex, true
	default:
		return 0, false
	}
}

// String returns the token as read from the log.
func (v Value) String() string {
	return v.Text
}
