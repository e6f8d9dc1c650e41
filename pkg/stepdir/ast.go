package stepdir

import (
	"github.com/OpenTraceLab/OpenTraceWave/pkg/engval"
)

// Directive represents one parsed .step sweep line
// Example: .step param freq=1Meg vcc=3.3
type Directive struct {
	Param       bool          `StepKw @ParamKw?`
	Assignments []*Assignment `@@+`
}

// Assignment represents a single name=value pair in a directive
type Assignment struct {
	Name string `@( Ident | ParamKw )`
	Raw  string `Assign @( Number | Ident )`
}

// Value returns the numeric value of the assignment. The second result
// is false for non-numeric values such as model names.
func (a *Assignment) Value() (float64, bool) {
	v, err := engval.Parse(a.Raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Values returns all numeric assignments of the directive as a map.
// Non-numeric assignments are skipped.
func (d *Directive) Values() map[string]float64 {
	out := make(map[string]float64, len(d.Assignments))
	for _, a := range d.Assignments {
		if v, ok := a.Value(); ok {
			out[a.Name] = v
		}
	}
	return out
}

// Names returns the assignment names in directive order.
func (d *Directive) Names() []string {
	names := make([]string, len(d.Assignments))
	for i, a := range d.Assignments {
		names[i] = a.Name
	}
	return names
}
