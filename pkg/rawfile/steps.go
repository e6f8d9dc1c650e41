package rawfile

// Step describes one simulation run inside a stepped dump
type Step struct {
	Index  int
	Start  int                // first point of the run
	End    int                // one past the last point
	Params map[string]float64 // sweep values for this run, empty when unknown
}

// Len returns the number of points in the step.
func (s Step) Len() int {
	return s.End - s.Start
}

// Param returns one sweep parameter of the step.
func (s Step) Param(name string) (float64, bool) {
	v, ok := s.Params[name]
	return v, ok
}

// axisStarts returns the point indices where a new run begins. A run
// begins at point 0 and wherever the axis value decreases; within a
// run the axis never decreases.
func axisStarts(axis []float64) []int {
	starts := []int{0}
	for k := 1; k < len(axis); k++ {
		if axis[k] < axis[k-1] {
			starts = append(starts, k)
		}
	}
	return starts
}

// buildSteps reconciles the declared step count and sweep table with
// the run boundaries actually present in the axis data. A declared
// count wins only when the axis is compatible with it: either the
// axis shows exactly that many runs, or it shows a single monotonic
// run that divides evenly into the declared count.
func buildSteps(axis []float64, npoints, declared int, table []map[string]float64) ([]Step, error) {
	if npoints == 0 {
		return []Step{{Params: paramsAt(table, 0)}}, nil
	}
	starts := axisStarts(axis)

	if declared > 0 && len(table) > 0 && len(table) != declared {
		return nil, &InconsistentStepError{Declared: declared, Found: len(table)}
	}
	if declared == 0 {
		declared = len(table)
	}

	if declared == 0 || len(starts) == declared {
		return stepsFromStarts(starts, npoints, table), nil
	}
	if len(starts) == 1 && npoints%declared == 0 {
		size := npoints / declared
		uniform := make([]int, declared)
		for i := range uniform {
			uniform[i] = i * size
		}
		return stepsFromStarts(uniform, npoints, table), nil
	}
	return nil, &InconsistentStepError{Declared: declared, Found: len(starts)}
}

func stepsFromStarts(starts []int, npoints int, table []map[string]float64) []Step {
	steps := make([]Step, len(starts))
	for i, start := range starts {
		end := npoints
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		steps[i] = Step{Index: i, Start: start, End: end, Params: paramsAt(table, i)}
	}
	return steps
}

func paramsAt(table []map[string]float64, i int) map[string]float64 {
	if i < len(table) && table[i] != nil {
		return table[i]
	}
	return map[string]float64{}
}
