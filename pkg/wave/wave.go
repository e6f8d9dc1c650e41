// Package wave provides numeric operations over waveform sample
// slices: summary statistics, trapezoidal integration over a
// non-uniform axis, and linear interpolation at axis positions.
// Complex helpers convert AC samples to magnitude and phase.
package wave

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, NaN for an empty slice.
func Mean(ys []float64) float64 {
	if len(ys) == 0 {
		return math.NaN()
	}
	return stat.Mean(ys, nil)
}

// RMS returns the root mean square, NaN for an empty slice.
func RMS(ys []float64) float64 {
	if len(ys) == 0 {
		return math.NaN()
	}
	return math.Sqrt(floats.Dot(ys, ys) / float64(len(ys)))
}

// Min returns the smallest sample, NaN for an empty slice.
func Min(ys []float64) float64 {
	if len(ys) == 0 {
		return math.NaN()
	}
	return floats.Min(ys)
}

// Max returns the largest sample, NaN for an empty slice.
func Max(ys []float64) float64 {
	if len(ys) == 0 {
		return math.NaN()
	}
	return floats.Max(ys)
}

// PeakToPeak returns Max minus Min, NaN for an empty slice.
func PeakToPeak(ys []float64) float64 {
	if len(ys) == 0 {
		return math.NaN()
	}
	return floats.Max(ys) - floats.Min(ys)
}

// Integral returns the trapezoidal integral of ys over axis. The axis
// must be non-decreasing, as simulation axes are within a run.
func Integral(axis, ys []float64) float64 {
	if len(axis) < 2 || len(axis) != len(ys) {
		return 0
	}
	return integrate.Trapezoidal(axis, ys)
}

// SampleAt linearly interpolates ys at axis position x. Positions
// outside the axis clamp to the first or last sample. The axis must
// be non-decreasing.
func SampleAt(axis, ys []float64, x float64) float64 {
	i, t, ok := locate(axis, x)
	if !ok {
		return math.NaN()
	}
	if t == 0 {
		return ys[i]
	}
	return ys[i] + t*(ys[i+1]-ys[i])
}

// SampleAtComplex linearly interpolates a complex waveform at axis
// position x, interpolating real and imaginary parts independently.
func SampleAtComplex(axis []float64, ys []complex128, x float64) complex128 {
	i, t, ok := locate(axis, x)
	if !ok {
		return complex(math.NaN(), math.NaN())
	}
	if t == 0 {
		return ys[i]
	}
	re := real(ys[i]) + t*(real(ys[i+1])-real(ys[i]))
	im := imag(ys[i]) + t*(imag(ys[i+1])-imag(ys[i]))
	return complex(re, im)
}

// locate finds the interpolation cell for x: an index i and a
// fraction t in [0,1] between axis[i] and axis[i+1]. t is 0 when x
// lands on a sample or clamps to an end.
func locate(axis []float64, x float64) (int, float64, bool) {
	n := len(axis)
	if n == 0 {
		return 0, 0, false
	}
	if x <= axis[0] {
		return 0, 0, true
	}
	if x >= axis[n-1] {
		return n - 1, 0, true
	}
	j := sort.SearchFloat64s(axis, x)
	if axis[j] == x {
		return j, 0, true
	}
	i := j - 1
	return i, (x - axis[i]) / (axis[j] - axis[i]), true
}

// MagnitudeDB returns 20*log10(|z|).
func MagnitudeDB(z complex128) float64 {
	return 20 * math.Log10(cmplx.Abs(z))
}

// PhaseDeg returns the phase of z in degrees.
func PhaseDeg(z complex128) float64 {
	return cmplx.Phase(z) * 180 / math.Pi
}

// Magnitudes returns |z| per sample.
func Magnitudes(zs []complex128) []float64 {
	out := make([]float64, len(zs))
	for i, z := range zs {
		out[i] = cmplx.Abs(z)
	}
	return out
}

// PhasesDeg returns the phase per sample, in degrees.
func PhasesDeg(zs []complex128) []float64 {
	out := make([]float64, len(zs))
	for i, z := range zs {
		out[i] = PhaseDeg(z)
	}
	return out
}
