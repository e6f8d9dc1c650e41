// Package engval parses and formats numeric literals in SPICE
// engineering notation, including the polar complex literals that
// simulator logs use for AC measurement results.
package engval

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"
	"unicode"
)

// Multipliers recognized after a numeric literal. SPICE notation is
// case-insensitive: "m" is always milli, mega is spelled "meg".
var suffixes = map[byte]float64{
	't': 1e12,
	'g': 1e9,
	'k': 1e3,
	'm': 1e-3,
	'u': 1e-6,
	'n': 1e-9,
	'p': 1e-12,
	'f': 1e-15,
}

// Parse converts a SPICE numeric literal to a float64. The literal may
// carry an engineering suffix ("10k", "1Meg", "2.5u") and trailing unit
// letters, which are ignored ("100nF", "5V"). "mil" converts to meters.
func Parse(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, fmt.Errorf("engval: empty literal")
	}

	end := numericPrefix(t)
	if end == 0 {
		return 0, fmt.Errorf("engval: %q is not a number", s)
	}
	num, err := strconv.ParseFloat(t[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("engval: %q is not a number", s)
	}

	rest := t[end:]
	if rest == "" {
		return num, nil
	}
	for _, r := range rest {
		if !unicode.IsLetter(r) && r != '°' {
			return 0, fmt.Errorf("engval: trailing garbage in %q", s)
		}
	}

	lower := strings.ToLower(rest)
	switch {
	case strings.HasPrefix(lower, "meg"):
		num *= 1e6
	case strings.HasPrefix(lower, "mil"):
		num *= 25.4e-6
	case strings.HasPrefix(lower, "µ"):
		num *= 1e-6
	default:
		if mult, ok := suffixes[lower[0]]; ok {
			num *= mult
		}
	}
	return num, nil
}

// numericPrefix returns the length of the leading float literal in s:
// sign, digits, fraction, optional exponent.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

var scales = []struct {
	scale  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "G"},
	{1e6, "Meg"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
	{1e-15, "f"},
}

// Format renders v with an engineering suffix so the mantissa falls in
// [1, 1000). Values outside the suffix range fall back to plain %g.
func Format(v float64) string {
	abs := math.Abs(v)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) || abs >= 1e15 || abs < 1e-15 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	for _, s := range scales {
		if abs >= s.scale {
			if s.suffix == "" {
				break
			}
			mant := v / s.scale
			return strconv.FormatFloat(mant, 'g', -1, 64) + s.suffix
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseComplex converts a complex literal to a complex128. Two forms
// are recognized: the parenthesized polar form simulator logs emit,
// "(6.02dB,45°)", where the magnitude may be in dB and the phase in
// degrees (radians without the ° mark), and the bare cartesian pair
// "re,im" found in ASCII data blocks.
func ParseComplex(s string) (complex128, error) {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
		inner := t[1 : len(t)-1]
		magStr, phStr, ok := strings.Cut(inner, ",")
		if !ok {
			return 0, fmt.Errorf("engval: malformed complex literal %q", s)
		}
		db := false
		if strings.HasSuffix(magStr, "dB") {
			db = true
			magStr = strings.TrimSuffix(magStr, "dB")
		}
		deg := false
		if strings.HasSuffix(phStr, "°") {
			deg = true
			phStr = strings.TrimSuffix(phStr, "°")
		}
		mag, err := Parse(magStr)
		if err != nil {
			return 0, fmt.Errorf("engval: malformed complex magnitude %q", s)
		}
		ph, err := Parse(phStr)
		if err != nil {
			return 0, fmt.Errorf("engval: malformed complex phase %q", s)
		}
		if db {
			mag = math.Pow(10, mag/20)
		}
		if deg {
			ph = ph * math.Pi / 180
		}
		return cmplx.Rect(mag, ph), nil
	}

	reStr, imStr, ok := strings.Cut(t, ",")
	if !ok {
		return 0, fmt.Errorf("engval: %q is not a complex literal", s)
	}
	re, err := strconv.ParseFloat(strings.TrimSpace(reStr), 64)
	if err != nil {
		return 0, fmt.Errorf("engval: malformed complex real part %q", s)
	}
	im, err := strconv.ParseFloat(strings.TrimSpace(imStr), 64)
	if err != nil {
		return 0, fmt.Errorf("engval: malformed complex imaginary part %q", s)
	}
	return complex(re, im), nil
}

// FormatComplex renders c in the polar log form "(magdB,ph°)".
func FormatComplex(c complex128) string {
	mag := 20 * math.Log10(cmplx.Abs(c))
	ph := cmplx.Phase(c) * 180 / math.Pi
	return fmt.Sprintf("(%gdB,%g°)", mag, ph)
}
