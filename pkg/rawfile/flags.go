package rawfile

import (
	"strings"
)

// Flags is the set of format markers from the "Flags:" header line
type Flags uint16

const (
	FlagComplex Flags = 1 << iota // complex data points (AC, noise)
	FlagForward
	FlagLog // logarithmic axis
	FlagStepped
	FlagDouble // every column stored as float64
	FlagFastAccess
	FlagCompressed
)

var flagWords = []struct {
	bit  Flags
	word string
}{
	{FlagComplex, "complex"},
	{FlagForward, "forward"},
	{FlagLog, "log"},
	{FlagStepped, "stepped"},
	{FlagDouble, "double"},
	{FlagFastAccess, "fastaccess"},
	{FlagCompressed, "compressed"},
}

// parseFlags parses the whitespace-separated flag words. "real" is the
// absence of "complex". Words the format does not define are returned
// for the caller to report.
func parseFlags(s string) (Flags, []string) {
	var f Flags
	var unknown []string
	for _, word := range strings.Fields(s) {
		w := strings.ToLower(word)
		if w == "real" {
			continue
		}
		matched := false
		for _, fw := range flagWords {
			if w == fw.word {
				f |= fw.bit
				matched = true
				break
			}
		}
		if !matched {
			unknown = append(unknown, word)
		}
	}
	return f, unknown
}

// Has reports whether all bits of mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// String renders the flag words in canonical header order, starting
// with "real" or "complex".
func (f Flags) String() string {
	words := make([]string, 0, 4)
	if f.Has(FlagComplex) {
		words = append(words, "complex")
	} else {
		words = append(words, "real")
	}
	for _, fw := range flagWords[1:] {
		if f.Has(fw.bit) {
			words = append(words, fw.word)
		}
	}
	return strings.Join(words, " ")
}
