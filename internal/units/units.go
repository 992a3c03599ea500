// Package units canonicalises the unit spellings found in BOQ line items and
// material databases so that two units can be compared by string equality.
package units

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Canonical unit forms produced by Normalize.
const (
	Metre       = "m"
	SquareMetre = "m2"
	CubicMetre  = "m3"
	Kilogram    = "kg"
	Tonne       = "t"
	Litre       = "L"
)

type synonym struct {
	re   *regexp.Regexp
	repl string
}

// synonyms is applied in order after whitespace removal. The order matters:
// "squaremetres" must first collapse to "squarem" before the area rule fires.
var synonyms = []synonym{
	{regexp.MustCompile(`metres?`), Metre},
	{regexp.MustCompile(`meters?`), Metre},
	{regexp.MustCompile(`kilograms?`), Kilogram},
	{regexp.MustCompile(`tonnes?`), Tonne},
	{regexp.MustCompile(`litres?`), Litre},
	{regexp.MustCompile(`liters?`), Litre},
	{regexp.MustCompile(`squarem`), SquareMetre},
	{regexp.MustCompile(`cubicm`), CubicMetre},
	{regexp.MustCompile(`sqm`), SquareMetre},
	{regexp.MustCompile(`cum`), CubicMetre},
}

var lengthForms = map[string]bool{
	Metre:  true,
	"lm":   true,
	"linm": true,
	"lnm":  true,
}

var massForms = map[string]bool{
	Kilogram: true,
	Tonne:    true,
}

// Normalize returns the canonical form of a unit string. It never fails and
// has no notion of magnitude: it only decides comparability.
func Normalize(unit string) string {
	// NFKC folds superscripts, so "m²" and "m³" become "m2" and "m3".
	s := norm.NFKC.String(unit)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	for _, syn := range synonyms {
		s = syn.re.ReplaceAllString(s, syn.repl)
	}

	// A bare "l" was lower-cased above; keep it in the litre family.
	if s == "l" {
		return Litre
	}
	return s
}

// Same reports whether two units are comparable without conversion.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// IsLength reports whether the unit measures linear length in metres.
func IsLength(unit string) bool {
	return lengthForms[Normalize(unit)]
}

// IsMass reports whether the unit is kilograms or tonnes.
func IsMass(unit string) bool {
	return massForms[Normalize(unit)]
}

// FoldCase returns a case-folded copy of s for case-insensitive comparison
// of free text such as category names.
func FoldCase(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
