// Package convert applies the small set of named unit conversions that are
// safe for BOQ quantities. Anything outside the table is reported, never
// guessed.
package convert

import "strings"

// Steel framing gauges, lightest to heaviest.
const (
	GaugeLight   = "light-gauge"
	GaugeMedium  = "medium-gauge"
	GaugeHeavy   = "heavy-gauge"
	GaugeDefault = "default"
)

// GaugeKgPerMetre is the mass per linear metre of steel framing by gauge.
var GaugeKgPerMetre = map[string]float64{
	GaugeLight:   2.0, // C35, 0.55-0.75mm BMT furring channel
	GaugeMedium:  3.5, // C50/C75, 0.95-1.15mm BMT wall studs
	GaugeHeavy:   5.0, // C100+, 1.50mm+ BMT structural studs
	GaugeDefault: 2.5, // unknown gauge
}

// Material type hints detected from item names.
const (
	HintSteelFraming = "steel-framing"
	HintConcrete     = "concrete"
	HintTimber       = "timber"
	HintPlasterboard = "plasterboard"
	HintInsulation   = "insulation"
	HintGlass        = "glass"
	HintAluminium    = "aluminium"
)

// MaterialHint maps name keywords to a material type hint.
type MaterialHint struct {
	Hint     string
	Keywords []string
}

// MaterialHints is scanned in order; the first hint with a keyword present
// in the name wins.
var MaterialHints = []MaterialHint{
	{HintSteelFraming, []string{"steel", "rondo", "stud", "furring"}},
	{HintConcrete, []string{"concrete"}},
	{HintTimber, []string{"timber", "wood"}},
	{HintPlasterboard, []string{"plasterboard", "gyprock"}},
	{HintInsulation, []string{"insulation"}},
	{HintGlass, []string{"glass"}},
	{HintAluminium, []string{"aluminium", "aluminum"}},
}

// DetectHint returns the material type hint for name, or "" when none of
// the table keywords appear.
func DetectHint(name string) string {
	lower := strings.ToLower(name)
	for _, h := range MaterialHints {
		for _, kw := range h.Keywords {
			if strings.Contains(lower, kw) {
				return h.Hint
			}
		}
	}
	return ""
}
