package convert

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boq-resolver/internal/units"
)

// Rule names the conversion that produced a Result.
type Rule string

const (
	RuleNone         Rule = ""
	RuleSteelFraming Rule = "steel_framing_length_to_mass"
	RuleMassRescale  Rule = "mass_rescale"
)

// Result is the outcome of a conversion attempt.
type Result struct {
	Quantity float64
	Unit     string
	Applied  bool
	Note     string
	Rule     Rule
}

// Converter converts BOQ quantities into the unit of a matched record.
type Converter struct {
	gauge      string
	kgPerMetre float64
}

// New returns a Converter that uses the given steel framing gauge. An empty
// gauge selects the conservative default.
func New(gauge string) (*Converter, error) {
	if gauge == "" {
		gauge = GaugeDefault
	}
	kg, ok := GaugeKgPerMetre[gauge]
	if !ok {
		return nil, eris.Errorf("convert: unknown steel gauge %q", gauge)
	}
	return &Converter{gauge: gauge, kgPerMetre: kg}, nil
}

// Default returns a Converter using the default gauge.
func Default() *Converter {
	c, _ := New(GaugeDefault)
	return c
}

// Gauge returns the configured steel framing gauge.
func (c *Converter) Gauge() string {
	return c.gauge
}

// Convert expresses quantity (in sourceUnit) in targetUnit when an
// enumerated rule allows it. Otherwise the quantity and unit are returned
// unchanged with a note asking for manual review.
func (c *Converter) Convert(quantity float64, sourceUnit, targetUnit, nameHint string) Result {
	src := units.Normalize(sourceUnit)
	dst := units.Normalize(targetUnit)

	if src == dst {
		return Result{Quantity: quantity, Unit: targetUnit}
	}

	var res Result
	switch c.rule(src, dst, nameHint) {
	case RuleSteelFraming:
		kg := quantity * c.kgPerMetre
		out := kg
		if dst == units.Tonne {
			out = kg / 1000
		}
		res = Result{
			Quantity: out,
			Unit:     targetUnit,
			Applied:  true,
			Rule:     RuleSteelFraming,
			Note:     fmt.Sprintf("Converted from %s linear metres using %s kg/m", formatNum(quantity), formatNum(c.kgPerMetre)),
		}
	case RuleMassRescale:
		if src == units.Kilogram {
			res = Result{
				Quantity: quantity / 1000,
				Unit:     targetUnit,
				Applied:  true,
				Rule:     RuleMassRescale,
				Note:     fmt.Sprintf("Converted from %s kg to tonnes", formatNum(quantity)),
			}
		} else {
			res = Result{
				Quantity: quantity * 1000,
				Unit:     targetUnit,
				Applied:  true,
				Rule:     RuleMassRescale,
				Note:     fmt.Sprintf("Converted from %s tonnes to kg", formatNum(quantity)),
			}
		}
	}

	if res.Applied {
		if !math.IsInf(res.Quantity, 0) && !math.IsNaN(res.Quantity) {
			return res
		}
		return Result{
			Quantity: quantity,
			Unit:     sourceUnit,
			Note:     fmt.Sprintf("Warning: Converting %g %s to %s is out of range - manual review recommended", quantity, sourceUnit, targetUnit),
		}
	}

	return Result{
		Quantity: quantity,
		Unit:     sourceUnit,
		Note:     fmt.Sprintf("Warning: Unit mismatch (BOQ: %s, Database: %s) - manual review recommended", sourceUnit, targetUnit),
	}
}

// CanConvert reports whether Convert would apply a rule for this pair. Units
// that are already the same are not a conversion.
func (c *Converter) CanConvert(sourceUnit, targetUnit, nameHint string) bool {
	src := units.Normalize(sourceUnit)
	dst := units.Normalize(targetUnit)
	if src == dst {
		return false
	}
	return c.rule(src, dst, nameHint) != RuleNone
}

// rule takes normalised units.
func (c *Converter) rule(src, dst, nameHint string) Rule {
	if units.IsLength(src) && units.IsMass(dst) && DetectHint(nameHint) == HintSteelFraming {
		return RuleSteelFraming
	}
	if units.IsMass(src) && units.IsMass(dst) {
		return RuleMassRescale
	}
	return RuleNone
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
