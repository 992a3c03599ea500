package resolve

import (
	"regexp"
	"strings"

	"github.com/sells-group/boq-resolver/internal/units"
)

// lightGaugeExemption matches framing members whose length-to-mass
// conversion is covered by the steel framing gauge table.
var lightGaugeExemption = regexp.MustCompile(`stud|track|furring|light gauge|ceiling`)

// StructuralSteelReason is the review reason attached to structural steel
// specified only by length.
const StructuralSteelReason = "Structural steel in linear metres requires mass specification in tonnes - " +
	"cannot estimate from linear metres alone. Please specify total tonnage or consult structural drawings."

// IsHighRiskSteelInLength reports whether a line item is structural steel
// measured in linear metres. Cross-sections of structural members vary too
// widely for a per-metre mass constant, so such items go to manual review.
func IsHighRiskSteelInLength(name, unit string) bool {
	if !units.IsLength(unit) {
		return false
	}
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "steel") {
		return false
	}
	return !lightGaugeExemption.MatchString(lower)
}
