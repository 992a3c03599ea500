package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// MaterialRecord is one verified entry of the materials / emission-factor
// database. Records are supplied as a read-only snapshot and never mutated.
type MaterialRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"material_name"`
	Category     string  `json:"material_category"`
	Subcategory  *string `json:"subcategory,omitempty"`
	Unit         string  `json:"unit"`
	EFTotal      float64 `json:"ef_total"`
	DataSource   string  `json:"data_source"`
	EPDNumber    *string `json:"epd_number,omitempty"`
	Manufacturer *string `json:"manufacturer,omitempty"`
	State        *string `json:"state,omitempty"`
	Region       *string `json:"region,omitempty"`
}

// Validate checks the mandatory fields of a snapshot record.
func (m MaterialRecord) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return eris.New("material: missing id")
	}
	if strings.TrimSpace(m.Unit) == "" {
		return eris.Errorf("material %s: missing unit", m.ID)
	}
	if math.IsNaN(m.EFTotal) || math.IsInf(m.EFTotal, 0) {
		return eris.Errorf("material %s: emission factor is not finite", m.ID)
	}
	if m.EFTotal < 0 {
		return eris.Errorf("material %s: negative emission factor %v", m.ID, m.EFTotal)
	}
	return nil
}

// ErrInvalidSnapshot marks a materials snapshot that cannot be used for
// resolution. It is an integration error, not a per-candidate outcome.
var ErrInvalidSnapshot = eris.New("invalid materials snapshot")

// maxReportedInvalid bounds how many record errors are quoted in the message.
const maxReportedInvalid = 5

// ValidateSnapshot checks every record of a snapshot and reports all
// invalid ones in a single error wrapping ErrInvalidSnapshot.
func ValidateSnapshot(db []MaterialRecord) error {
	var msgs []string
	invalid := 0
	for i, rec := range db {
		if err := rec.Validate(); err != nil {
			invalid++
			if len(msgs) < maxReportedInvalid {
				msgs = append(msgs, fmt.Sprintf("record %d: %s", i, err.Error()))
			}
		}
	}
	if invalid == 0 {
		return nil
	}
	return eris.Wrapf(ErrInvalidSnapshot, "%d invalid records (%s)", invalid, strings.Join(msgs, "; "))
}

// StateTag returns the trimmed state tag, or "" when absent.
func (m MaterialRecord) StateTag() string {
	return deref(m.State)
}

// RegionTag returns the trimmed region tag, or "" when absent.
func (m MaterialRecord) RegionTag() string {
	return deref(m.Region)
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
