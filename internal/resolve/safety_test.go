package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHighRiskSteelInLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item string
		unit string
		want bool
	}{
		{"universal beam in metres", "Structural Steel Universal Beam", "m", true},
		{"column in lm", "Steel column 310UC", "lm", true},
		{"spelled metres", "Steel channel", "metres", true},
		{"stud exempt", "Steel Stud 64mm", "m", false},
		{"track exempt", "Steel track 64mm", "m", false},
		{"furring exempt", "Steel furring channel", "m", false},
		{"light gauge exempt", "Light gauge steel section", "m", false},
		{"ceiling exempt", "Steel ceiling batten", "m", false},
		{"tonnes fine", "Structural Steel Universal Beam", "t", false},
		{"kg fine", "Structural steel", "kg", false},
		{"not steel", "Timber beam", "m", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsHighRiskSteelInLength(tt.item, tt.unit))
		})
	}
}
