package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, GaugeDefault, c.Gauge())

	c, err = New(GaugeHeavy)
	require.NoError(t, err)
	assert.Equal(t, GaugeHeavy, c.Gauge())

	_, err = New("paper-thin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown steel gauge")
}

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		qty         float64
		src, dst    string
		hint        string
		wantQty     float64
		wantUnit    string
		wantApplied bool
		wantRule    Rule
		wantNote    string
	}{
		{
			name: "same unit is a no-op",
			qty:  12, src: "m²", dst: "sqm", hint: "plasterboard",
			wantQty: 12, wantUnit: "sqm",
		},
		{
			name: "steel stud metres to kg",
			qty:  100, src: "m", dst: "kg", hint: "Steel Stud 64mm",
			wantQty: 250, wantUnit: "kg", wantApplied: true, wantRule: RuleSteelFraming,
			wantNote: "Converted from 100 linear metres using 2.5 kg/m",
		},
		{
			name: "furring channel metres to tonnes",
			qty:  400, src: "metres", dst: "Tonnes", hint: "Rondo furring channel",
			wantQty: 1, wantUnit: "Tonnes", wantApplied: true, wantRule: RuleSteelFraming,
		},
		{
			name: "kg to tonne",
			qty:  2500, src: "kg", dst: "t", hint: "Reinforcing bar",
			wantQty: 2.5, wantUnit: "t", wantApplied: true, wantRule: RuleMassRescale,
			wantNote: "Converted from 2500 kg to tonnes",
		},
		{
			name: "tonne to kg",
			qty:  1.5, src: "tonnes", dst: "kg", hint: "",
			wantQty: 1500, wantUnit: "kg", wantApplied: true, wantRule: RuleMassRescale,
			wantNote: "Converted from 1.5 tonnes to kg",
		},
		{
			name: "timber metres to kg is not a rule",
			qty:  10, src: "m", dst: "kg", hint: "Timber batten",
			wantQty: 10, wantUnit: "m",
			wantNote: "Warning: Unit mismatch (BOQ: m, Database: kg) - manual review recommended",
		},
		{
			name: "area to volume is not a rule",
			qty:  30, src: "m2", dst: "m3", hint: "Concrete slab",
			wantQty: 30, wantUnit: "m2",
		},
		{
			name: "kg to steel metres is not reversed",
			qty:  30, src: "kg", dst: "m", hint: "Steel stud",
			wantQty: 30, wantUnit: "kg",
		},
		{
			name: "zero quantity still converts",
			qty:  0, src: "kg", dst: "t",
			wantQty: 0, wantUnit: "t", wantApplied: true, wantRule: RuleMassRescale,
		},
	}

	c := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Convert(tt.qty, tt.src, tt.dst, tt.hint)
			assert.InDelta(t, tt.wantQty, got.Quantity, 1e-9)
			assert.Equal(t, tt.wantUnit, got.Unit)
			assert.Equal(t, tt.wantApplied, got.Applied)
			assert.Equal(t, tt.wantRule, got.Rule)
			if tt.wantNote != "" {
				assert.Equal(t, tt.wantNote, got.Note)
			}
			if !tt.wantApplied && tt.src != tt.dst && got.Unit == tt.src {
				assert.Contains(t, got.Note, "manual review")
			}
		})
	}
}

func TestConvert_GaugeSelection(t *testing.T) {
	t.Parallel()

	for gauge, kg := range GaugeKgPerMetre {
		c, err := New(gauge)
		require.NoError(t, err)
		got := c.Convert(10, "m", "kg", "steel track")
		assert.True(t, got.Applied, gauge)
		assert.InDelta(t, 10*kg, got.Quantity, 1e-9, gauge)
	}
}

func TestConvert_NoSilentCoercion(t *testing.T) {
	t.Parallel()

	c := Default()
	pairs := [][2]string{
		{"m", "m2"}, {"m2", "kg"}, {"m3", "t"}, {"L", "m3"}, {"each", "kg"}, {"", "kg"}, {"mm", "m"},
	}
	for _, p := range pairs {
		got := c.Convert(7, p[0], p[1], "steel")
		assert.False(t, got.Applied, p)
		assert.Equal(t, 7.0, got.Quantity, p)
		assert.Equal(t, p[0], got.Unit, p)
		assert.False(t, c.CanConvert(p[0], p[1], "steel"), p)
	}
}

func TestConvert_OutOfRange(t *testing.T) {
	t.Parallel()

	c := Default()
	tests := []struct {
		name     string
		qty      float64
		src, dst string
		hint     string
	}{
		{name: "steel framing overflow", qty: 1e308, src: "m", dst: "kg", hint: "Steel stud 64mm"},
		{name: "tonnes to kg overflow", qty: math.MaxFloat64, src: "t", dst: "kg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Convert(tt.qty, tt.src, tt.dst, tt.hint)
			assert.False(t, got.Applied)
			assert.Equal(t, tt.qty, got.Quantity)
			assert.Equal(t, tt.src, got.Unit)
			assert.Equal(t, RuleNone, got.Rule)
			assert.Contains(t, got.Note, "out of range")
			assert.False(t, math.IsInf(got.Quantity, 0))
		})
	}
}

func TestCanConvert(t *testing.T) {
	t.Parallel()

	c := Default()
	assert.True(t, c.CanConvert("kg", "t", ""))
	assert.True(t, c.CanConvert("Tonnes", "kg", ""))
	assert.True(t, c.CanConvert("m", "kg", "steel stud"))
	assert.False(t, c.CanConvert("m", "kg", "timber"))
	assert.False(t, c.CanConvert("kg", "kg", ""))
}

func TestDetectHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"Steel Stud 64mm", HintSteelFraming},
		{"Rondo 129 furring channel", HintSteelFraming},
		{"Ready mix concrete", HintConcrete},
		{"Hardwood decking", HintTimber},
		{"Gyprock 13mm", HintPlasterboard},
		{"Glasswool insulation batts", HintInsulation},
		{"Double glazed glass unit", HintGlass},
		{"Aluminum frame", HintAluminium},
		{"Xyzzium panel", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectHint(tt.name))
		})
	}
}
