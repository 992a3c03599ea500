package region

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/boq-resolver/internal/model"
)

func australia() Jurisdiction {
	j, _ := DefaultRegistry().Lookup("AU")
	return j
}

func rec(id, state, region string) model.MaterialRecord {
	return model.MaterialRecord{
		ID:     id,
		Unit:   "kg",
		State:  model.StringPtr(state),
		Region: model.StringPtr(region),
	}
}

func TestApplicable(t *testing.T) {
	t.Parallel()

	au := australia()
	tests := []struct {
		name string
		rec  model.MaterialRecord
		want bool
	}{
		{"state tag in set", rec("a", "NSW", ""), true},
		{"state tag lower case", rec("a", "vic", ""), true},
		{"state tag outside set", rec("a", "CA", ""), false},
		{"region contains name", rec("a", "", "South-East Australia"), true},
		{"region case-insensitive", rec("a", "", "AUSTRALIA"), true},
		{"region elsewhere", rec("a", "", "Europe"), false},
		{"no tags default include", rec("a", "", ""), true},
		{"blank tags default include", model.MaterialRecord{ID: "a", State: strPtr("  "), Region: strPtr("")}, true},
		{"foreign state with matching region", rec("a", "CA", "Australia"), true},
		{"foreign state and foreign region", rec("a", "CA", "USA"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Applicable(tt.rec, au))
		})
	}
}

func TestApplicable_GlobalSources(t *testing.T) {
	t.Parallel()

	j := australia()
	r := rec("a", "", "United Kingdom")
	r.DataSource = "ICE V4.1 - Circular Ecology"
	assert.False(t, Applicable(r, j))

	j.GlobalSources = []string{"ICE"}
	assert.True(t, Applicable(r, j))
}

func TestFilter_PreservesOrder(t *testing.T) {
	t.Parallel()

	db := []model.MaterialRecord{
		rec("1", "QLD", ""),
		rec("2", "CA", ""),
		rec("3", "", ""),
		rec("4", "", "Europe"),
		rec("5", "", "Australia"),
	}

	got := Filter(db, australia())
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"1", "3", "5"}, ids)
}

func TestFilter_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Filter(nil, australia()))
}

func strPtr(s string) *string { return &s }
