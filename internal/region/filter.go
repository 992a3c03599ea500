package region

import (
	"strings"

	"github.com/sells-group/boq-resolver/internal/model"
)

// Applicable reports whether rec may be used for matching in j. A record is
// applicable when its state tag is one of j's states, when its region tag
// mentions j's region name, or when it carries neither tag.
func Applicable(rec model.MaterialRecord, j Jurisdiction) bool {
	if fromGlobalSource(rec, j) {
		return true
	}

	state := rec.StateTag()
	regionTag := rec.RegionTag()

	if state != "" && j.hasState(state) {
		return true
	}
	if regionTag != "" && j.RegionName != "" &&
		strings.Contains(strings.ToLower(regionTag), strings.ToLower(j.RegionName)) {
		return true
	}
	return state == "" && regionTag == ""
}

// Filter returns the records applicable to j, preserving input order.
func Filter(db []model.MaterialRecord, j Jurisdiction) []model.MaterialRecord {
	out := make([]model.MaterialRecord, 0, len(db))
	for _, rec := range db {
		if Applicable(rec, j) {
			out = append(out, rec)
		}
	}
	return out
}

func fromGlobalSource(rec model.MaterialRecord, j Jurisdiction) bool {
	if len(j.GlobalSources) == 0 || rec.DataSource == "" {
		return false
	}
	src := strings.ToLower(rec.DataSource)
	for _, g := range j.GlobalSources {
		if g != "" && strings.Contains(src, strings.ToLower(g)) {
			return true
		}
	}
	return false
}
