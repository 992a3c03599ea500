package resolve

import (
	"fmt"
	"sort"

	"github.com/sells-group/boq-resolver/internal/model"
	"github.com/sells-group/boq-resolver/internal/units"
)

// massFamily groups kg and tonne records so they are compared per kg.
const massFamily = "mass"

// outlierTable holds sorted peer factors per category and unit family,
// computed once per batch over the full snapshot.
type outlierTable struct {
	ratio    float64
	minPeers int
	peers    map[string][]float64
}

func newOutlierTable(db []model.MaterialRecord, ratio float64, minPeers int) *outlierTable {
	t := &outlierTable{ratio: ratio, minPeers: minPeers, peers: make(map[string][]float64)}
	for _, rec := range db {
		key, ok := peerKey(rec.Category, rec.Unit)
		if !ok {
			continue
		}
		t.peers[key] = append(t.peers[key], perKg(rec.EFTotal, rec.Unit))
	}
	for _, f := range t.peers {
		sort.Float64s(f)
	}
	return t
}

// check returns a reason when factor (per unit) is more than ratio times the
// peer median for its category and unit family.
func (t *outlierTable) check(factor float64, category, unit string) (string, bool) {
	if t == nil || t.ratio <= 0 {
		return "", false
	}
	key, ok := peerKey(category, unit)
	if !ok {
		return "", false
	}
	peers := t.peers[key]
	if len(peers) < t.minPeers || len(peers) == 0 {
		return "", false
	}
	median := peers[len(peers)/2]
	if median <= 0 {
		return "", false
	}

	normalized := perKg(factor, unit)
	r := normalized / median
	if r <= t.ratio {
		return "", false
	}
	return fmt.Sprintf("Factor %.0f is %.1fx the category median (%.0f). Consider reviewing or selecting a lower-emission alternative.",
		normalized, r, median), true
}

func peerKey(category, unit string) (string, bool) {
	cat := units.FoldCase(category)
	if cat == "" {
		return "", false
	}
	if units.IsMass(unit) {
		return cat + "|" + massFamily, true
	}
	return cat + "|" + units.Normalize(unit), true
}

// perKg expresses a per-tonne factor per kg; other units pass through.
func perKg(factor float64, unit string) float64 {
	if units.Normalize(unit) == units.Tonne {
		return factor / 1000
	}
	return factor
}
