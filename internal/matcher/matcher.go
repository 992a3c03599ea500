// Package matcher resolves a BOQ candidate to a database record through three
// strictly ordered tiers: exact id, category + unit, keyword.
package matcher

import (
	"strings"

	"github.com/sells-group/boq-resolver/internal/model"
	"github.com/sells-group/boq-resolver/internal/units"
)

// Tier identifies which matching strategy produced a match.
type Tier string

const (
	TierExact    Tier = "exact"
	TierCategory Tier = "category"
	TierKeyword  Tier = "keyword"
)

// idLength is the length of a well-formed reference id (a UUID string).
const idLength = 36

// Converter reports whether a candidate unit can be converted into a record
// unit by an enumerated rule.
type Converter interface {
	CanConvert(sourceUnit, targetUnit, nameHint string) bool
}

// Match is the record selected by a tier.
type Match struct {
	Record  model.MaterialRecord
	Tier    Tier
	Keyword string
	// SameUnit is false when the record was selected through a unit
	// conversion rule rather than an equal unit.
	SameUnit bool
}

// Index is a read-only view of an applicable snapshot, built once per batch
// and shared by every candidate of that batch.
type Index struct {
	records    []model.MaterialRecord
	byID       map[string][]int
	byCategory map[string][]int
	byKeyword  [][]int
	scanner    *KeywordScanner
	conv       Converter
}

// NewIndex indexes db for matching with the default keyword list. conv may
// be nil, in which case only equal units are compatible.
func NewIndex(db []model.MaterialRecord, conv Converter) *Index {
	return NewIndexWithKeywords(db, conv, DefaultKeywords)
}

// NewIndexWithKeywords indexes db using a custom ordered keyword list.
func NewIndexWithKeywords(db []model.MaterialRecord, conv Converter, keywords []string) *Index {
	idx := &Index{
		records:    db,
		byID:       make(map[string][]int),
		byCategory: make(map[string][]int),
		scanner:    NewKeywordScanner(keywords),
		conv:       conv,
	}
	idx.byKeyword = make([][]int, len(idx.scanner.Keywords()))

	for i, rec := range db {
		idx.byID[rec.ID] = append(idx.byID[rec.ID], i)
		if cat := units.FoldCase(rec.Category); cat != "" {
			idx.byCategory[cat] = append(idx.byCategory[cat], i)
		}
		for k, ok := range idx.scanner.Scan(rec.Category, rec.Name) {
			if ok {
				idx.byKeyword[k] = append(idx.byKeyword[k], i)
			}
		}
	}
	return idx
}

// Len returns the number of indexed records.
func (x *Index) Len() int {
	return len(x.records)
}

// ValidID reports whether id is a well-formed reference id: fixed length and
// containing a separator.
func ValidID(id string) bool {
	return len(id) == idLength && strings.Contains(id, "-")
}

// Exact looks up a validated reference id.
func (x *Index) Exact(id string) (Match, bool) {
	if !ValidID(id) {
		return Match{}, false
	}
	best, ok := x.highest(x.byID[id])
	if !ok {
		return Match{}, false
	}
	return Match{Record: x.records[best], Tier: TierExact, SameUnit: true}, true
}

// Category finds the record with the candidate's category and a compatible
// unit, preferring equal units over convertible ones.
func (x *Index) Category(c model.Candidate) (Match, bool) {
	cat := units.FoldCase(c.Category)
	if cat == "" {
		return Match{}, false
	}
	best, same, ok := x.bestCompatible(x.byCategory[cat], c)
	if !ok {
		return Match{}, false
	}
	return Match{Record: x.records[best], Tier: TierCategory, SameUnit: same}, true
}

// Keyword tries each keyword present in the candidate's name or category in
// list order and returns the best compatible record of the first keyword
// that has one.
func (x *Index) Keyword(c model.Candidate) (Match, bool) {
	present := x.scanner.Scan(c.Name, c.Category)
	for k, ok := range present {
		if !ok {
			continue
		}
		best, same, found := x.bestCompatible(x.byKeyword[k], c)
		if found {
			return Match{
				Record:   x.records[best],
				Tier:     TierKeyword,
				Keyword:  x.scanner.Keywords()[k],
				SameUnit: same,
			}, true
		}
	}
	return Match{}, false
}

// bestCompatible picks among idxs the highest-factor record whose unit equals
// the candidate unit; only when none does, the highest-factor record whose
// unit is reachable by a conversion rule.
func (x *Index) bestCompatible(idxs []int, c model.Candidate) (int, bool, bool) {
	if len(idxs) == 0 {
		return 0, false, false
	}
	unit := units.Normalize(c.Unit)
	if unit == "" {
		return 0, false, false
	}

	var same, convertible []int
	for _, i := range idxs {
		recUnit := x.records[i].Unit
		switch {
		case units.Normalize(recUnit) == unit:
			same = append(same, i)
		case x.conv != nil && x.conv.CanConvert(c.Unit, recUnit, c.Name):
			convertible = append(convertible, i)
		}
	}

	if best, ok := x.highest(same); ok {
		return best, true, true
	}
	if best, ok := x.highest(convertible); ok {
		return best, false, true
	}
	return 0, false, false
}

// highest returns the index with the greatest emission factor. Equal factors
// break on the smaller record id, then on snapshot position, so the winner
// never depends on anything but the inputs.
func (x *Index) highest(idxs []int) (int, bool) {
	if len(idxs) == 0 {
		return 0, false
	}
	best := idxs[0]
	for _, i := range idxs[1:] {
		if x.better(i, best) {
			best = i
		}
	}
	return best, true
}

func (x *Index) better(i, j int) bool {
	a, b := x.records[i], x.records[j]
	if a.EFTotal != b.EFTotal {
		return a.EFTotal > b.EFTotal
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return i < j
}
