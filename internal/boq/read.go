// Package boq reads extracted bill-of-quantities line items and writes
// resolved materials back out as CSV, XLSX or JSON.
package boq

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boq-resolver/internal/fetcher"
	"github.com/sells-group/boq-resolver/internal/model"
)

// Column aliases accepted in tabular BOQ files, in lookup order.
var (
	colName     = []string{"name", "material_name", "description", "item"}
	colCategory = []string{"category", "material_category"}
	colUnit     = []string{"unit", "uom"}
	colQuantity = []string{"quantity", "qty"}
	colTypeID   = []string{"type_id", "typeid", "material_id"}
)

// ReadCandidates reads line items from a CSV, XLSX or JSON file. Line items
// are untrusted: a quantity that does not parse becomes 0 and missing
// columns become empty fields.
func ReadCandidates(ctx context.Context, path string) ([]model.Candidate, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "boq: open csv")
		}
		defer f.Close() //nolint:errcheck

		rows, err := fetcher.Drain(fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{LazyQuotes: true}))
		if err != nil {
			return nil, eris.Wrap(err, "boq: read csv")
		}
		return FromRows(rows), nil
	case ".xlsx":
		rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
		if err != nil {
			return nil, eris.Wrap(err, "boq: read xlsx")
		}
		return FromRows(rows), nil
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "boq: open json")
		}
		defer f.Close() //nolint:errcheck

		out, err := fetcher.CollectJSONArray[model.Candidate](ctx, f)
		if err != nil {
			return nil, eris.Wrap(err, "boq: read json")
		}
		return out, nil
	default:
		return nil, eris.Errorf("boq: unsupported candidate format %q", ext)
	}
}

// FromRows maps a header row plus data rows to candidates, skipping blank
// rows.
func FromRows(rows [][]string) []model.Candidate {
	if len(rows) == 0 {
		return nil
	}
	h := fetcher.NewHeader(rows[0])

	out := make([]model.Candidate, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, model.Candidate{
			Name:     h.Get(row, colName...),
			Category: h.Get(row, colCategory...),
			Unit:     h.Get(row, colUnit...),
			Quantity: ParseQuantity(h.Get(row, colQuantity...)),
			TypeID:   h.Get(row, colTypeID...),
		})
	}
	return out
}

// ParseQuantity parses a quantity as written in a BOQ ("1,250.5", " 12 ").
// Anything unparseable or non-finite yields 0.
func ParseQuantity(s string) float64 {
	return model.ParseQuantity(s)
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
