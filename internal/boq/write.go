package boq

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boq-resolver/internal/fetcher"
	"github.com/sells-group/boq-resolver/internal/model"
)

// Columns is the header of tabular exports.
var Columns = []string{
	"name", "category", "type_id", "quantity", "unit",
	"factor", "source", "confidence", "requires_review", "review_reason", "outcome",
	"proxy_material_id", "proxy_material_name",
	"unit_conversion_applied", "conversion_note", "original_quantity", "original_unit",
	"is_outlier", "outlier_reason",
}

// Row renders one resolved material in Columns order. An unresolved factor
// is an empty cell.
func Row(r model.ResolvedMaterial) []string {
	factor := ""
	if r.Factor != nil {
		factor = formatFloat(*r.Factor)
	}
	return []string{
		r.Name, r.Category, r.TypeID, formatFloat(r.Quantity), r.Unit,
		factor, r.Source, string(r.ConfidenceLevel), strconv.FormatBool(r.RequiresReview), r.ReviewReason, string(r.Outcome),
		r.ProxyMaterialID, r.ProxyMaterialName,
		strconv.FormatBool(r.UnitConversionApplied), r.ConversionNote, formatFloat(r.OriginalQuantity), r.OriginalUnit,
		strconv.FormatBool(r.IsOutlier), r.OutlierReason,
	}
}

// WriteCSV writes resolved materials with a header row.
func WriteCSV(w io.Writer, resolved []model.ResolvedMaterial) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "boq: write csv header")
	}
	for _, r := range resolved {
		if err := cw.Write(Row(r)); err != nil {
			return eris.Wrap(err, "boq: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "boq: flush csv")
	}
	return nil
}

// WriteXLSX writes resolved materials to a single-sheet workbook.
func WriteXLSX(path string, resolved []model.ResolvedMaterial) error {
	rows := make([][]string, len(resolved))
	for i, r := range resolved {
		rows[i] = Row(r)
	}
	if err := fetcher.WriteXLSX(path, "Resolved", Columns, rows); err != nil {
		return eris.Wrap(err, "boq: write xlsx")
	}
	return nil
}

// WriteJSON writes resolved materials as an indented JSON array.
func WriteJSON(w io.Writer, resolved []model.ResolvedMaterial) error {
	if resolved == nil {
		resolved = []model.ResolvedMaterial{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resolved); err != nil {
		return eris.Wrap(err, "boq: write json")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
