package boq

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boq-resolver/internal/fetcher"
	"github.com/sells-group/boq-resolver/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadCandidates_CSV(t *testing.T) {
	input := "Description,Category,Qty,UOM,Type ID\n" +
		"Concrete slab 32MPa,Concrete,\"1,250.5\",m3,\n" +
		"Steel Stud 64mm,Steel Framing,abc,m,11111111-1111-1111-1111-111111111111\n" +
		",,,,\n"

	got, err := ReadCandidates(context.Background(), writeFile(t, "boq.csv", input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.Candidate{Name: "Concrete slab 32MPa", Category: "Concrete", Unit: "m3", Quantity: 1250.5}, got[0])
	assert.Equal(t, 0.0, got[1].Quantity, "bad quantities become zero")
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", got[1].TypeID)
}

func TestReadCandidates_JSON(t *testing.T) {
	input := `[
		{"name":"Slab","category":"Concrete","unit":"m3","quantity":12.5},
		{"name":"Beam","unit":"m","quantity":"40","typeId":"abc"},
		{"name":"Glass","unit":"m2","quantity":null,"type_id":"def"},
		{"name":"Odd","unit":"kg","quantity":true}
	]`

	got, err := ReadCandidates(context.Background(), writeFile(t, "boq.json", input))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 12.5, got[0].Quantity)
	assert.Equal(t, 40.0, got[1].Quantity)
	assert.Equal(t, "abc", got[1].TypeID)
	assert.Equal(t, 0.0, got[2].Quantity)
	assert.Equal(t, "def", got[2].TypeID)
	assert.Equal(t, 0.0, got[3].Quantity)
}

func TestReadCandidates_XLSX(t *testing.T) {
	p := filepath.Join(t.TempDir(), "boq.xlsx")
	require.NoError(t, fetcher.WriteXLSX(p, "BOQ",
		[]string{"Name", "Category", "Quantity", "Unit"},
		[][]string{{"Timber joist", "Timber", "4", "m3"}}))

	got, err := ReadCandidates(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []model.Candidate{{Name: "Timber joist", Category: "Timber", Unit: "m3", Quantity: 4}}, got)
}

func TestReadCandidates_Errors(t *testing.T) {
	_, err := ReadCandidates(context.Background(), writeFile(t, "boq.pdf", "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported candidate format")

	_, err = ReadCandidates(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = ReadCandidates(context.Background(), writeFile(t, "boq.json", `{"name":"x"}`))
	assert.Error(t, err)
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	tests := map[string]float64{
		"12":       12,
		" 3.5 ":    3.5,
		"1,000":    1000,
		"":         0,
		"n/a":      0,
		"NaN":      0,
		"Inf":      0,
		"-2":       -2,
		"1e3":      1000,
		"12 m3":    0,
		"1,250.75": 1250.75,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseQuantity(in), in)
	}
}

func resolvedFixture() []model.ResolvedMaterial {
	return []model.ResolvedMaterial{
		{
			Name: "Slab", Category: "Concrete", Quantity: 50, Unit: "m3",
			Factor: model.Float64Ptr(420), IsCustom: true, Source: "NMEF (proxy match: 32 MPa Concrete)",
			ConfidenceLevel: model.ConfidenceMedium, Outcome: model.OutcomeCategoryHit,
			ProxyMaterialID: "abc", ProxyMaterialName: "32 MPa Concrete",
			OriginalQuantity: 50, OriginalUnit: "m3",
		},
		{
			Name: "Beam", Quantity: 10, Unit: "m", IsCustom: true, Source: "N/A - requires specification",
			ConfidenceLevel: model.ConfidenceLow, RequiresReview: true, ReviewReason: "needs tonnage, \"t\"",
			Outcome: model.OutcomeStructuralRisk, OriginalQuantity: 10, OriginalUnit: "m",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, resolvedFixture()))

	rows, err := fetcher.Drain(fetcher.StreamCSV(context.Background(), strings.NewReader(buf.String()), fetcher.CSVOptions{}))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])

	h := fetcher.NewHeader(rows[0])
	assert.Equal(t, "420", h.Get(rows[1], "factor"))
	assert.Equal(t, "medium", h.Get(rows[1], "confidence"))
	assert.Equal(t, "", h.Get(rows[2], "factor"))
	assert.Equal(t, "true", h.Get(rows[2], "requires_review"))
	assert.Equal(t, `needs tonnage, "t"`, h.Get(rows[2], "review_reason"))
}

func TestWriteXLSX(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(p, resolvedFixture()))

	rows, err := fetcher.ReadXLSX(p, fetcher.XLSXOptions{SheetName: "Resolved"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Slab", rows[1][0])
	assert.Equal(t, "structural_risk", rows[2][10])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, resolvedFixture()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 420.0, decoded[0]["factor"])
	assert.Nil(t, decoded[1]["factor"])
	assert.Contains(t, decoded[1], "factor", "unresolved factors are explicit nulls")

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
