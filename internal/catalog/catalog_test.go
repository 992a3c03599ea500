package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boq-resolver/internal/fetcher"
	"github.com/sells-group/boq-resolver/internal/model"
)

const snapshotCSV = `id,material_name,material_category,unit,ef_total,data_source,epd_number,state,region
11111111-1111-1111-1111-111111111111,32 MPa Concrete,Concrete,m3,420,NMEF,EPD-1,NSW,
22222222-2222-2222-2222-222222222222,Reinforcing bar,Reinforcement,t,1500,NMEF,,,Australia
,,,,,,,,
`

const snapshotJSON = `[
  {"id":"11111111-1111-1111-1111-111111111111","material_name":"32 MPa Concrete","material_category":"Concrete","unit":"m3","ef_total":420,"data_source":"NMEF","state":"NSW"},
  {"id":"22222222-2222-2222-2222-222222222222","material_name":"Reinforcing bar","material_category":"Reinforcement","unit":"t","ef_total":1500,"data_source":"NMEF","region":"Australia"}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func assertSnapshot(t *testing.T, records []model.MaterialRecord) {
	t.Helper()
	require.Len(t, records, 2)
	assert.Equal(t, "32 MPa Concrete", records[0].Name)
	assert.Equal(t, "Concrete", records[0].Category)
	assert.Equal(t, 420.0, records[0].EFTotal)
	assert.Equal(t, "NSW", records[0].StateTag())
	assert.Empty(t, records[0].RegionTag())
	assert.Equal(t, "t", records[1].Unit)
	assert.Equal(t, "Australia", records[1].RegionTag())
}

func TestLoad_CSV(t *testing.T) {
	records, err := Load(context.Background(), writeFile(t, "materials.csv", snapshotCSV))
	require.NoError(t, err)
	assertSnapshot(t, records)
	require.NotNil(t, records[0].EPDNumber)
	assert.Equal(t, "EPD-1", *records[0].EPDNumber)
	assert.Nil(t, records[1].EPDNumber)
}

func TestLoad_JSON(t *testing.T) {
	records, err := Load(context.Background(), writeFile(t, "materials.json", snapshotJSON))
	require.NoError(t, err)
	assertSnapshot(t, records)
}

func TestLoad_XLSX(t *testing.T) {
	p := filepath.Join(t.TempDir(), "materials.xlsx")
	err := fetcher.WriteXLSX(p, "Materials",
		[]string{"ID", "Material Name", "Material Category", "Unit", "EF Total", "Data Source", "State", "Region"},
		[][]string{
			{"11111111-1111-1111-1111-111111111111", "32 MPa Concrete", "Concrete", "m3", "420", "NMEF", "NSW", ""},
			{"22222222-2222-2222-2222-222222222222", "Reinforcing bar", "Reinforcement", "t", "1500", "NMEF", "", "Australia"},
		})
	require.NoError(t, err)

	records, err := Load(context.Background(), p)
	require.NoError(t, err)
	assertSnapshot(t, records)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load(context.Background(), writeFile(t, "materials.txt", "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported snapshot format")
}

func TestLoad_InvalidRecords(t *testing.T) {
	bad := `[{"id":"a","unit":"","ef_total":1},{"id":"","unit":"kg","ef_total":1},{"id":"c","unit":"kg","ef_total":-3}]`
	_, err := Load(context.Background(), writeFile(t, "materials.json", bad))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidSnapshot))
	assert.Contains(t, err.Error(), "3 invalid records")
}

func TestFromRows(t *testing.T) {
	t.Parallel()

	records, err := FromRows(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = FromRows([][]string{{"name", "unit"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidSnapshot))

	_, err = FromRows([][]string{{"id", "unit", "ef_total"}, {"a", "kg", "lots"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	records, err = FromRows([][]string{
		{"material_id", "name", "category", "declared_unit", "factor", "source"},
		{"a", "Glass", "Glass", "m2", "25.5", "ICE"},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 25.5, records[0].EFTotal)
	assert.Equal(t, "ICE", records[0].DataSource)
	assert.Nil(t, records[0].Subcategory)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/materials.csv":
			_, _ = w.Write([]byte(snapshotCSV))
		case "/api/materials":
			_, _ = w.Write([]byte(snapshotJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:     5 * time.Second,
		BaseBackoff: time.Millisecond,
	})

	records, err := LoadURL(context.Background(), f, srv.URL+"/materials.csv")
	require.NoError(t, err)
	assertSnapshot(t, records)

	records, err = LoadURL(context.Background(), f, srv.URL+"/api/materials")
	require.NoError(t, err, "extensionless urls are read as json")
	assertSnapshot(t, records)

	_, err = LoadURL(context.Background(), f, srv.URL+"/missing.csv")
	assert.Error(t, err)
}
