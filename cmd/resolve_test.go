package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boq-resolver/internal/config"
	"github.com/sells-group/boq-resolver/internal/model"
	"github.com/sells-group/boq-resolver/internal/pipeline"
)

const materialsCSV = `id,material_name,material_category,unit,ef_total,data_source,state
c-1,32 MPa Concrete,Concrete,m3,420,NMEF,NSW
s-1,Hot rolled structural steel,Steel,t,1800,NMEF,
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "boq.db")
	c.Server.Port = 8080
	c.Server.MaxBodyMB = 1
	c.Resolver.Jurisdiction = "AU"
	c.Resolver.Gauge = "default"
	c.Resolver.Workers = 2
	c.Resolver.OutlierRatio = 2.0
	c.Resolver.MinOutlierPeers = 3
	c.Fetch.TimeoutSecs = 5
	c.Fetch.MaxRetries = 1
	return c
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		format, out, want string
		wantErr           bool
	}{
		{"", "", "json", false},
		{"", "out.csv", "csv", false},
		{"", "OUT.XLSX", "xlsx", false},
		{"", "out.txt", "json", false},
		{"CSV", "out.json", "csv", false},
		{"xlsx", "", "", true},
		{"yaml", "", "", true},
	}
	for _, tt := range tests {
		got, err := outputFormat(tt.format, tt.out)
		if tt.wantErr {
			assert.Error(t, err, "format %q out %q", tt.format, tt.out)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "format %q out %q", tt.format, tt.out)
	}
}

func TestWriteOutput_Files(t *testing.T) {
	resolved := []model.ResolvedMaterial{
		{Name: "Concrete slab", Unit: "m3", Quantity: 10, Factor: model.Float64Ptr(420), Outcome: model.OutcomeCategoryHit},
	}
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, writeOutput("csv", csvPath, resolved))
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, "Concrete slab", rows[1][0])

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, writeOutput("json", jsonPath, resolved))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded []model.ResolvedMaterial
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, model.OutcomeCategoryHit, decoded[0].Outcome)

	xlsxPath := filepath.Join(dir, "out.xlsx")
	require.NoError(t, writeOutput("xlsx", xlsxPath, resolved))
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestLoadSnapshot(t *testing.T) {
	c := testConfig(t)

	records, label, err := loadSnapshot(context.Background(), c, writeTemp(t, "nmef.csv", materialsCSV), "")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "nmef.csv", label)

	records, label, err = loadSnapshot(context.Background(), c, "", "")
	require.NoError(t, err)
	assert.Nil(t, records, "no source means the stored snapshot")
	assert.Equal(t, "store", label)

	records, _, err = loadSnapshot(context.Background(), c, writeTemp(t, "empty.json", "[]"), "")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestInitPipeline_StoredSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)

	records, _, err := loadSnapshot(ctx, c, writeTemp(t, "nmef.csv", materialsCSV), "")
	require.NoError(t, err)

	st, err := openStore(ctx, c)
	require.NoError(t, err)
	require.NoError(t, st.ReplaceMaterials(ctx, records))
	require.NoError(t, st.Close())

	env, err := initPipeline(ctx, c, "resolve", true)
	require.NoError(t, err)
	defer env.Close()

	res, err := env.Pipeline.Run(ctx, pipeline.Request{
		Candidates: []model.Candidate{
			{Name: "Concrete slab", Category: "Concrete", Unit: "m3", Quantity: 10},
			{Name: "Structural Steel Universal Beam", Category: "Steel", Unit: "m", Quantity: 12},
		},
		Save: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Resolved, 2)
	assert.Equal(t, model.OutcomeCategoryHit, res.Resolved[0].Outcome)
	assert.Equal(t, model.OutcomeStructuralRisk, res.Resolved[1].Outcome)
	require.NotEmpty(t, res.RunID)

	run, err := env.Store.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "AU", run.Request.Jurisdiction)

	var buf bytes.Buffer
	printSummary(&buf, res)
	assert.Contains(t, buf.String(), "Resolved 2 candidates (AU)")
	assert.Contains(t, buf.String(), "1 structural risk")
	assert.Contains(t, buf.String(), res.RunID)
}

func TestInitPipeline_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Resolver.Gauge = "unknown"

	_, err := initPipeline(context.Background(), c, "resolve", false)
	assert.Error(t, err)
}

func TestNewRegistry_FromFile(t *testing.T) {
	c := testConfig(t)
	c.Resolver.JurisdictionsFile = writeTemp(t, "jurisdictions.yaml", `
jurisdictions:
  - code: UK
    name: United Kingdom
    states: [ENG, SCT, WLS, NIR]
`)
	c.Resolver.Jurisdiction = "uk"

	reg, err := newRegistry(c)
	require.NoError(t, err)
	res, err := newResolver(c, reg)
	require.NoError(t, err)
	assert.Equal(t, "UK", res.Jurisdiction().Code)
	assert.Equal(t, "United Kingdom", res.Jurisdiction().Name)
}

func TestFilterMaterials(t *testing.T) {
	records := []model.MaterialRecord{
		{ID: "1", Category: "Concrete"},
		{ID: "2", Category: "Steel"},
		{ID: "3", Category: "concrete"},
	}

	assert.Len(t, filterMaterials(records, "", 0), 3)
	assert.Len(t, filterMaterials(records, "CONCRETE", 0), 2)
	assert.Len(t, filterMaterials(records, "", 2), 2)
	assert.Empty(t, filterMaterials(records, "Glass", 0))

	var buf bytes.Buffer
	formatMaterialsList(&buf, records)
	assert.Contains(t, buf.String(), "EF_TOTAL")
	assert.Contains(t, buf.String(), "Concrete")
}
