// Package catalog loads materials snapshots from CSV, XLSX and JSON files or
// URLs into validated model.MaterialRecord slices.
package catalog

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boq-resolver/internal/fetcher"
	"github.com/sells-group/boq-resolver/internal/model"
)

// Column aliases accepted in tabular snapshots, in lookup order.
var (
	colID           = []string{"id", "material_id"}
	colName         = []string{"material_name", "name"}
	colCategory     = []string{"material_category", "category"}
	colSubcategory  = []string{"subcategory", "material_subcategory"}
	colUnit         = []string{"unit", "declared_unit"}
	colEFTotal      = []string{"ef_total", "emission_factor", "factor"}
	colDataSource   = []string{"data_source", "source"}
	colEPDNumber    = []string{"epd_number", "epd"}
	colManufacturer = []string{"manufacturer"}
	colState        = []string{"state"}
	colRegion       = []string{"region"}
)

// Load reads a snapshot file, choosing the format from its extension, and
// validates every record.
func Load(ctx context.Context, p string) ([]model.MaterialRecord, error) {
	var (
		records []model.MaterialRecord
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".csv":
		records, err = loadCSV(ctx, p)
	case ".xlsx":
		records, err = loadXLSX(p)
	case ".json":
		records, err = loadJSON(ctx, p)
	default:
		return nil, eris.Errorf("catalog: unsupported snapshot format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(records); err != nil {
		return nil, err
	}

	zap.L().Info("loaded materials snapshot",
		zap.String("path", p),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// LoadURL downloads a snapshot into a temporary file and loads it. The format
// comes from the URL path's extension.
func LoadURL(ctx context.Context, f fetcher.Fetcher, rawURL string) ([]model.MaterialRecord, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: parse url %q", rawURL)
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		ext = ".json"
	}

	dir, err := os.MkdirTemp("", "boq-snapshot-*")
	if err != nil {
		return nil, eris.Wrap(err, "catalog: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	local := filepath.Join(dir, "snapshot"+ext)
	n, err := f.DownloadToFile(ctx, rawURL, local)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: download %s", rawURL)
	}
	zap.L().Debug("downloaded materials snapshot", zap.String("url", rawURL), zap.Int64("bytes", n))

	return Load(ctx, local)
}

// Validate checks every record and reports all invalid ones in one error
// wrapping model.ErrInvalidSnapshot.
func Validate(records []model.MaterialRecord) error {
	return model.ValidateSnapshot(records)
}

func loadCSV(ctx context.Context, p string) ([]model.MaterialRecord, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open csv")
	}
	defer f.Close() //nolint:errcheck

	rows, err := fetcher.Drain(fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{TrimSpace: true}))
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read csv")
	}
	return FromRows(rows)
}

func loadXLSX(p string) ([]model.MaterialRecord, error) {
	rows, err := fetcher.ReadXLSX(p, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read xlsx")
	}
	return FromRows(rows)
}

func loadJSON(ctx context.Context, p string) ([]model.MaterialRecord, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open json")
	}
	defer f.Close() //nolint:errcheck

	records, err := fetcher.CollectJSONArray[model.MaterialRecord](ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read json")
	}
	return records, nil
}

// FromRows maps a header row plus data rows to records. Blank rows are
// skipped. An unparseable factor makes the snapshot invalid.
func FromRows(rows [][]string) ([]model.MaterialRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	h := fetcher.NewHeader(rows[0])
	if !h.Has(colID...) || !h.Has(colUnit...) || !h.Has(colEFTotal...) {
		return nil, eris.Wrap(model.ErrInvalidSnapshot, "catalog: header must name id, unit and ef_total columns")
	}

	records := make([]model.MaterialRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		raw := h.Get(row, colEFTotal...)
		ef, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, eris.Wrapf(model.ErrInvalidSnapshot, "catalog: row %d: emission factor %q is not a number", i+2, raw)
		}
		records = append(records, model.MaterialRecord{
			ID:           h.Get(row, colID...),
			Name:         h.Get(row, colName...),
			Category:     h.Get(row, colCategory...),
			Subcategory:  model.StringPtr(h.Get(row, colSubcategory...)),
			Unit:         h.Get(row, colUnit...),
			EFTotal:      ef,
			DataSource:   h.Get(row, colDataSource...),
			EPDNumber:    model.StringPtr(h.Get(row, colEPDNumber...)),
			Manufacturer: model.StringPtr(h.Get(row, colManufacturer...)),
			State:        model.StringPtr(h.Get(row, colState...)),
			Region:       model.StringPtr(h.Get(row, colRegion...)),
		})
	}
	return records, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
