// Package store persists the materials snapshot and resolution runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boq-resolver/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// defaultListLimit caps ListRuns when the filter sets no limit.
const defaultListLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	Jurisdiction string          `json:"jurisdiction,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface of the resolver.
type Store interface {
	// Materials snapshot
	ReplaceMaterials(ctx context.Context, records []model.MaterialRecord) error
	ListMaterials(ctx context.Context) ([]model.MaterialRecord, error)

	// Runs
	CreateRun(ctx context.Context, req model.RunRequest) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// materialColumns lists the materials table columns in insert order.
var materialColumns = []string{
	"position", "id", "material_name", "material_category", "subcategory", "unit",
	"ef_total", "data_source", "epd_number", "manufacturer", "state", "region",
}

func materialRow(pos int, m model.MaterialRecord) []any {
	return []any{
		pos, m.ID, m.Name, m.Category, m.Subcategory, m.Unit,
		m.EFTotal, m.DataSource, m.EPDNumber, m.Manufacturer, m.State, m.Region,
	}
}
