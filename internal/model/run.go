package model

import "time"

// RunStatus represents the current state of a persisted resolution run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunRequest is the input of one resolution pass as recorded in the store.
// The snapshot itself is not persisted with the run; only its size is.
type RunRequest struct {
	Jurisdiction  string      `json:"jurisdiction"`
	Candidates    []Candidate `json:"candidates"`
	SnapshotSize  int         `json:"snapshot_size"`
	SnapshotLabel string      `json:"snapshot_label,omitempty"`
}

// Run represents a single persisted resolution pass.
type Run struct {
	ID        string     `json:"id"`
	Request   RunRequest `json:"request"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the resolved records of a run plus their summary.
type RunResult struct {
	Resolved []ResolvedMaterial `json:"resolved"`
	Summary  Summary            `json:"summary"`
}

// Summary counts resolution outcomes across a batch.
type Summary struct {
	Total          int                `json:"total"`
	RequiresReview int                `json:"requires_review"`
	Converted      int                `json:"converted"`
	Outliers       int                `json:"outliers"`
	ByOutcome      map[Outcome]int    `json:"by_outcome"`
	ByConfidence   map[Confidence]int `json:"by_confidence"`
	ByTaxonomy     map[Taxonomy]int   `json:"by_taxonomy"`
}

// Summarize counts outcomes across a batch of resolved materials.
func Summarize(resolved []ResolvedMaterial) Summary {
	s := Summary{
		Total:        len(resolved),
		ByOutcome:    make(map[Outcome]int),
		ByConfidence: make(map[Confidence]int),
		ByTaxonomy:   make(map[Taxonomy]int),
	}
	for _, r := range resolved {
		s.ByOutcome[r.Outcome]++
		s.ByConfidence[r.ConfidenceLevel]++
		s.ByTaxonomy[r.Outcome.Taxonomy()]++
		if r.RequiresReview {
			s.RequiresReview++
		}
		if r.UnitConversionApplied {
			s.Converted++
		}
		if r.IsOutlier {
			s.Outliers++
		}
	}
	return s
}
