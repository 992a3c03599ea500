package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // register driver

	"github.com/sells-group/boq-resolver/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS materials (
	position          INTEGER PRIMARY KEY,
	id                TEXT NOT NULL,
	material_name     TEXT NOT NULL DEFAULT '',
	material_category TEXT NOT NULL DEFAULT '',
	subcategory       TEXT,
	unit              TEXT NOT NULL,
	ef_total          REAL NOT NULL,
	data_source       TEXT NOT NULL DEFAULT '',
	epd_number        TEXT,
	manufacturer      TEXT,
	state             TEXT,
	region            TEXT
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	jurisdiction TEXT NOT NULL DEFAULT '',
	request      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	result       TEXT,
	error        TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_materials_id ON materials(id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_jurisdiction ON runs(jurisdiction);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceMaterials swaps the stored snapshot for records in one transaction.
func (s *SQLiteStore) ReplaceMaterials(ctx context.Context, records []model.MaterialRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace materials")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM materials`); err != nil {
		return eris.Wrap(err, "sqlite: clear materials")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(materialColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO materials (`+strings.Join(materialColumns, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert material")
	}
	defer stmt.Close() //nolint:errcheck

	for i, m := range records {
		if _, err := stmt.ExecContext(ctx, materialRow(i, m)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert material %s", m.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit materials")
	}
	return nil
}

// ListMaterials returns the stored snapshot in import order.
func (s *SQLiteStore) ListMaterials(ctx context.Context) ([]model.MaterialRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, material_name, material_category, subcategory, unit, ef_total,
		        data_source, epd_number, manufacturer, state, region
		 FROM materials ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list materials")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.MaterialRecord
	for rows.Next() {
		var m model.MaterialRecord
		var sub, epd, manu, state, region sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &sub, &m.Unit, &m.EFTotal,
			&m.DataSource, &epd, &manu, &state, &region); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan material")
		}
		m.Subcategory = nullable(sub)
		m.EPDNumber = nullable(epd)
		m.Manufacturer = nullable(manu)
		m.State = nullable(state)
		m.Region = nullable(region)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list materials iterate")
	}
	return out, nil
}

// CreateRun records a queued run.
func (s *SQLiteStore) CreateRun(ctx context.Context, req model.RunRequest) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, jurisdiction, request, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, req.Jurisdiction, string(reqJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Request:   req,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CompleteRun stores the result and marks the run complete.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

// FailRun marks the run failed with msg.
func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		msg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

// GetRun loads one run.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request, status, result, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return r, err
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, request, status, result, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Jurisdiction != "" {
		query += ` AND jurisdiction = ?`
		args = append(args, filter.Jurisdiction)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs iterate")
	}
	return runs, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var reqJSON, status string
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &reqJSON, &status, &resultJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Status = model.RunStatus(status)

	if err := json.Unmarshal([]byte(reqJSON), &r.Request); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal request")
	}
	if resultJSON.Valid && resultJSON.String != "" {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return model.StringPtr(ns.String)
}
