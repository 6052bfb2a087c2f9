// Package catalog records extraction runs and their components in SQLite so
// components from many documents can be looked up by id or category.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mabhi256/bpmx/internal/output"
)

type Store struct {
	db *sql.DB
}

type Run struct {
	ID         int64
	Source     string
	Category   string
	FilterID   string
	OutputDir  string
	Components int
	Failures   int
}

type Component struct {
	RunID        int64
	Index        int
	Type         string
	ID           string
	Name         string
	Line         int
	Bytes        int
	Source       string
	Path         string
	MetadataPath string
}

// Open creates or opens the catalog database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			category TEXT,
			filter_id TEXT,
			output_dir TEXT,
			components INTEGER,
			failures INTEGER,
			errors JSON,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS components (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			type TEXT,
			component_id TEXT,
			name TEXT,
			line INTEGER,
			bytes INTEGER,
			source TEXT,
			path TEXT,
			metadata_path TEXT,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_components_id ON components(component_id);`,
		`CREATE INDEX IF NOT EXISTS idx_components_type ON components(type);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores an inventory as a new run and returns the run id.
func (s *Store) RecordRun(ctx context.Context, inv output.Inventory, outputDir string) (int64, error) {
	errs, err := json.Marshal(inv.Errors)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal errors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (source, category, filter_id, output_dir, components, failures, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, inv.Source, inv.Category, inv.ID, outputDir, len(inv.Components), len(inv.Errors), errs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO components (run_id, idx, type, component_id, name, line, bytes, source, path, metadata_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, e := range inv.Components {
		if _, err := stmt.ExecContext(ctx, runID, e.Index, e.Type, e.ID, e.Name, e.Line, e.Bytes, e.Source, e.Path, e.MetadataPath); err != nil {
			return 0, fmt.Errorf("failed to insert component %d: %w", e.Index, err)
		}
	}

	return runID, tx.Commit()
}

func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, source, category, filter_id, output_dir, components, failures FROM runs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Category, &r.FilterID, &r.OutputDir, &r.Components, &r.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

const componentColumns = "run_id, idx, type, component_id, name, line, bytes, source, path, metadata_path"

// Components lists the components of a run in document order.
func (s *Store) Components(ctx context.Context, runID int64) ([]Component, error) {
	return s.queryComponents(ctx, "SELECT "+componentColumns+" FROM components WHERE run_id = ? ORDER BY idx", runID)
}

// FindByID returns every recorded component with the given id across runs.
func (s *Store) FindByID(ctx context.Context, id string) ([]Component, error) {
	return s.queryComponents(ctx, "SELECT "+componentColumns+" FROM components WHERE component_id = ? ORDER BY run_id, idx", id)
}

// FindByType returns every recorded component of a category across runs.
func (s *Store) FindByType(ctx context.Context, typ string) ([]Component, error) {
	return s.queryComponents(ctx, "SELECT "+componentColumns+" FROM components WHERE type = ? ORDER BY run_id, idx", typ)
}

func (s *Store) queryComponents(ctx context.Context, query string, args ...any) ([]Component, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	var out []Component
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.RunID, &c.Index, &c.Type, &c.ID, &c.Name, &c.Line, &c.Bytes, &c.Source, &c.Path, &c.MetadataPath); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
