// Package store persists filter results in a SQLite database.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zhongruiw/lagrangeda"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("store: run not found")

// Run describes a stored filter run.
type Run struct {
	ID        uuid.UUID
	Kind      string // "ou" or "qg"
	Steps     int
	Dim       int
	Dt        float64
	Notes     string
	CreatedAt time.Time
}

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores res under a new run id.
func (s *Store) SaveRun(ctx context.Context, kind string, dt float64, notes string, res *lagrangeda.Result) (Run, error) {
	n, steps := res.Dims()
	run := Run{
		ID:        uuid.New(),
		Kind:      kind,
		Steps:     steps,
		Dim:       n,
		Dt:        dt,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, kind, steps, dim, dt, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Kind, run.Steps, run.Dim, run.Dt, run.Notes, run.CreatedAt.UnixNano(),
	); err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO states (run_id, step, component, mean_re, mean_im, var_re, var_im)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, err
	}
	defer stmt.Close()
	for k := 0; k < steps; k++ {
		for j := 0; j < n; j++ {
			μ, v := res.Mean.At(j, k), res.CovDiag.At(j, k)
			if _, err := stmt.ExecContext(ctx, run.ID.String(), k, j, real(μ), imag(μ), real(v), imag(v)); err != nil {
				return Run{}, fmt.Errorf("failed to insert state %d/%d: %w", k, j, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	return run, nil
}

// GetRun returns the description of a run.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, kind, steps, dim, dt, notes, created_at
		FROM runs WHERE run_id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// LoadRun returns the description and the result of a run.
func (s *Store) LoadRun(ctx context.Context, id uuid.UUID) (Run, *lagrangeda.Result, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, component, mean_re, mean_im, var_re, var_im
		FROM states WHERE run_id = ?
		ORDER BY step, component`, id.String())
	if err != nil {
		return Run{}, nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	res := lagrangeda.NewResult(run.Dim, run.Steps)
	count := 0
	for rows.Next() {
		var k, j int
		var μr, μi, vr, vi float64
		if err := rows.Scan(&k, &j, &μr, &μi, &vr, &vi); err != nil {
			return Run{}, nil, err
		}
		if k < 0 || k >= run.Steps || j < 0 || j >= run.Dim {
			return Run{}, nil, fmt.Errorf("state (%d, %d) outside run %s", k, j, id)
		}
		res.Mean.Set(j, k, complex(μr, μi))
		res.CovDiag.Set(j, k, complex(vr, vi))
		count++
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, err
	}
	if count != run.Steps*run.Dim {
		return Run{}, nil, fmt.Errorf("run %s has %d states, expected %d", id, count, run.Steps*run.Dim)
	}
	return run, res, nil
}

// ListRuns returns the runs of the given kind, newest first. An empty kind
// lists every run.
func (s *Store) ListRuns(ctx context.Context, kind string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, kind, steps, dim, dt, notes, created_at
		FROM runs
		WHERE ? = '' OR kind = ?
		ORDER BY created_at DESC`, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its states.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var id string
	var notes sql.NullString
	var created int64
	if err := sc.Scan(&id, &run.Kind, &run.Steps, &run.Dim, &run.Dt, &notes, &created); err != nil {
		return Run{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.ID = parsed
	run.Notes = notes.String
	run.CreatedAt = time.Unix(0, created).UTC()
	return run, nil
}
