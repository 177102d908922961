// Package store persists metric rows into a SQLite database so repeated
// batch runs accumulate one table per record kind.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/QuesmaOrg/tfc-rig/internal/metrics"
)

var (
	sessionTable = table{
		name: "session_metrics",
		key:  []string{"mouse_id", "session_id"},
		cols: columnsOf(reflect.TypeOf(metrics.SessionMetrics{})),
	}
	trialTable = table{
		name: "trial_metrics",
		key:  []string{"mouse_id", "session_id", "trial"},
		cols: columnsOf(reflect.TypeOf(metrics.TrialMetrics{})),
	}
)

const createRuns = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	sessions INTEGER NOT NULL,
	trials INTEGER NOT NULL,
	failures INTEGER NOT NULL
)`

// Store is an open metrics database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{createRuns, sessionTable.create(), trialTable.create()} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema in %s: %w", path, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run summarizes one saved batch.
type Run struct {
	ID       string
	Created  time.Time
	Sessions int
	Trials   int
	Failures int
}

// Save writes the rows of one batch in a single transaction. Rows with the
// same key as earlier runs replace them.
func (s *Store) Save(ctx context.Context, sessions []metrics.SessionMetrics, trials []metrics.TrialMetrics, failures int) (Run, error) {
	run := Run{
		ID:       uuid.NewString(),
		Created:  time.Now().UTC(),
		Sessions: len(sessions),
		Trials:   len(trials),
		Failures: failures,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, sessions, trials, failures) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Created.Format(time.RFC3339Nano), run.Sessions, run.Trials, run.Failures,
	); err != nil {
		return Run{}, err
	}
	if err := insertAll(ctx, tx, sessionTable, reflect.ValueOf(sessions), run.ID); err != nil {
		return Run{}, err
	}
	if err := insertAll(ctx, tx, trialTable, reflect.ValueOf(trials), run.ID); err != nil {
		return Run{}, err
	}
	return run, tx.Commit()
}

func insertAll(ctx context.Context, tx *sql.Tx, t table, rows reflect.Value, runID string) error {
	if rows.Len() == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, t.insert())
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", t.name, err)
	}
	defer stmt.Close()

	for i := 0; i < rows.Len(); i++ {
		if _, err := stmt.ExecContext(ctx, t.args(rows.Index(i), runID)...); err != nil {
			return fmt.Errorf("inserting into %s: %w", t.name, err)
		}
	}
	return nil
}

// Sessions returns every stored session row ordered by session and mouse.
func (s *Store) Sessions(ctx context.Context) ([]metrics.SessionMetrics, error) {
	var out []metrics.SessionMetrics
	err := s.scan(ctx, sessionTable, "session_id, mouse_id", func(dest func(reflect.Value) []any) ([]any, func()) {
		var row metrics.SessionMetrics
		return dest(reflect.ValueOf(&row).Elem()), func() { out = append(out, row) }
	})
	return out, err
}

// Trials returns every stored trial row ordered by session, trial and mouse.
func (s *Store) Trials(ctx context.Context) ([]metrics.TrialMetrics, error) {
	var out []metrics.TrialMetrics
	err := s.scan(ctx, trialTable, "session_id, trial, mouse_id", func(dest func(reflect.Value) []any) ([]any, func()) {
		var row metrics.TrialMetrics
		return dest(reflect.ValueOf(&row).Elem()), func() { out = append(out, row) }
	})
	return out, err
}

// Runs returns saved runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, sessions, trials, failures FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Sessions, &r.Trials, &r.Failures); err != nil {
			return nil, err
		}
		r.Created, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// scan runs a full-table select. next returns scan targets for a fresh row
// and a func that keeps the row once scanned.
func (s *Store) scan(ctx context.Context, t table, order string, next func(func(reflect.Value) []any) ([]any, func())) error {
	rows, err := s.db.QueryContext(ctx, t.selectAll(order))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		dest, keep := next(t.dest)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scanning %s: %w", t.name, err)
		}
		keep()
	}
	return rows.Err()
}
