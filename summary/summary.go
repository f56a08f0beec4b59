// Package summary records scalar training and evaluation summaries in a SQLite database
package summary

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// FileName is the database created inside a model directory
const FileName = "events.db"

// Runs written by the estimators
const (
	Train = "train"
	Eval  = "eval"
)

// Store is the summary database of one model directory
type Store struct {
	db    *sql.DB
	runID string
}

// Point is one recorded scalar
type Point struct {
	RunID    string
	Step     int64
	Value    float64
	WallTime time.Time
}

// Open opens or creates the database in dir. runID tags every row written
// through this store, so re-runs in the same directory stay distinguishable.
func Open(dir, runID string) (*Store, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, FileName))
	if err != nil {
		return nil, errors.Wrap(err, "opening summary database")
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, runID: runID}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS scalars (
  run TEXT NOT NULL,
  run_id TEXT NOT NULL DEFAULT '',
  tag TEXT NOT NULL,
  step INTEGER NOT NULL,
  value REAL NOT NULL,
  wall_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS scalars_run_tag ON scalars(run, tag, step);
`)
	return errors.Wrap(err, "migrating summary database")
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Writer returns a writer appending to run
func (s *Store) Writer(run string) *Writer {
	return &Writer{store: s, run: run}
}

// Scalars lists the values recorded for tag in run, by step
func (s *Store) Scalars(ctx context.Context, run, tag string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, step, value, wall_time FROM scalars
WHERE run=? AND tag=?
ORDER BY step, wall_time;
`, run, tag)
	if err != nil {
		return nil, errors.Wrap(err, "querying scalars")
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.RunID, &p.Step, &p.Value, &p.WallTime); err != nil {
			return nil, errors.Wrap(err, "scanning scalar")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Tags lists the distinct tags recorded in run
func (s *Store) Tags(ctx context.Context, run string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT tag FROM scalars WHERE run=? ORDER BY tag;", run)
	if err != nil {
		return nil, errors.Wrap(err, "querying tags")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// Writer appends scalars to one run
type Writer struct {
	store *Store
	run   string
}

// Scalar records value for tag at step
func (w *Writer) Scalar(ctx context.Context, tag string, step int64, value float64) error {
	if w == nil || w.store == nil {
		return nil
	}
	_, err := w.store.db.ExecContext(ctx, `
INSERT INTO scalars(run, run_id, tag, step, value, wall_time)
VALUES(?, ?, ?, ?, ?, ?);
`, w.run, w.store.runID, tag, step, value, time.Now().UTC())
	return errors.Wrapf(err, "writing summary %s/%s", w.run, tag)
}
