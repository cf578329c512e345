// Package journal keeps an auditable SQLite record of reconciliation runs
// and every operation they applied, skipped or failed.
package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/operations"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	jurisdiction TEXT NOT NULL,
	save         INTEGER NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER,
	status       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS operations (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	seq         INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	subject     TEXT NOT NULL,
	seat        TEXT NOT NULL,
	state       TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one reconciliation run.
type Run struct {
	ID           string
	Jurisdiction string
	Save         bool
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
}

// Entry is one journaled operation.
type Entry struct {
	RunID      string
	Seq        int
	Kind       string
	Subject    string
	Seat       string
	State      string
	Error      string
	RecordedAt time.Time
}

// Journal is a SQLite backed run journal.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewConfigError("journal", "path is required", nil)
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("mkdir", dir, err)
		}
	}
	db, err := sql.Open("sqlite", clean+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, errors.NewConfigError("journal", "cannot open database", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.NewConfigError("journal", "cannot open database", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.NewConfigError("journal", "cannot create schema", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Begin records the start of a run.
func (j *Journal) Begin(ctx context.Context, run Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = j.now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, jurisdiction, save, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Jurisdiction, boolInt(run.Save), run.StartedAt.UTC().UnixMilli(), StatusRunning,
	)
	if err != nil {
		return errors.WrapIO("journal begin", run.ID, err)
	}
	return nil
}

// Finish records the end of a run and whether it persisted anything.
func (j *Journal) Finish(ctx context.Context, runID, status string, save bool) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, save = ? WHERE id = ?`,
		j.now().UTC().UnixMilli(), status, boolInt(save), runID,
	)
	if err != nil {
		return errors.WrapIO("journal finish", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("run", runID)
	}
	return nil
}

// Record stores one operation outcome.
func (j *Journal) Record(ctx context.Context, runID string, outcome operations.Outcome) error {
	var msg string
	if outcome.Err != nil {
		msg = outcome.Err.Error()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO operations (run_id, seq, kind, subject, seat, state, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, outcome.Seq, string(outcome.Op.Kind()), outcome.Op.Subject(),
		outcome.Op.Seat().String(), string(outcome.State), msg, j.now().UTC().UnixMilli(),
	)
	if err != nil {
		return errors.WrapIO("journal record", runID, err)
	}
	return nil
}

// Observer returns an operations.Observer that journals into runID.
// Journal failures are logged and never stop the run.
func (j *Journal) Observer(runID string) operations.Observer {
	return operations.ObserverFunc(func(ctx context.Context, outcome operations.Outcome) {
		if err := j.Record(ctx, runID, outcome); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("failed to journal operation")
		}
	})
}

// Runs lists runs, newest first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, jurisdiction, save, started_at, finished_at, status FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, errors.WrapIO("journal query", "runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			save     int
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&run.ID, &run.Jurisdiction, &save, &started, &finished, &run.Status); err != nil {
			return nil, errors.WrapIO("journal scan", "runs", err)
		}
		run.Save = save != 0
		run.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			run.FinishedAt = time.UnixMilli(finished.Int64).UTC()
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Entries lists a run's operations in execution order.
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, seq, kind, subject, seat, state, error, recorded_at
		 FROM operations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, errors.WrapIO("journal query", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			recorded int64
		)
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Kind, &e.Subject, &e.Seat, &e.State, &e.Error, &recorded); err != nil {
			return nil, errors.WrapIO("journal scan", runID, err)
		}
		e.RecordedAt = time.UnixMilli(recorded).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
