package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/pkg/contracts/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	finished_at    TEXT NOT NULL,
	date_last      TEXT NOT NULL,
	reference_file TEXT NOT NULL,
	reference_date TEXT NOT NULL,
	report_path    TEXT NOT NULL,
	records        INTEGER NOT NULL,
	windows        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_files (
	run_id   TEXT NOT NULL REFERENCES runs(run_id),
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// Ledger records completed runs in a SQLite database.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (or creates) the ledger database at dbPath.
func OpenLedger(ctx context.Context, dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create ledger directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open ledger", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to migrate ledger", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordRun stores a run and its input file list in one transaction.
func (l *Ledger) RecordRun(ctx context.Context, run domain.RunRecord) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin ledger transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, finished_at, date_last, reference_file,
			reference_date, report_path, records, windows)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.DateLast.Format(domain.DateLayout),
		run.ReferenceFile,
		formatDate(run.ReferenceDate),
		run.ReportPath,
		run.Records,
		joinInts(run.Windows),
	)
	if err != nil {
		return apperrors.NewStorageError("failed to insert run "+run.RunID, err)
	}

	for i, name := range run.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, position, name) VALUES (?, ?, ?)`,
			run.RunID, i, name); err != nil {
			return apperrors.NewStorageError("failed to insert run file "+name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit run "+run.RunID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, date_last, reference_file,
			reference_date, report_path, records, windows
		FROM runs ORDER BY finished_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query runs", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			run                                  domain.RunRecord
			started, finished, dateLast, refDate string
			windows                              string
		)
		if err := rows.Scan(&run.RunID, &started, &finished, &dateLast, &run.ReferenceFile,
			&refDate, &run.ReportPath, &run.Records, &windows); err != nil {
			return nil, apperrors.NewStorageError("failed to scan run", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		run.DateLast, _ = time.Parse(domain.DateLayout, dateLast)
		if refDate != "" {
			run.ReferenceDate, _ = time.Parse(domain.DateLayout, refDate)
		}
		run.Windows = splitInts(windows)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read runs", err)
	}
	rows.Close()

	for i := range runs {
		files, err := l.runFiles(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Files = files
	}
	return runs, nil
}

// LatestRun returns the most recently finished run, or nil if the ledger
// is empty.
func (l *Ledger) LatestRun(ctx context.Context) (*domain.RunRecord, error) {
	runs, err := l.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func (l *Ledger) runFiles(ctx context.Context, runID string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT name FROM run_files WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query run files", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewStorageError("failed to scan run file", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewStorageError("failed to read run files", err)
	}
	return names, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}
