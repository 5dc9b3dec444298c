package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

const (
	runsTable = "runs"
	// Fixed-width UTC timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL UNIQUE,
	generated_at TEXT NOT NULL,
	total_fetched INTEGER NOT NULL,
	total_filtered INTEGER NOT NULL,
	duplicates_dropped INTEGER NOT NULL,
	article_count INTEGER NOT NULL,
	error_count INTEGER NOT NULL,
	success_rate REAL NOT NULL,
	output_path TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs(generated_at DESC);
`

// SQLiteHistory persists one summary row per run. Articles are never stored.
type SQLiteHistory struct {
	db *sql.DB
}

var _ ports.RunRecorder = (*SQLiteHistory)(nil)

// OpenSQLiteHistory opens (or creates) the ledger at path.
func OpenSQLiteHistory(ctx context.Context, path string) (*SQLiteHistory, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// Close releases the database handle.
func (h *SQLiteHistory) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// RecordRun inserts the run summary.
func (h *SQLiteHistory) RecordRun(ctx context.Context, run domain.RunRecord) error {
	query, args, err := sq.Insert(runsTable).
		Columns("run_id", "generated_at", "total_fetched", "total_filtered", "duplicates_dropped",
			"article_count", "error_count", "success_rate", "output_path", "elapsed_ms").
		Values(run.RunID, run.GeneratedAt.UTC().Format(timeLayout), run.TotalFetched, run.TotalFiltered,
			run.DuplicatesDropped, run.ArticleCount, run.ErrorCount, run.SuccessRate, run.OutputPath,
			run.Elapsed.Milliseconds()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (h *SQLiteHistory) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	builder := sq.Select("run_id", "generated_at", "total_fetched", "total_filtered", "duplicates_dropped",
		"article_count", "error_count", "success_rate", "output_path", "elapsed_ms").
		From(runsTable).
		OrderBy("generated_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			run         domain.RunRecord
			generatedAt string
			elapsedMS   int64
		)
		if err := rows.Scan(&run.RunID, &generatedAt, &run.TotalFetched, &run.TotalFiltered,
			&run.DuplicatesDropped, &run.ArticleCount, &run.ErrorCount, &run.SuccessRate,
			&run.OutputPath, &elapsedMS); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("parse generated_at %q: %w", generatedAt, err)
		}
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, run)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return runs, nil
}
