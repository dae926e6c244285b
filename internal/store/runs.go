package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Run is one persisted pipeline invocation.
type Run struct {
	ID         string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	TotalSteps int           `json:"totalSteps"`
	OK         int           `json:"ok"`
	Skipped    int           `json:"skipped"`
	Errors     int           `json:"errors"`
	Elapsed    time.Duration `json:"elapsedNs"`
	Published  bool          `json:"published"`
	Steps      []StepRow     `json:"steps,omitempty"`
}

// StepRow is one step result within a run.
type StepRow struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	Summary string        `json:"summary,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	Elapsed time.Duration `json:"elapsedNs"`
}

// RecordRun inserts or replaces a run and its step results.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, run.ID); err != nil {
			return fmt.Errorf("clear run: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO runs (run_id, started_at, total_steps, ok, skipped, errors, elapsed_ms, published)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.TotalSteps,
			run.OK,
			run.Skipped,
			run.Errors,
			run.Elapsed.Milliseconds(),
			boolToInt(run.Published),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for i, step := range run.Steps {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO step_results (run_id, position, name, status, summary, reason, elapsed_ms)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				run.ID, i, step.Name, step.Status,
				nullableString(step.Summary), nullableString(step.Reason),
				step.Elapsed.Milliseconds(),
			)
			if err != nil {
				return fmt.Errorf("insert step %s: %w", step.Name, err)
			}
		}
		return nil
	})
}

const runColumns = `run_id, started_at, total_steps, ok, skipped, errors, elapsed_ms, published`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run       Run
		started   string
		elapsedMS int64
		published int
	)
	if err := row.Scan(&run.ID, &started, &run.TotalSteps, &run.OK, &run.Skipped, &run.Errors, &elapsedMS, &published); err != nil {
		return Run{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	run.StartedAt = ts
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	run.Published = published != 0
	return run, nil
}

// ListRuns returns the most recent runs, newest first, without step rows.
// A limit of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run with its steps. It returns nil when the run is unknown.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, summary, reason, elapsed_ms FROM step_results WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			step            StepRow
			summary, reason sql.NullString
			elapsedMS       int64
		)
		if err := rows.Scan(&step.Name, &step.Status, &summary, &reason, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Summary = summary.String
		step.Reason = reason.String
		step.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		run.Steps = append(run.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}
