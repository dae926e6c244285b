package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fischpipe/internal/record"
)

// PublishCorpus replaces every published record of kind with records in a
// single transaction and returns the number of rows written.
func (s *Store) PublishCorpus(ctx context.Context, kind, runID string, records []record.Canonical) (int, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return 0, errors.New("entity kind is required")
	}

	bodies := make([][]byte, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.ID) == "" {
			return 0, fmt.Errorf("publish %s: record %d has no id", kind, i)
		}
		body, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("publish %s: encode %s: %w", kind, rec.ID, err)
		}
		bodies[i] = body
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_records WHERE kind = ?`, kind); err != nil {
			return fmt.Errorf("clear %s: %w", kind, err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO corpus_records (kind, id, name, body, run_id, published_at) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx, kind, rec.ID, rec.Name, string(bodies[i]), nullableString(runID), now); err != nil {
				return fmt.Errorf("insert %s/%s: %w", kind, rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// CorpusCounts returns the number of published records per entity kind.
func (s *Store) CorpusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(1) FROM corpus_records GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count corpus: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan corpus count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// Corpus returns the published records of kind ordered by name, then id.
func (s *Store) Corpus(ctx context.Context, kind string) ([]record.Canonical, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM corpus_records WHERE kind = ? ORDER BY name, id`, kind)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	var out []record.Canonical
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan corpus row: %w", err)
		}
		var rec record.Canonical
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("decode corpus row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
