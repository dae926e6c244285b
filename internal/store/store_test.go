package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fischpipe/internal/record"
	"fischpipe/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "state", "fischpipe.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fischpipe.db")
	first, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	second, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = second.Close()
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fischpipe.db")
	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE schema_version SET version = 99`); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := store.OpenPath("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestRecordAndListRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := store.Run{
		ID: "run-1", StartedAt: base, TotalSteps: 2, OK: 1, Errors: 1, Elapsed: 1500 * time.Millisecond,
		Steps: []store.StepRow{
			{Name: "wiki-fish", Status: "ok", Summary: "12 records", Elapsed: time.Second},
			{Name: "reconcile-fish", Status: "error", Reason: "boom", Elapsed: 500 * time.Millisecond},
		},
	}
	newer := store.Run{ID: "run-2", StartedAt: base.Add(time.Hour), TotalSteps: 1, OK: 1}
	for _, run := range []store.Run{older, newer} {
		if err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun(%s): %v", run.ID, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"run-2", "run-1"}, ids); diff != "" {
		t.Fatalf("run order (-want +got):\n%s", diff)
	}

	limited, err := s.ListRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("ListRuns(1) = %v, %v", limited, err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if diff := cmp.Diff(&older, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}

	missing, err := s.GetRun(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetRun(nope) = %v, %v", missing, err)
	}
}

func TestRecordRunReplacesSteps(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	run := store.Run{ID: "run-1", StartedAt: time.Now().UTC(), TotalSteps: 2, Steps: []store.StepRow{{Name: "a", Status: "ok"}, {Name: "b", Status: "ok"}}}
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Steps = run.Steps[:1]
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Steps) != 1 {
		t.Fatalf("expected 1 step after replace, got %d", len(got.Steps))
	}
}

func fish(id, name string, value float64) record.Canonical {
	rec := record.Canonical{ID: id, Name: name, DataSource: map[string]bool{"wiki": true, "fischipedia": false}}
	rec.Set("baseValue", record.Number(value))
	return rec
}

func TestPublishCorpusReplacesKind(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.PublishCorpus(ctx, "fish", "run-1", []record.Canonical{fish("cod", "Cod", 10), fish("pike", "Pike", 20)}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := s.PublishCorpus(ctx, "rods", "run-1", []record.Canonical{{ID: "flimsy-rod", Name: "Flimsy Rod"}}); err != nil {
		t.Fatalf("rods publish: %v", err)
	}
	n, err := s.PublishCorpus(ctx, "fish", "run-2", []record.Canonical{fish("trout", "Trout", 30)})
	if err != nil || n != 1 {
		t.Fatalf("second publish = %d, %v", n, err)
	}

	counts, err := s.CorpusCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int{"fish": 1, "rods": 1}, counts); diff != "" {
		t.Fatalf("counts (-want +got):\n%s", diff)
	}

	published, err := s.Corpus(ctx, "fish")
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != 1 || published[0].ID != "trout" {
		t.Fatalf("unexpected fish corpus %#v", published)
	}
	if v, ok := published[0].Get("baseValue").Num(); !ok || v != 30 {
		t.Fatalf("baseValue = %v, %v", v, ok)
	}
}

func TestPublishCorpusRejectsMissingID(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if _, err := s.PublishCorpus(ctx, "fish", "", []record.Canonical{fish("cod", "Cod", 1)}); err != nil {
		t.Fatal(err)
	}
	_, err := s.PublishCorpus(ctx, "fish", "", []record.Canonical{{Name: "Nameless"}})
	if err == nil {
		t.Fatal("expected error for record without id")
	}
	counts, _ := s.CorpusCounts(ctx)
	if counts["fish"] != 1 {
		t.Fatalf("previous corpus should survive a rejected publish, got %v", counts)
	}
}
