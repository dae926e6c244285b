package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fischpipe/internal/artifact"
	"fischpipe/internal/fetch"
	"fischpipe/internal/services"
)

func newTestClient() *fetch.Client {
	return fetch.NewClient(
		fetch.Config{Timeout: 2 * time.Second, Concurrency: 2},
		fetch.WithRetryMaxAttempts(1),
		fetch.WithHTTPClient(&http.Client{
			Timeout:   2 * time.Second,
			Transport: &http.Transport{DisableKeepAlives: true},
		}),
	)
}

func TestFetchWritesConcatenatedArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/page1":
			_, _ = w.Write([]byte(`[{"name":"Cod"},{"name":"Pike"}]`))
		case "/page2":
			_, _ = w.Write([]byte(`{"items":[{"name":"Trout"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "raw", "fischipedia", "fish.json")
	exec := Fetch{Client: newTestClient(), URLs: []string{srv.URL + "/page1", srv.URL + "/page2"}, Output: out}
	res, err := exec.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Summary != "3 records from 2 urls" {
		t.Fatalf("summary = %q", res.Summary)
	}
	raw, skipped, err := artifact.ReadRaw(out)
	if err != nil || skipped != 0 {
		t.Fatalf("ReadRaw = %v, %d, %v", raw, skipped, err)
	}
	var names []string
	for _, r := range raw {
		names = append(names, r.Name().OrElse(""))
	}
	if len(names) != 3 || names[0] != "Cod" || names[2] != "Trout" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestFetchFailureLeavesNoArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "fish.json")
	_, err := Fetch{Client: newTestClient(), URLs: []string{srv.URL}, Output: out}.Execute(context.Background())
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if artifact.Exists(out) {
		t.Fatal("artifact must not be written on failure")
	}
}

func TestFetchRequiresClientAndOutput(t *testing.T) {
	if _, err := (Fetch{Output: "x"}).Execute(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := (Fetch{Client: newTestClient()}).Execute(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
