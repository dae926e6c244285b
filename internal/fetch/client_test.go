package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"fischpipe/internal/services"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
}

func newTestClient(recorder *sleepRecorder, opts ...Option) *Client {
	base := []Option{
		WithRetryMaxAttempts(4),
		WithRetryBackoff(100*time.Millisecond, 300*time.Millisecond),
		WithSleeper(recorder.sleep),
		WithHTTPClient(&http.Client{
			Timeout:   2 * time.Second,
			Transport: &http.Transport{DisableKeepAlives: true},
		}),
	}
	return NewClient(Config{Timeout: 2 * time.Second, Concurrency: 3}, append(base, opts...)...)
}

func TestGetRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"name":"Goldfish"}]`))
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	body, err := newTestClient(rec).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(string(body), "Goldfish") {
		t.Fatalf("unexpected body %q", body)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	if fmt.Sprint(rec.delays) != fmt.Sprint(want) {
		t.Fatalf("backoff delays = %v, want %v", rec.delays, want)
	}
}

func TestGetHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	if _, err := newTestClient(rec).Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.delays) != 1 || rec.delays[0] != 300*time.Millisecond {
		t.Fatalf("expected Retry-After capped at max delay, got %v", rec.delays)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	_, err := newTestClient(rec).Get(context.Background(), srv.URL)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if calls.Load() != 1 || len(rec.delays) != 0 {
		t.Fatalf("expected a single attempt, got %d calls and delays %v", calls.Load(), rec.delays)
	}
}

func TestGetGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(&sleepRecorder{}).Get(context.Background(), srv.URL)
	if err == nil || calls.Load() != 4 {
		t.Fatalf("expected failure after 4 attempts, got err=%v calls=%d", err, calls.Load())
	}
	if services.Kind(err) != "FetchError" {
		t.Fatalf("Kind = %q", services.Kind(err))
	}
}

func TestFetchAllPreservesURLOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "1" {
			time.Sleep(30 * time.Millisecond)
		}
		switch page {
		case "2":
			_, _ = fmt.Fprintf(w, `{"items":[{"page":%s}]}`, page)
		default:
			_, _ = fmt.Fprintf(w, `[{"page":%s},{"page":%s}]`, page, page)
		}
	}))
	defer srv.Close()

	urls := []string{srv.URL + "?page=1", srv.URL + "?page=2", srv.URL + "?page=3"}
	items, err := newTestClient(&sleepRecorder{}).FetchAll(context.Background(), urls)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	var pages []int
	for _, item := range items {
		var v struct {
			Page int `json:"page"`
		}
		if err := json.Unmarshal(item, &v); err != nil {
			t.Fatalf("decode item: %v", err)
		}
		pages = append(pages, v.Page)
	}
	if fmt.Sprint(pages) != "[1 1 2 3 3]" {
		t.Fatalf("pages = %v, want URL order", pages)
	}
}

func TestFetchAllFailsOnMalformedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"not an artifact"`))
	}))
	defer srv.Close()

	_, err := newTestClient(&sleepRecorder{}).FetchAll(context.Background(), []string{srv.URL})
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	c := newTestClient(rec)
	if err := c.Probe(context.Background(), srv.URL+"/up"); err != nil {
		t.Fatalf("Probe up: %v", err)
	}
	if err := c.Probe(context.Background(), srv.URL+"/down"); err == nil {
		t.Fatal("expected probe failure")
	}
	if len(rec.delays) != 0 {
		t.Fatalf("probe must not retry, got delays %v", rec.delays)
	}
	if err := c.Probe(context.Background(), "not a url"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
