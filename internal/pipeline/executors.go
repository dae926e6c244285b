package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fischpipe/internal/artifact"
	"fischpipe/internal/fetch"
	"fischpipe/internal/services"
)

// Func adapts an in-process function into an Executor. The returned string is
// the step summary.
type Func func(ctx context.Context) (string, error)

type funcResult struct {
	summary string
	err     error
}

// Execute implements Executor. It returns as soon as ctx is done even when f
// ignores ctx. The abandoned call keeps running in the background; artifacts it
// writes land atomically, possibly after the step has been recorded as failed.
func (f Func) Execute(ctx context.Context) (Output, error) {
	done := make(chan funcResult, 1)
	go func() {
		summary, err := f(ctx)
		done <- funcResult{summary: summary, err: err}
	}()
	select {
	case res := <-done:
		return Output{Summary: res.summary}, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Output{}, services.Wrap(services.ErrTimeout, "func", "execute", "timed out, call abandoned", ctx.Err())
		}
		return Output{}, services.Wrap(services.ErrStep, "func", "execute", "cancelled, call abandoned", ctx.Err())
	}
}

// Fetch downloads every URL through the shared fetch client and writes the
// concatenated items to Output as one JSON array.
type Fetch struct {
	Client *fetch.Client
	URLs   []string
	Output string
}

// Execute implements Executor.
func (f Fetch) Execute(ctx context.Context) (Output, error) {
	if f.Client == nil {
		return Output{}, services.Wrap(services.ErrConfiguration, "fetch", "execute", "no client configured", nil)
	}
	if f.Output == "" {
		return Output{}, services.Wrap(services.ErrConfiguration, "fetch", "execute", "no output path configured", nil)
	}
	items, err := f.Client.FetchAll(ctx, f.URLs)
	if err != nil {
		return Output{}, err
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	if err := artifact.WriteJSON(f.Output, items); err != nil {
		return Output{}, services.Wrap(services.ErrStep, "fetch", "write artifact", f.Output, err)
	}
	return Output{Summary: fmt.Sprintf("%d records from %d urls", len(items), len(f.URLs))}, nil
}
