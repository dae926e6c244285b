package preflight

import (
	"context"

	"fischpipe/internal/config"
	"fischpipe/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every applicable check for the given config: artifact
// directories, the catalog file when one is configured, adapter and publish
// executables, and adapter probe URLs.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, dir := range []struct{ name, path string }{
		{"Data directory", cfg.Paths.DataDir},
		{"Raw directory", cfg.Paths.RawDir},
		{"Canonical directory", cfg.Paths.CanonicalDir},
		{"Enriched directory", cfg.Paths.EnrichedDir},
		{"Report directory", cfg.Paths.ReportDir},
		{"State directory", cfg.Paths.StateDir},
	} {
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}

	if cfg.Catalog.Path != "" {
		results = append(results, CheckFile("Equipment catalog", cfg.Catalog.Path))
	}

	for _, status := range deps.CheckBinaries(deps.FromConfig(cfg)) {
		results = append(results, fromStatus(status))
	}

	for _, adapter := range cfg.Pipeline.Adapters {
		if adapter.ProbeURL == "" {
			continue
		}
		results = append(results, CheckHTTP(ctx, "Probe "+adapter.Name, adapter.ProbeURL, cfg.Fetch.UserAgent))
	}
	return results
}

func fromStatus(status deps.Status) Result {
	name := "Executable " + status.Name
	if status.Available {
		return Result{Name: name, Passed: true, Detail: status.Path + " (" + status.Description + ")"}
	}
	return Result{Name: name, Passed: status.Optional, Detail: status.Detail + " (" + status.Description + ")"}
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
