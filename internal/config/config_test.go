package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"fischpipe/internal/config"
)

func TestLoadDefaultConfigDerivesArtifactPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("FISCHPIPE_DATA_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "fischpipe")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.RawDir != filepath.Join(wantData, "raw") {
		t.Fatalf("unexpected raw dir: %q", cfg.Paths.RawDir)
	}
	if cfg.Store.Path != filepath.Join(wantData, "state", "fischpipe.db") {
		t.Fatalf("unexpected store path: %q", cfg.Store.Path)
	}
	if got := cfg.RawPath("a", "fish"); got != filepath.Join(wantData, "raw", "wiki", "fish.json") {
		t.Fatalf("unexpected raw path: %q", got)
	}
	if got := cfg.RawPath("b", "rods"); got != filepath.Join(wantData, "raw", "fischipedia", "rods.json") {
		t.Fatalf("unexpected raw path: %q", got)
	}
	if len(cfg.Pipeline.Entities) != 4 {
		t.Fatalf("expected default entities, got %v", cfg.Pipeline.Entities)
	}
	if !cfg.Pipeline.Publish {
		t.Fatal("expected publish enabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.RawDir, cfg.Paths.CanonicalDir, cfg.Paths.EnrichedDir, cfg.Paths.ReportDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "fischpipe.toml")

	type adapter struct {
		Name    string   `toml:"name"`
		Entity  string   `toml:"entity"`
		Source  string   `toml:"source"`
		Command []string `toml:"command"`
	}
	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Sources struct {
			A string `toml:"a"`
			B string `toml:"b"`
		} `toml:"sources"`
		Pipeline struct {
			Entities []string  `toml:"entities"`
			Adapters []adapter `toml:"adapters"`
		} `toml:"pipeline"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Sources.A = " Wiki "
	custom.Sources.B = "API"
	custom.Pipeline.Entities = []string{"Fish", "fish", "rods"}
	custom.Pipeline.Adapters = []adapter{{Name: "wiki-fish", Entity: "FISH", Source: "A", Command: []string{"true"}}}

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Sources.A != "wiki" || cfg.Sources.B != "api" {
		t.Fatalf("expected normalized source labels, got %+v", cfg.Sources)
	}
	if strings.Join(cfg.Pipeline.Entities, ",") != "fish,rods" {
		t.Fatalf("expected deduplicated entities, got %v", cfg.Pipeline.Entities)
	}
	if cfg.Pipeline.Adapters[0].Entity != "fish" || cfg.Pipeline.Adapters[0].Source != "a" {
		t.Fatalf("expected normalized adapter, got %+v", cfg.Pipeline.Adapters[0])
	}
	if cfg.Paths.CanonicalDir != filepath.Join(tempDir, "data", "canonical") {
		t.Fatalf("unexpected canonical dir: %q", cfg.Paths.CanonicalDir)
	}
}

func TestValidateRejectsBadAdapters(t *testing.T) {
	tests := []struct {
		name    string
		adapter config.Adapter
		want    string
	}{
		{"missing name", config.Adapter{Entity: "fish", Source: "a", Command: []string{"x"}}, "name is required"},
		{"unknown entity", config.Adapter{Name: "x", Entity: "boats", Source: "a", Command: []string{"x"}}, "not listed"},
		{"bad source", config.Adapter{Name: "x", Entity: "fish", Source: "c", Command: []string{"x"}}, "source must be"},
		{"both executors", config.Adapter{Name: "x", Entity: "fish", Source: "a", Command: []string{"x"}, URLs: []string{"https://a.test"}}, "exactly one"},
		{"bad url", config.Adapter{Name: "x", Entity: "fish", Source: "a", URLs: []string{"not a url"}}, "invalid url"},
		{"forward dependency", config.Adapter{Name: "x", Entity: "fish", Source: "a", Command: []string{"x"}, DependsOn: "later"}, "earlier adapter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Pipeline.Adapters = []config.Adapter{tt.adapter}
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidateRejectsIdenticalSources(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.B = cfg.Sources.A
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected identical sources to be rejected")
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Pipeline.Adapters) != 2 {
		t.Fatalf("expected 2 sample adapters, got %d", len(cfg.Pipeline.Adapters))
	}
	if cfg.Enrich.KeepChanceBelow != 5 || len(cfg.Enrich.AlwaysKeep) == 0 {
		t.Fatalf("unexpected enrich section %+v", cfg.Enrich)
	}
}

func TestValidateRejectsOverlappingKeepPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Enrich.ConditionalKeep = append(cfg.Enrich.ConditionalKeep, cfg.Enrich.AlwaysKeep[0])
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected overlapping keep tiers to be rejected")
	}
}
