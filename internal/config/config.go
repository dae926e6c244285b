package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the artifact directory layout.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	RawDir       string `toml:"raw_dir"`
	CanonicalDir string `toml:"canonical_dir"`
	EnrichedDir  string `toml:"enriched_dir"`
	ReportDir    string `toml:"report_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Sources names the two scraped sources. A and B are the slots referenced by
// the entity schema precedence tables; the labels end up as dataSource keys.
type Sources struct {
	A string `toml:"a"`
	B string `toml:"b"`
}

// Catalog configures the reference equipment catalog used by the enricher.
// When Path is empty the catalog is derived from the canonical rods corpus.
type Catalog struct {
	Path string `toml:"path"`
}

// Fetch contains outbound HTTP settings shared by fetch adapters and probes.
type Fetch struct {
	Concurrency    int     `toml:"concurrency"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RetryAttempts  int     `toml:"retry_attempts"`
	RetryBaseMS    int     `toml:"retry_base_ms"`
	RetryMaxMS     int     `toml:"retry_max_ms"`
	RatePerSecond  float64 `toml:"rate_per_second"`
	UserAgent      string  `toml:"user_agent"`
}

// Adapter declares one external source adapter step. Exactly one of Command
// or URLs must be set.
type Adapter struct {
	Name           string   `toml:"name"`
	Entity         string   `toml:"entity"`
	Source         string   `toml:"source"` // "a" or "b"
	Command        []string `toml:"command"`
	URLs           []string `toml:"urls"`
	ProbeURL       string   `toml:"probe_url"`
	DependsOn      string   `toml:"depends_on"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Pipeline contains orchestrator settings.
type Pipeline struct {
	Entities           []string  `toml:"entities"`
	StepTimeoutSeconds int       `toml:"step_timeout_seconds"`
	TailBytes          int       `toml:"tail_bytes"`
	BatchSize          int       `toml:"batch_size"`
	Publish            bool      `toml:"publish"`
	PublishCommand     []string  `toml:"publish_command"`
	Adapters           []Adapter `toml:"adapters"`
}

// Enrich configures derived-field computation.
type Enrich struct {
	Concurrency     int      `toml:"concurrency"`
	AlwaysKeep      []string `toml:"always_keep"`
	ConditionalKeep []string `toml:"conditional_keep"`
	KeepChanceBelow float64  `toml:"keep_chance_below"`
	SchemaPath      string   `toml:"schema_path"`
}

// Validation contains validator thresholds.
type Validation struct {
	CoverageFloor float64 `toml:"coverage_floor"`
	RatioCeiling  float64 `toml:"ratio_ceiling"`
}

// Store configures the sqlite database holding run history and the published corpus.
type Store struct {
	Path string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fischpipe.
//
// Configuration sections by subsystem:
//   - Paths: artifact directories (raw, canonical, enriched, reports, state)
//   - Sources: labels of the two scraped sources
//   - Catalog: reference equipment catalog for rod recommendations
//   - Fetch: outbound HTTP concurrency, retries and rate limits
//   - Pipeline: entity kinds, adapters, step timeouts, batching and publishing
//   - Enrich: keep/sell policy, worker count and entity schema override
//   - Validation: coverage floor and ratio ceiling
//   - Store: sqlite path for run history and published corpus
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Sources    Sources    `toml:"sources"`
	Catalog    Catalog    `toml:"catalog"`
	Fetch      Fetch      `toml:"fetch"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Enrich     Enrich     `toml:"enrich"`
	Validation Validation `toml:"validation"`
	Store      Store      `toml:"store"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fischpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fischpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the artifact directory tree.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.RawDir,
		c.Paths.CanonicalDir,
		c.Paths.EnrichedDir,
		c.Paths.ReportDir,
		c.Paths.StateDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SourceLabel returns the configured label for a source slot ("a" or "b").
func (c *Config) SourceLabel(slot string) string {
	switch strings.ToLower(strings.TrimSpace(slot)) {
	case "a":
		return c.Sources.A
	case "b":
		return c.Sources.B
	default:
		return ""
	}
}

// RawPath is the artifact a source adapter writes for one entity kind.
func (c *Config) RawPath(slot, entity string) string {
	return filepath.Join(c.Paths.RawDir, c.SourceLabel(slot), entity+".json")
}

// CanonicalPath is the reconciled artifact for one entity kind.
func (c *Config) CanonicalPath(entity string) string {
	return filepath.Join(c.Paths.CanonicalDir, entity+".json")
}

// EnrichedPath is the enriched artifact for one entity kind.
func (c *Config) EnrichedPath(entity string) string {
	return filepath.Join(c.Paths.EnrichedDir, entity+".json")
}

// HealthReportPath is the validator report artifact.
func (c *Config) HealthReportPath() string {
	return filepath.Join(c.Paths.ReportDir, "health.json")
}

// RunLogPath is the orchestrator run log artifact.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.ReportDir, "pipeline-run.json")
}

// ResumePointerPath is the batched adapter resume pointer artifact.
func (c *Config) ResumePointerPath() string {
	return filepath.Join(c.Paths.StateDir, "resume.json")
}

// LockPath guards against concurrent pipeline runs over the same data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "fischpipe.lock")
}

// StepTimeout returns the timeout for an adapter, falling back to the pipeline default.
func (c *Config) StepTimeout(adapter *Adapter) time.Duration {
	if adapter != nil && adapter.TimeoutSeconds > 0 {
		return time.Duration(adapter.TimeoutSeconds) * time.Second
	}
	return time.Duration(c.Pipeline.StepTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
