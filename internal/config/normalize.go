package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSources()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizePipeline()
	if err := c.normalizeEnrich(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("FISCHPIPE_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	derived := []struct {
		key   string
		value *string
		sub   string
	}{
		{"paths.raw_dir", &c.Paths.RawDir, "raw"},
		{"paths.canonical_dir", &c.Paths.CanonicalDir, "canonical"},
		{"paths.enriched_dir", &c.Paths.EnrichedDir, "enriched"},
		{"paths.report_dir", &c.Paths.ReportDir, "reports"},
		{"paths.state_dir", &c.Paths.StateDir, "state"},
		{"paths.log_dir", &c.Paths.LogDir, "logs"},
	}
	for _, d := range derived {
		if strings.TrimSpace(*d.value) == "" {
			*d.value = filepath.Join(c.Paths.DataDir, d.sub)
		}
		if *d.value, err = expandPath(*d.value); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.StateDir, "fischpipe.db")
	}
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSources() {
	c.Sources.A = strings.ToLower(strings.TrimSpace(c.Sources.A))
	c.Sources.B = strings.ToLower(strings.TrimSpace(c.Sources.B))
	if c.Sources.A == "" {
		c.Sources.A = defaultSourceA
	}
	if c.Sources.B == "" {
		c.Sources.B = defaultSourceB
	}
}

func (c *Config) normalizeCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = ""
		return nil
	}
	var err error
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeEnrich() error {
	if c.Enrich.Concurrency <= 0 {
		c.Enrich.Concurrency = defaultEnrichWorkers
	}
	if c.Enrich.KeepChanceBelow <= 0 {
		c.Enrich.KeepChanceBelow = defaultKeepChanceBelow
	}
	c.Enrich.AlwaysKeep = trimList(c.Enrich.AlwaysKeep)
	c.Enrich.ConditionalKeep = trimList(c.Enrich.ConditionalKeep)
	if strings.TrimSpace(c.Enrich.SchemaPath) == "" {
		c.Enrich.SchemaPath = ""
		return nil
	}
	var err error
	if c.Enrich.SchemaPath, err = expandPath(c.Enrich.SchemaPath); err != nil {
		return fmt.Errorf("enrich.schema_path: %w", err)
	}
	return nil
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Config) normalizeFetch() {
	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = defaultFetchConcurrency
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	if c.Fetch.RetryAttempts <= 0 {
		c.Fetch.RetryAttempts = 1
	}
	if c.Fetch.RetryBaseMS < 0 {
		c.Fetch.RetryBaseMS = defaultFetchRetryBaseMS
	}
	if c.Fetch.RetryMaxMS <= 0 {
		c.Fetch.RetryMaxMS = defaultFetchRetryMaxMS
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizePipeline() {
	if len(c.Pipeline.Entities) == 0 {
		c.Pipeline.Entities = append([]string(nil), DefaultEntities...)
	} else {
		entities := make([]string, 0, len(c.Pipeline.Entities))
		seen := make(map[string]struct{}, len(c.Pipeline.Entities))
		for _, entity := range c.Pipeline.Entities {
			normalized := strings.ToLower(strings.TrimSpace(entity))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			entities = append(entities, normalized)
		}
		c.Pipeline.Entities = entities
	}
	if c.Pipeline.StepTimeoutSeconds <= 0 {
		c.Pipeline.StepTimeoutSeconds = defaultStepTimeoutSeconds
	}
	if c.Pipeline.TailBytes <= 0 {
		c.Pipeline.TailBytes = defaultTailBytes
	}
	if c.Pipeline.BatchSize < 0 {
		c.Pipeline.BatchSize = 0
	}
	for i := range c.Pipeline.Adapters {
		a := &c.Pipeline.Adapters[i]
		a.Name = strings.TrimSpace(a.Name)
		a.Entity = strings.ToLower(strings.TrimSpace(a.Entity))
		a.Source = strings.ToLower(strings.TrimSpace(a.Source))
		a.ProbeURL = strings.TrimSpace(a.ProbeURL)
		a.DependsOn = strings.TrimSpace(a.DependsOn)
		urls := a.URLs[:0]
		for _, u := range a.URLs {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		a.URLs = urls
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
