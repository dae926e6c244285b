package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateEnrich(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSources() error {
	if c.Sources.A == c.Sources.B {
		return fmt.Errorf("sources.a and sources.b must differ (both %q)", c.Sources.A)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.Concurrency > 64 {
		return errors.New("fetch.concurrency must be at most 64")
	}
	if c.Fetch.RatePerSecond < 0 {
		return errors.New("fetch.rate_per_second must be zero (unlimited) or positive")
	}
	if c.Fetch.RetryBaseMS > c.Fetch.RetryMaxMS {
		return errors.New("fetch.retry_base_ms must not exceed fetch.retry_max_ms")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if len(c.Pipeline.Entities) == 0 {
		return errors.New("pipeline.entities must list at least one entity kind")
	}
	seen := make(map[string]struct{}, len(c.Pipeline.Adapters))
	for i, a := range c.Pipeline.Adapters {
		label := fmt.Sprintf("pipeline.adapters[%d]", i)
		if a.Name == "" {
			return fmt.Errorf("%s.name is required", label)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%s.name %q is duplicated", label, a.Name)
		}
		if a.DependsOn != "" {
			if _, ok := seen[a.DependsOn]; !ok {
				return fmt.Errorf("%s.depends_on %q must name an earlier adapter", label, a.DependsOn)
			}
		}
		seen[a.Name] = struct{}{}
		if !slices.Contains(c.Pipeline.Entities, a.Entity) {
			return fmt.Errorf("%s.entity %q is not listed in pipeline.entities", label, a.Entity)
		}
		if a.Source != "a" && a.Source != "b" {
			return fmt.Errorf("%s.source must be \"a\" or \"b\", got %q", label, a.Source)
		}
		hasCommand := len(a.Command) > 0
		hasURLs := len(a.URLs) > 0
		if hasCommand == hasURLs {
			return fmt.Errorf("%s must set exactly one of command or urls", label)
		}
		for _, raw := range append(append([]string{}, a.URLs...), a.ProbeURL) {
			if raw == "" {
				continue
			}
			if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("%s: invalid url %q", label, raw)
			}
		}
	}
	return nil
}

func (c *Config) validateEnrich() error {
	if c.Enrich.Concurrency > 64 {
		return errors.New("enrich.concurrency must be at most 64")
	}
	for _, rarity := range c.Enrich.ConditionalKeep {
		if slices.Contains(c.Enrich.AlwaysKeep, rarity) {
			return fmt.Errorf("enrich: rarity %q is listed in both always_keep and conditional_keep", rarity)
		}
	}
	return nil
}

func (c *Config) validateValidation() error {
	if c.Validation.CoverageFloor < 0 || c.Validation.CoverageFloor > 100 {
		return errors.New("validation.coverage_floor must be between 0 and 100")
	}
	if c.Validation.RatioCeiling <= 0 {
		return errors.New("validation.ratio_ceiling must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
