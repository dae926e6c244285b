package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fischpipe/internal/artifact"
	"fischpipe/internal/config"
	"fischpipe/internal/fetch"
	"fischpipe/internal/pipeline"
	"fischpipe/internal/preflight"
	"fischpipe/internal/services"
	"fischpipe/internal/store"
)

// NewFetchClient builds the shared HTTP client from the fetch config section.
func NewFetchClient(cfg *config.Config, s *Service) *fetch.Client {
	return fetch.NewClient(
		fetch.Config{
			Timeout:       time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
			UserAgent:     cfg.Fetch.UserAgent,
			Concurrency:   cfg.Fetch.Concurrency,
			RatePerSecond: cfg.Fetch.RatePerSecond,
		},
		fetch.WithRetryMaxAttempts(cfg.Fetch.RetryAttempts),
		fetch.WithRetryBackoff(
			time.Duration(cfg.Fetch.RetryBaseMS)*time.Millisecond,
			time.Duration(cfg.Fetch.RetryMaxMS)*time.Millisecond,
		),
		fetch.WithLogger(s.logger),
	)
}

// Steps assembles the default step list: one step per configured adapter,
// then reconcile-<kind> for every kind, enrich-<kind> for every kind, and a
// final validate step. Every kind is reconciled before any is enriched so
// the rods catalog is available to the fish enricher.
func (s *Service) Steps(client *fetch.Client) []pipeline.Step {
	cfg := s.cfg
	steps := make([]pipeline.Step, 0, len(cfg.Pipeline.Adapters)+2*len(cfg.Pipeline.Entities)+1)

	for i := range cfg.Pipeline.Adapters {
		adapter := cfg.Pipeline.Adapters[i]
		steps = append(steps, s.adapterStep(&adapter, client))
	}

	for _, kind := range cfg.Pipeline.Entities {
		steps = append(steps, pipeline.Step{
			Name:     "reconcile-" + kind,
			Output:   cfg.CanonicalPath(kind),
			Timeout:  cfg.StepTimeout(nil),
			PreCheck: s.rawAvailable(kind),
			Executor: pipeline.Func(func(ctx context.Context) (string, error) {
				res, err := s.Reconcile(ctx, kind)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d records (%s only %d, %s only %d, both %d); %d dropped, %d duplicates, %d coerced",
					len(res.Records), cfg.Sources.A, res.OnlyA, cfg.Sources.B, res.OnlyB, res.Both,
					len(res.Dropped), len(res.Duplicates), len(res.Coerced)), nil
			}),
		})
	}

	for _, kind := range cfg.Pipeline.Entities {
		steps = append(steps, pipeline.Step{
			Name:      "enrich-" + kind,
			Output:    cfg.EnrichedPath(kind),
			DependsOn: "reconcile-" + kind,
			Timeout:   cfg.StepTimeout(nil),
			Executor: pipeline.Func(func(ctx context.Context) (string, error) {
				stats, err := s.Enrich(ctx, kind)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d records, %d generated texts, %d hand-authored, %d carried forward",
					stats.Records, stats.Generated, stats.HandAuthored, stats.CarriedForward), nil
			}),
		})
	}

	steps = append(steps, pipeline.Step{
		Name:     "validate",
		Output:   cfg.HealthReportPath(),
		Timeout:  cfg.StepTimeout(nil),
		PreCheck: s.enrichedAvailable(),
		Executor: pipeline.Func(func(ctx context.Context) (string, error) {
			report, err := s.Validate(ctx)
			if err != nil {
				return "", err
			}
			summary := fmt.Sprintf("score %.2f (%s), %d errors, %d warnings",
				report.Health.Score, report.Health.Grade, report.Health.TotalErrors, report.Health.TotalWarnings)
			if report.ExitCode() != 0 {
				return summary, services.Wrap(services.ErrStructural, "validate", "", summary, nil)
			}
			return summary, nil
		}),
	})
	return steps
}

func (s *Service) adapterStep(adapter *config.Adapter, client *fetch.Client) pipeline.Step {
	cfg := s.cfg
	output := cfg.RawPath(adapter.Source, adapter.Entity)
	step := pipeline.Step{
		Name:      adapter.Name,
		Output:    output,
		DependsOn: adapter.DependsOn,
		Timeout:   cfg.StepTimeout(adapter),
		Adapter:   true,
	}
	if adapter.ProbeURL != "" {
		probe := adapter.ProbeURL
		step.PreCheck = func(ctx context.Context) error {
			return client.Probe(ctx, probe)
		}
	}
	if len(adapter.URLs) > 0 {
		step.Executor = pipeline.Fetch{Client: client, URLs: adapter.URLs, Output: output}
		return step
	}
	step.Executor = pipeline.Command{
		Args:      adapter.Command,
		Env:       []string{"FISCHPIPE_OUTPUT=" + output, "FISCHPIPE_ENTITY=" + adapter.Entity},
		TailBytes: cfg.Pipeline.TailBytes,
	}
	return step
}

func (s *Service) rawAvailable(kind string) pipeline.PreCheck {
	return func(context.Context) error {
		a, b := s.cfg.RawPath("a", kind), s.cfg.RawPath("b", kind)
		if artifact.Exists(a) || artifact.Exists(b) {
			return nil
		}
		return fmt.Errorf("no raw artifact at %s or %s", a, b)
	}
}

func (s *Service) enrichedAvailable() pipeline.PreCheck {
	return func(context.Context) error {
		for _, kind := range s.cfg.Pipeline.Entities {
			if artifact.Exists(s.cfg.EnrichedPath(kind)) {
				return nil
			}
		}
		return errors.New("no enriched artifacts")
	}
}

// Publisher loads every enriched artifact into the store and then runs the
// configured publish command, if any.
type Publisher struct {
	service *Service
	store   *store.Store
	command []string
}

// Execute implements pipeline.Executor.
func (p *Publisher) Execute(ctx context.Context) (pipeline.Output, error) {
	cfg := p.service.cfg
	runID, _ := services.RunIDFromContext(ctx)
	parts := make([]string, 0, len(cfg.Pipeline.Entities))
	for _, kind := range cfg.Pipeline.Entities {
		path := cfg.EnrichedPath(kind)
		if !artifact.Exists(path) {
			// Nothing enriched this run; the stored corpus for kind stays as is.
			parts = append(parts, kind+" unchanged")
			continue
		}
		records, err := artifact.ReadCanonical(path)
		if err != nil {
			return pipeline.Output{}, services.Wrap(services.ErrStep, "publish", kind, "read enriched artifact", err)
		}
		n, err := p.store.PublishCorpus(ctx, kind, runID, records)
		if err != nil {
			return pipeline.Output{}, services.Wrap(services.ErrStep, "publish", kind, "store corpus", err)
		}
		parts = append(parts, fmt.Sprintf("%s %d", kind, n))
	}
	summary := "published " + strings.Join(parts, ", ")
	if len(p.command) == 0 {
		return pipeline.Output{Summary: summary}, nil
	}
	out, err := pipeline.Command{Args: p.command, TailBytes: cfg.Pipeline.TailBytes}.Execute(ctx)
	out.Summary = summary
	return out, err
}

// Runner builds the pipeline runner with the configured persistence paths,
// history store and publish hook. st may be nil to disable history and
// publishing.
func (s *Service) Runner(client *fetch.Client, st *store.Store) (*pipeline.Runner, error) {
	cfg := s.cfg
	opts := pipeline.Options{
		RunLogPath:     cfg.RunLogPath(),
		ResumePath:     cfg.ResumePointerPath(),
		LockPath:       cfg.LockPath(),
		BatchSize:      cfg.Pipeline.BatchSize,
		PublishTimeout: cfg.StepTimeout(nil),
	}
	if st != nil {
		opts.Recorder = st
		if cfg.Pipeline.Publish {
			opts.Publish = &Publisher{service: s, store: st, command: cfg.Pipeline.PublishCommand}
		}
	}
	return pipeline.New(s.Steps(client), opts, s.logger)
}

// Check runs the preflight checks for this configuration.
func (s *Service) Check(ctx context.Context) []preflight.Result {
	return preflight.RunAll(ctx, s.cfg)
}
