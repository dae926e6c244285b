package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"fischpipe/internal/artifact"
	"fischpipe/internal/config"
	"fischpipe/internal/enrich"
	"fischpipe/internal/logging"
	"fischpipe/internal/reconcile"
	"fischpipe/internal/record"
	"fischpipe/internal/schema"
	"fischpipe/internal/services"
	"fischpipe/internal/validate"
)

// Service runs the corpus stages against the configured artifact layout.
type Service struct {
	cfg    *config.Config
	schema *schema.Schema
	logger *slog.Logger
}

// LoadSchema returns the configured schema override or the built-in schema
// and logs every precedence rule still awaiting confirmation.
func LoadSchema(cfg *config.Config, logger *slog.Logger) (*schema.Schema, error) {
	var (
		sch *schema.Schema
		err error
	)
	if cfg.Enrich.SchemaPath != "" {
		sch, err = schema.LoadFile(cfg.Enrich.SchemaPath)
	} else {
		sch, err = schema.Default()
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "schema", "load", "", err)
	}
	logger = logging.NewComponentLogger(logger, "schema")
	for _, rule := range sch.PendingConfirmation() {
		logging.WarnWithContext(logger, "precedence rule pending confirmation", "precedence_unconfirmed",
			logging.String(logging.FieldEntity, rule.Kind),
			logging.String("field", rule.Field),
			logging.String("order", strings.Join(rule.Order, ",")),
			logging.String(logging.FieldImpact, "merged value follows the provisional source order"),
			logging.String(logging.FieldErrorHint, "confirm the order and drop confirm: true from the schema"),
		)
	}
	return sch, nil
}

// New builds a Service. Every configured entity kind must exist in the schema.
func New(cfg *config.Config, sch *schema.Schema, logger *slog.Logger) (*Service, error) {
	if cfg == nil || sch == nil {
		return nil, errors.New("corpus: config and schema are required")
	}
	for _, kind := range cfg.Pipeline.Entities {
		if _, ok := sch.Entity(kind); !ok {
			return nil, services.Wrap(services.ErrConfiguration, "corpus", "init",
				fmt.Sprintf("entity kind %q is not declared in the schema", kind), nil)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{cfg: cfg, schema: sch, logger: logger}, nil
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, logging.NewComponentLogger(s.logger, "corpus"))
}

func (s *Service) entity(kind string) (*schema.Entity, error) {
	entity, ok := s.schema.Entity(kind)
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", kind, "unknown entity kind", nil)
	}
	return entity, nil
}

// readRawSource loads one source's raw artifact. A missing artifact is an
// empty source.
func (s *Service) readRawSource(ctx context.Context, slot, kind string) ([]record.Raw, error) {
	path := s.cfg.RawPath(slot, kind)
	raw, skipped, err := artifact.ReadRaw(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(s.log(ctx), "raw artifact missing", "raw_missing",
			logging.String("source", s.cfg.SourceLabel(slot)),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "records from this source are absent from the merge"),
		)
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStructural, "reconcile", kind, "read "+path, err)
	}
	if skipped > 0 {
		logging.WarnWithContext(s.log(ctx), "skipped non-object raw items", "raw_items_skipped",
			logging.String("path", path),
			logging.Int("skipped", skipped),
		)
	}
	return raw, nil
}

// Reconcile merges both raw artifacts for kind and writes the canonical artifact.
func (s *Service) Reconcile(ctx context.Context, kind string) (reconcile.Result, error) {
	ctx = services.WithEntity(ctx, kind)
	entity, err := s.entity(kind)
	if err != nil {
		return reconcile.Result{}, err
	}
	rawA, err := s.readRawSource(ctx, "a", kind)
	if err != nil {
		return reconcile.Result{}, err
	}
	if err := stopped(ctx, "reconcile", kind); err != nil {
		return reconcile.Result{}, err
	}
	rawB, err := s.readRawSource(ctx, "b", kind)
	if err != nil {
		return reconcile.Result{}, err
	}

	labels := reconcile.Labels{A: s.cfg.Sources.A, B: s.cfg.Sources.B}
	res := reconcile.New(entity, labels, logging.WithContext(ctx, s.logger)).Reconcile(rawA, rawB)
	if err := stopped(ctx, "reconcile", kind); err != nil {
		return res, err
	}
	if err := artifact.WriteRecords(s.cfg.CanonicalPath(kind), res.Records); err != nil {
		return res, services.Wrap(services.ErrStep, "reconcile", kind, "write canonical artifact", err)
	}
	return res, nil
}

// Catalog returns the configured equipment catalog, or one derived from the
// canonical rods artifact. A missing rods artifact yields an empty catalog.
// Enrich treats any error as "no catalog".
func (s *Service) Catalog() (enrich.Catalog, error) {
	if s.cfg.Catalog.Path != "" {
		return enrich.LoadCatalog(s.cfg.Catalog.Path)
	}
	rods, err := artifact.ReadCanonical(s.cfg.CanonicalPath("rods"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("derive catalog from rods: %w", err)
	}
	return enrich.CatalogFromRods(rods), nil
}

// Enrich computes derived fields for kind and writes the enriched artifact.
// Hand-authored text from the previous enriched artifact is carried forward.
func (s *Service) Enrich(ctx context.Context, kind string) (enrich.Stats, error) {
	ctx = services.WithEntity(ctx, kind)
	if _, err := s.entity(kind); err != nil {
		return enrich.Stats{}, err
	}
	records, err := artifact.ReadCanonical(s.cfg.CanonicalPath(kind))
	if err != nil {
		return enrich.Stats{}, services.Wrap(services.ErrStructural, "enrich", kind, "read canonical artifact", err)
	}

	previous, err := artifact.ReadCanonical(s.cfg.EnrichedPath(kind))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(s.log(ctx), "previous enriched artifact unreadable", "previous_unreadable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "hand-authored text is not carried forward"),
		)
		previous = nil
	}

	var catalog enrich.Catalog
	if kind == "fish" {
		if catalog, err = s.Catalog(); err != nil {
			logging.WarnWithContext(s.log(ctx), "equipment catalog unavailable", "enrich_catalog_missing",
				logging.String("catalog_path", s.cfg.Catalog.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check catalog.path or the canonical rods artifact"),
				logging.String(logging.FieldImpact, "recommendedRod is null for every fish"),
			)
			catalog = nil
		}
	}

	enricher := enrich.New(enrich.Options{
		Policy: enrich.Policy{
			AlwaysKeep:      s.cfg.Enrich.AlwaysKeep,
			ConditionalKeep: s.cfg.Enrich.ConditionalKeep,
			KeepChanceBelow: s.cfg.Enrich.KeepChanceBelow,
		},
		Concurrency: s.cfg.Enrich.Concurrency,
	}, catalog, logging.WithContext(ctx, s.logger))

	out, stats, err := enricher.Enrich(ctx, kind, records, previous)
	if err != nil {
		return stats, err
	}
	if err := stopped(ctx, "enrich", kind); err != nil {
		return stats, err
	}
	if err := artifact.WriteRecords(s.cfg.EnrichedPath(kind), out); err != nil {
		return stats, services.Wrap(services.ErrStep, "enrich", kind, "write enriched artifact", err)
	}
	return stats, nil
}

// Validate checks every configured kind's enriched artifact, writes the
// health report and returns it. A missing artifact is validated as an empty
// corpus. The error is non-nil only for I/O failures.
func (s *Service) Validate(ctx context.Context) (validate.Report, error) {
	corpora := make([]validate.Corpus, 0, len(s.cfg.Pipeline.Entities))
	for _, kind := range s.cfg.Pipeline.Entities {
		if err := stopped(ctx, "validate", kind); err != nil {
			return validate.Report{}, err
		}
		entity, err := s.entity(kind)
		if err != nil {
			return validate.Report{}, err
		}
		values, err := artifact.ReadValues(s.cfg.EnrichedPath(kind))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return validate.Report{}, services.Wrap(services.ErrStructural, "validate", kind, "read enriched artifact", err)
		}
		corpora = append(corpora, validate.Corpus{Kind: kind, Entity: entity, Records: values})
	}

	validator := validate.New(validate.Options{
		CoverageFloor: s.cfg.Validation.CoverageFloor,
		RatioCeiling:  s.cfg.Validation.RatioCeiling,
	}, logging.WithContext(ctx, s.logger))
	report := validator.Validate(corpora)
	if err := stopped(ctx, "validate", "report"); err != nil {
		return report, err
	}
	if err := artifact.WriteJSON(s.cfg.HealthReportPath(), report); err != nil {
		return report, services.Wrap(services.ErrStep, "validate", "report", "write health report", err)
	}
	return report, nil
}

// stopped reports a done ctx as a stage error so no artifact is written after
// the runner has given up on the step.
func stopped(ctx context.Context, stage, operation string) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stage, operation, "deadline exceeded", err)
	default:
		return services.Wrap(services.ErrStep, stage, operation, "cancelled", err)
	}
}
