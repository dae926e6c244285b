package enrich

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"fischpipe/internal/logging"
	"fischpipe/internal/record"
	"fischpipe/internal/textutil"
)

// Derived field names.
const (
	FieldDifficulty     = "difficulty"
	FieldRecommendedRod = "recommendedRod"
	FieldValuePerHour   = "estimatedValuePerHour"
	FieldRecommendation = "recommendation"
	FieldFormattedValue = "formattedValue"
	FieldDescription    = "description"
	FieldHowToCatch     = "howToCatch"
)

const defaultConcurrency = 8

// Options configures an Enricher.
type Options struct {
	Policy      Policy
	Concurrency int
}

// Enricher computes derived fields.
type Enricher struct {
	opts    Options
	catalog Catalog
	logger  *slog.Logger
}

// New builds an enricher. A nil or empty catalog nulls recommendedRod only.
func New(opts Options, catalog Catalog, logger *slog.Logger) *Enricher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Enricher{
		opts:    opts,
		catalog: catalog,
		logger:  logging.NewComponentLogger(logger, "enrich"),
	}
}

// Stats summarizes one enrichment pass.
type Stats struct {
	Records        int            `json:"records"`
	Generated      int            `json:"generated"`
	HandAuthored   int            `json:"handAuthored"`
	CarriedForward int            `json:"carriedForward"`
	NullFields     map[string]int `json:"nullFields"`
}

type textOutcome int

const (
	textNone textOutcome = iota
	textGenerated
	textHandAuthored
	textCarried
)

type outcome struct {
	text  []textOutcome
	nulls []string
}

// Enrich returns enriched copies of records in input order. previous is the
// last enriched artifact of the same kind and may be nil; hand-authored text
// found there is carried forward by id. The only error is context
// cancellation.
func (e *Enricher) Enrich(ctx context.Context, kind string, records, previous []record.Canonical) ([]record.Canonical, Stats, error) {
	prevByID := make(map[string]*record.Canonical, len(previous))
	for i := range previous {
		if previous[i].ID != "" {
			prevByID[previous[i].ID] = &previous[i]
		}
	}

	out := make([]record.Canonical, len(records))
	outcomes := make([]outcome, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], outcomes[i] = e.enrichOne(kind, records[i], prevByID[records[i].ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Records: len(records), NullFields: map[string]int{}}
	for _, o := range outcomes {
		for _, t := range o.text {
			switch t {
			case textGenerated:
				stats.Generated++
			case textHandAuthored:
				stats.HandAuthored++
			case textCarried:
				stats.CarriedForward++
			}
		}
		for _, field := range o.nulls {
			stats.NullFields[field]++
		}
	}

	e.logger.Info("enriched corpus",
		logging.String(logging.FieldEntity, kind),
		logging.Int("records", stats.Records),
		logging.Int("generated_text", stats.Generated),
		logging.Int("hand_authored_text", stats.HandAuthored),
		logging.Int("carried_forward_text", stats.CarriedForward),
	)
	if kind == "fish" && len(e.catalog) == 0 && len(records) > 0 {
		logging.WarnWithContext(e.logger, "no equipment catalog available", "enrich_catalog_missing",
			logging.String(logging.FieldEntity, kind),
			logging.String(logging.FieldErrorHint, "configure catalog.path or make sure the rods corpus has resilience values"),
			logging.String(logging.FieldImpact, "recommendedRod is null for every fish"),
		)
	}
	return out, stats, nil
}

func (e *Enricher) enrichOne(kind string, rec record.Canonical, prev *record.Canonical) (record.Canonical, outcome) {
	c := rec.Clone()
	var o outcome
	set := func(field string, v record.Value) {
		if v.IsNull() {
			o.nulls = append(o.nulls, field)
		}
		c.Set(field, v)
	}
	text := func(field string, generate func() string) {
		result := applyText(&c, field, prev, generate)
		if result == textNone {
			o.nulls = append(o.nulls, field)
		}
		o.text = append(o.text, result)
	}

	switch kind {
	case "fish":
		fish := record.FishFrom(c)
		facts := fishFacts{
			fish:           fish,
			rod:            record.Map(e.catalog.Recommend(fish.Resilience), func(item CatalogItem) string { return item.Name }),
			difficulty:     Difficulty(fish),
			recommendation: e.opts.Policy.Recommend(fish),
			perHour:        record.Map(ValuePerHour(fish), round2),
		}
		set(FieldDifficulty, record.String(facts.difficulty))
		set(FieldRecommendedRod, optString(facts.rod))
		set(FieldValuePerHour, record.FromOpt(facts.perHour))
		set(FieldRecommendation, record.String(facts.recommendation))
		set(FieldFormattedValue, optString(FormattedValue(fish)))
		text(FieldDescription, facts.description)
		text(FieldHowToCatch, facts.howToCatch)
	case "rods":
		rod := record.RodFrom(c)
		set(FieldFormattedValue, optString(record.Map(rod.Price, textutil.FormatCompact)))
		text(FieldDescription, func() string { return rodDescription(rod) })
	case "mutations":
		m := record.MutationFrom(c)
		set(FieldFormattedValue, optString(record.Map(m.Multiplier, func(v float64) string {
			return textutil.FormatCompact(v) + "x"
		})))
		text(FieldDescription, func() string { return mutationDescription(m) })
	case "locations":
		l := record.LocationFrom(c)
		text(FieldDescription, func() string { return locationDescription(l) })
	}
	return c, o
}

// applyText keeps hand-authored text, then carries forward hand-authored text
// from the previous artifact, then generates.
func applyText(c *record.Canonical, field string, prev *record.Canonical, generate func() string) textOutcome {
	if t, ok := record.TextFrom(c.Get(field)).Get(); ok && !t.IsGenerated {
		c.Set(field, t.Value())
		return textHandAuthored
	}
	if prev != nil {
		if t, ok := record.TextFrom(prev.Get(field)).Get(); ok && !t.IsGenerated {
			c.Set(field, t.Value())
			return textCarried
		}
	}
	generated := generate()
	if generated == "" {
		c.Set(field, record.Null())
		return textNone
	}
	c.Set(field, record.Text{Text: generated, IsGenerated: true}.Value())
	return textGenerated
}

func optString(o record.Opt[string]) record.Value {
	if s, ok := o.Get(); ok {
		return record.String(s)
	}
	return record.Null()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
