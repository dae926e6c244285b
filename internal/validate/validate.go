package validate

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"fischpipe/internal/logging"
	"fischpipe/internal/record"
	"fischpipe/internal/schema"
)

// Options holds validator thresholds.
type Options struct {
	// CoverageFloor is the percentage below which a field's coverage is warned about.
	CoverageFloor float64
	// RatioCeiling is the largest plausible value for ratio fields.
	RatioCeiling float64
}

// Coverage counts how many records fill a field.
type Coverage struct {
	Filled int     `json:"filled"`
	Total  int     `json:"total"`
	Pct    float64 `json:"pct"`
}

// EntityReport is the result for one entity kind.
type EntityReport struct {
	Records       int                 `json:"records"`
	Errors        []Issue             `json:"errors"`
	Warnings      []Issue             `json:"warnings"`
	FieldCoverage map[string]Coverage `json:"fieldCoverage"`
}

// Health is the aggregate score across every validated kind.
type Health struct {
	Score         float64 `json:"score"`
	Grade         string  `json:"grade"`
	CoveragePct   float64 `json:"coveragePct"`
	TotalErrors   int     `json:"totalErrors"`
	TotalWarnings int     `json:"totalWarnings"`
}

// Report is the persisted health report.
type Report struct {
	GeneratedAt time.Time               `json:"generatedAt"`
	Entities    map[string]EntityReport `json:"entities"`
	Health      Health                  `json:"health"`
}

// ExitCode is 1 when any structural error exists, otherwise 0.
func (r Report) ExitCode() int {
	if r.Health.TotalErrors > 0 {
		return 1
	}
	return 0
}

// Corpus is one decoded artifact with its schema.
type Corpus struct {
	Kind    string
	Entity  *schema.Entity
	Records []any
}

// Validator checks corpora.
type Validator struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New builds a validator.
func New(opts Options, logger *slog.Logger) *Validator {
	return &Validator{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "validate"),
		now:    time.Now,
	}
}

// Validate checks every corpus and aggregates the health score.
func (v *Validator) Validate(corpora []Corpus) Report {
	report := Report{
		GeneratedAt: v.now().UTC(),
		Entities:    make(map[string]EntityReport, len(corpora)),
	}
	for _, c := range corpora {
		report.Entities[c.Kind] = v.ValidateEntity(c.Entity, c.Records)
	}
	report.Health = Score(report.Entities)

	v.logger.Info("validated corpus",
		logging.Float64("score", report.Health.Score),
		logging.String("grade", report.Health.Grade),
		logging.Float64("coverage_pct", report.Health.CoveragePct),
		logging.Int("errors", report.Health.TotalErrors),
		logging.Int("warnings", report.Health.TotalWarnings),
	)
	if report.Health.TotalErrors > 0 {
		logging.ErrorWithContext(v.logger, "structural errors found", "validation_failed",
			logging.Int("errors", report.Health.TotalErrors),
			logging.String(logging.FieldErrorHint, "inspect the health report for failing records"),
		)
	}
	return report
}

// ValidateEntity checks one decoded artifact. Records are the elements of the
// artifact as decoded by encoding/json into any.
func (v *Validator) ValidateEntity(entity *schema.Entity, records []any) EntityReport {
	rep := EntityReport{
		Records:       len(records),
		Errors:        []Issue{},
		Warnings:      []Issue{},
		FieldCoverage: make(map[string]Coverage, len(entity.Fields)),
	}
	filled := make(map[string]int, len(entity.Fields))
	seenIDs := make(map[string]int, len(records))

	for i, item := range records {
		obj, ok := item.(map[string]any)
		if !ok {
			rep.Errors = append(rep.Errors, structural(CodeNotObject, i, "", "", fmt.Sprintf("element is %T, not an object", item)))
			continue
		}
		id, _ := obj["id"].(string)

		for _, field := range entity.Required {
			if !isFilled(obj[field]) {
				rep.Errors = append(rep.Errors, structural(CodeMissingRequired, i, id, field, "required field is missing or empty"))
			}
		}

		if id != "" {
			if first, dup := seenIDs[id]; dup {
				rep.Errors = append(rep.Errors, structural(CodeDuplicateID, i, id, "id", fmt.Sprintf("id already used by record %d", first)))
			} else {
				seenIDs[id] = i
			}
		}

		numbers := make(map[string]float64, len(entity.Numeric))
		for _, field := range entity.Numeric {
			raw, present := obj[field]
			if !present || raw == nil {
				continue
			}
			n, ok := finiteNumber(raw)
			if !ok {
				rep.Errors = append(rep.Errors, structural(CodeTypeMismatch, i, id, field, fmt.Sprintf("expected a finite number, got %s", describe(raw))))
				continue
			}
			numbers[field] = n
		}

		for _, r := range entity.Ranges {
			lo, okLo := numbers[r.Min]
			hi, okHi := numbers[r.Max]
			if okLo && okHi && lo > hi {
				rep.Errors = append(rep.Errors, structural(CodeRangeInverted, i, id, r.Min, fmt.Sprintf("%s %v exceeds %s %v", r.Min, lo, r.Max, hi)))
			}
		}

		if !hasSource(obj["dataSource"]) {
			rep.Errors = append(rep.Errors, structural(CodeNoSource, i, id, "dataSource", "no source flag is true"))
		}

		for _, field := range entity.Magnitude {
			n, ok := numbers[field]
			switch {
			case !ok:
			case n == 0:
				rep.Warnings = append(rep.Warnings, warning(CodeZeroValue, i, id, field, "value is zero"))
			case n < 0:
				rep.Warnings = append(rep.Warnings, warning(CodeNegativeValue, i, id, field, fmt.Sprintf("value %v is negative", n)))
			}
		}
		for _, field := range entity.Ratio {
			if n, ok := numbers[field]; ok && n > v.opts.RatioCeiling {
				rep.Warnings = append(rep.Warnings, warning(CodeImplausibleRatio, i, id, field, fmt.Sprintf("ratio %v exceeds ceiling %v", n, v.opts.RatioCeiling)))
			}
		}

		for _, field := range entity.Fields {
			if isFilled(obj[field]) {
				filled[field]++
			}
		}
	}

	if len(records) == 0 {
		rep.Warnings = append(rep.Warnings, warning(CodeEmptyCorpus, -1, "", "", "corpus has no records"))
		return rep
	}

	for _, field := range entity.Fields {
		cov := Coverage{Filled: filled[field], Total: len(records)}
		cov.Pct = round2(float64(cov.Filled) / float64(cov.Total) * 100)
		rep.FieldCoverage[field] = cov
		if cov.Pct < v.opts.CoverageFloor {
			rep.Warnings = append(rep.Warnings, warning(CodeLowCoverage, -1, "", field,
				fmt.Sprintf("coverage %.2f%% is below floor %.2f%%", cov.Pct, v.opts.CoverageFloor)))
		}
	}
	return rep
}

// Score aggregates entity reports: coveragePct is the mean of every per-field
// pct, score = clamp(coveragePct - min(errors, 20), 0, 100).
func Score(entities map[string]EntityReport) Health {
	var h Health
	var sum float64
	var n int
	kinds := make([]string, 0, len(entities))
	for k := range entities {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		rep := entities[k]
		h.TotalErrors += len(rep.Errors)
		h.TotalWarnings += len(rep.Warnings)
		fields := make([]string, 0, len(rep.FieldCoverage))
		for f := range rep.FieldCoverage {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			sum += rep.FieldCoverage[f].Pct
			n++
		}
	}
	if n > 0 {
		h.CoveragePct = round2(sum / float64(n))
	}
	penalty := float64(min(h.TotalErrors, 20))
	h.Score = round2(math.Max(0, math.Min(100, h.CoveragePct-penalty)))
	h.Grade = Grade(h.Score)
	return h
}

// Grade maps a score to A (>=90), B (>=80), C (>=70), D (>=50) or F.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func isFilled(v any) bool {
	return record.FromAny(v).Filled() && !blankString(v)
}

func blankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func finiteNumber(v any) (float64, bool) {
	val := record.FromAny(v)
	if val.Kind() != record.KindNumber {
		return 0, false
	}
	n, _ := val.Num()
	return n, true
}

func describe(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("string %q", t)
	case float64:
		return fmt.Sprint(t)
	default:
		return fmt.Sprintf("%T", v)
	}
}

func hasSource(v any) bool {
	flags, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for _, flag := range flags {
		if b, ok := flag.(bool); ok && b {
			return true
		}
	}
	return false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
