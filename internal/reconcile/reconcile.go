package reconcile

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"fischpipe/internal/logging"
	"fischpipe/internal/record"
	"fischpipe/internal/schema"
	"fischpipe/internal/textutil"
)

// Issue codes.
const (
	CodeMissingName  = "missing-name"
	CodeDuplicateKey = "duplicate-key"
	CodeTypeMismatch = "type-mismatch"
)

// Issue describes a raw record or value the reconciler could not use as-is.
type Issue struct {
	Code    string `json:"code"`
	Source  string `json:"source"`
	Key     string `json:"key,omitempty"`
	Field   string `json:"field,omitempty"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Result is the outcome of one reconciliation.
type Result struct {
	Kind       string
	Records    []record.Canonical
	Dropped    []Issue
	Duplicates []Issue
	Coerced    []Issue
	OnlyA      int
	OnlyB      int
	Both       int
}

// Labels names the two sources as they appear in dataSource.
type Labels struct {
	A string
	B string
}

func (l Labels) of(slot string) string {
	if slot == schema.SlotB {
		return l.B
	}
	return l.A
}

// Reconciler merges raw records for one entity kind.
type Reconciler struct {
	entity *schema.Entity
	labels Labels
	logger *slog.Logger
}

// New builds a reconciler for an entity schema.
func New(entity *schema.Entity, labels Labels, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		entity: entity,
		labels: labels,
		logger: logging.NewComponentLogger(logger, "reconcile"),
	}
}

type indexed struct {
	raw   record.Raw
	name  string
	index int
}

type merged struct {
	key  string
	a, b *indexed
}

// Reconcile merges rawA and rawB. It never fails: problems are reported in
// the result.
func (r *Reconciler) Reconcile(rawA, rawB []record.Raw) Result {
	res := Result{Kind: r.entity.Kind}

	mapA := r.index(schema.SlotA, rawA, &res)
	mapB := r.index(schema.SlotB, rawB, &res)

	keys := make(map[string]*merged, len(mapA)+len(mapB))
	for key, rec := range mapA {
		keys[key] = &merged{key: key, a: rec}
	}
	for key, rec := range mapB {
		if m, ok := keys[key]; ok {
			m.b = rec
			continue
		}
		keys[key] = &merged{key: key, b: rec}
	}

	entries := make([]*merged, 0, len(keys))
	for _, m := range keys {
		entries = append(entries, m)
	}
	sort.Slice(entries, func(i, j int) bool {
		ni, nj := entries[i].displayName(), entries[j].displayName()
		if ni != nj {
			return ni < nj
		}
		return entries[i].key < entries[j].key
	})

	records := make([]record.Canonical, 0, len(entries))
	for _, m := range entries {
		rec := r.merge(m, &res)
		records = append(records, rec)
		switch {
		case m.a != nil && m.b != nil:
			res.Both++
		case m.a != nil:
			res.OnlyA++
		default:
			res.OnlyB++
		}
	}
	assignIDs(records, entries)

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID < records[j].ID
	})
	res.Records = records

	r.report(res)
	return res
}

func (m *merged) displayName() string {
	if m.a != nil {
		return m.a.name
	}
	return m.b.name
}

func (r *Reconciler) index(slot string, raws []record.Raw, res *Result) map[string]*indexed {
	out := make(map[string]*indexed, len(raws))
	label := r.labels.of(slot)
	for i, raw := range raws {
		name, ok := raw.Name().Get()
		key := textutil.NormalizeKey(name)
		if !ok || key == "" {
			res.Dropped = append(res.Dropped, Issue{
				Code:    CodeMissingName,
				Source:  label,
				Index:   i,
				Message: "record has no resolvable name",
			})
			continue
		}
		if first, dup := out[key]; dup {
			res.Duplicates = append(res.Duplicates, Issue{
				Code:    CodeDuplicateKey,
				Source:  label,
				Key:     key,
				Index:   i,
				Message: fmt.Sprintf("duplicate of record %d; first occurrence kept", first.index),
			})
			continue
		}
		out[key] = &indexed{raw: raw, name: name, index: i}
	}
	return out
}

func (r *Reconciler) merge(m *merged, res *Result) record.Canonical {
	out := record.Canonical{
		Name:   m.displayName(),
		Fields: make(map[string]record.Value, len(r.entity.Precedence)+1),
		DataSource: map[string]bool{
			r.labels.A: m.a != nil,
			r.labels.B: m.b != nil,
		},
	}
	bySlot := map[string]*indexed{schema.SlotA: m.a, schema.SlotB: m.b}

	for _, slot := range []string{schema.SlotA, schema.SlotB} {
		rec := bySlot[slot]
		if rec == nil {
			continue
		}
		id, err := record.CoerceString(rec.raw["id"])
		if err != nil {
			res.Coerced = append(res.Coerced, r.mismatch(slot, m.key, "id", err))
			continue
		}
		if v, ok := id.Get(); ok {
			out.ID = v
			break
		}
	}

	for _, rule := range r.entity.Precedence {
		apply(rule, bySlot, &out, func(slot, field string, err error) {
			res.Coerced = append(res.Coerced, r.mismatch(slot, m.key, field, err))
		})
	}
	return out
}

func (r *Reconciler) mismatch(slot, key, field string, err error) Issue {
	return Issue{
		Code:    CodeTypeMismatch,
		Source:  r.labels.of(slot),
		Key:     key,
		Field:   field,
		Index:   -1,
		Message: err.Error(),
	}
}

// assignIDs fills derived ids for records without an explicit one. Derived
// slugs that collide with any other id get -2, -3, ... in name order.
func assignIDs(records []record.Canonical, entries []*merged) {
	used := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.ID != "" {
			used[rec.ID] = struct{}{}
		}
	}
	for i := range records {
		if records[i].ID != "" {
			continue
		}
		base := textutil.Slugify(records[i].Name)
		if base == "" {
			base = textutil.Slugify(entries[i].key)
		}
		if base == "" {
			base = "unnamed"
		}
		id := base
		for n := 2; ; n++ {
			if _, taken := used[id]; !taken {
				break
			}
			id = base + "-" + strconv.Itoa(n)
		}
		used[id] = struct{}{}
		records[i].ID = id
	}
}

func (r *Reconciler) report(res Result) {
	r.logger.Info("reconciled corpus",
		logging.String(logging.FieldEntity, res.Kind),
		logging.Int("records", len(res.Records)),
		logging.Int("both_sources", res.Both),
		logging.Int("only_"+r.labels.A, res.OnlyA),
		logging.Int("only_"+r.labels.B, res.OnlyB),
		logging.Int("coerced", len(res.Coerced)),
	)
	if len(res.Dropped) > 0 {
		logging.WarnWithContext(r.logger, "dropped records without a name", "reconcile_dropped",
			logging.String(logging.FieldEntity, res.Kind),
			logging.Int("dropped", len(res.Dropped)),
			logging.String(logging.FieldErrorHint, "fix the adapter output so every record carries a name"),
			logging.String(logging.FieldImpact, "dropped records are missing from the canonical corpus"),
		)
	}
	if len(res.Duplicates) > 0 {
		logging.WarnWithContext(r.logger, "duplicate natural keys within a source", "reconcile_duplicates",
			logging.String(logging.FieldEntity, res.Kind),
			logging.Int("duplicates", len(res.Duplicates)),
			logging.String(logging.FieldErrorHint, "the first occurrence was kept"),
		)
	}
}
