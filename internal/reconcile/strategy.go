package reconcile

import (
	"fmt"
	"math"
	"strings"

	"fischpipe/internal/record"
	"fischpipe/internal/schema"
)

type mismatchFunc func(slot, field string, err error)

// lookup returns the first non-nil value among keys. A dotted key walks
// nested objects ("weight.base").
func lookup(raw record.Raw, keys []string) any {
	for _, key := range keys {
		if v := walk(raw, key); v != nil {
			return v
		}
	}
	return nil
}

func walk(raw record.Raw, key string) any {
	if v, ok := raw[key]; ok {
		return v
	}
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return nil
	}
	var cur any = map[string]any(raw)
	for _, part := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[part]
	}
	return cur
}

func apply(rule schema.Rule, bySlot map[string]*indexed, out *record.Canonical, onMismatch mismatchFunc) {
	if rule.Strategy == schema.Compose {
		composeWeightRange(rule, bySlot, out, onMismatch)
		return
	}

	out.Set(rule.Field, record.Null())
	for _, slot := range rule.Order {
		rec := bySlot[slot]
		if rec == nil {
			continue
		}
		raw := lookup(rec.raw, rule.Keys(slot))
		if raw == nil {
			continue
		}
		v, err := resolve(rule.Strategy, raw)
		if err != nil {
			onMismatch(slot, rule.Field, err)
			continue
		}
		if v.Filled() {
			out.Set(rule.Field, v)
			return
		}
	}
}

func resolve(strategy schema.Strategy, raw any) (record.Value, error) {
	switch strategy {
	case schema.PreferNumeric:
		n, err := record.CoerceNumber(raw)
		if err != nil {
			return record.Null(), err
		}
		return record.FromOpt(n), nil
	case schema.PreferNonEmptyString:
		s, err := record.CoerceString(raw)
		if err != nil {
			return record.Null(), err
		}
		if v, ok := s.Get(); ok {
			return record.String(v), nil
		}
		return record.Null(), nil
	case schema.PreferNonEmptyArray:
		items, err := record.CoerceStrings(raw)
		if err != nil {
			return record.Null(), err
		}
		if v, ok := items.Get(); ok {
			return record.Strings(v), nil
		}
		return record.Null(), nil
	default:
		return record.Null(), fmt.Errorf("unsupported strategy %q", strategy)
	}
}

func composeWeightRange(rule schema.Rule, bySlot map[string]*indexed, out *record.Canonical, onMismatch mismatchFunc) {
	out.Set("weightMin", record.Null())
	out.Set("weightMax", record.Null())
	for _, slot := range rule.Order {
		rec := bySlot[slot]
		if rec == nil {
			continue
		}
		raw := lookup(rec.raw, rule.Keys(slot))
		if raw == nil {
			continue
		}
		lo, hi, ok, err := weightRange(raw)
		if err != nil {
			onMismatch(slot, rule.Field, err)
			continue
		}
		if !ok {
			continue
		}
		out.Set("weightMin", record.Number(lo))
		out.Set("weightMax", record.Number(hi))
		return
	}
}

// weightRange reads {min,max}, [min,max] or {base, delta|variance}. The
// base/delta form is rounded to two decimals. Inverted ranges are passed
// through for the validator to report.
func weightRange(raw any) (lo, hi float64, ok bool, err error) {
	switch t := raw.(type) {
	case map[string]any:
		if t["min"] != nil || t["max"] != nil {
			lo, okLo, err := number(t["min"])
			if err != nil {
				return 0, 0, false, err
			}
			hi, okHi, err := number(t["max"])
			if err != nil {
				return 0, 0, false, err
			}
			return lo, hi, okLo && okHi, nil
		}
		base, okBase, err := number(t["base"])
		if err != nil {
			return 0, 0, false, err
		}
		deltaRaw := t["delta"]
		if deltaRaw == nil {
			deltaRaw = t["variance"]
		}
		delta, okDelta, err := number(deltaRaw)
		if err != nil {
			return 0, 0, false, err
		}
		if !okBase || !okDelta {
			return 0, 0, false, nil
		}
		delta = math.Abs(delta)
		return round2(base - delta), round2(base + delta), true, nil
	case []any:
		if len(t) != 2 {
			return 0, 0, false, fmt.Errorf("%w: weight range needs two bounds, got %d", record.ErrTypeMismatch, len(t))
		}
		lo, okLo, err := number(t[0])
		if err != nil {
			return 0, 0, false, err
		}
		hi, okHi, err := number(t[1])
		if err != nil {
			return 0, 0, false, err
		}
		return lo, hi, okLo && okHi, nil
	default:
		return 0, 0, false, fmt.Errorf("%w: weight range must be an object or pair, got %T", record.ErrTypeMismatch, raw)
	}
}

func number(v any) (float64, bool, error) {
	n, err := record.CoerceNumber(v)
	if err != nil {
		return 0, false, err
	}
	f, ok := n.Get()
	return f, ok, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
