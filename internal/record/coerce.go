package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrTypeMismatch reports a raw value that cannot be read as the requested type.
var ErrTypeMismatch = errors.New("type mismatch")

func mismatch(want string, v any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, want, v)
}

// CoerceNumber reads a finite number. Numeric strings are accepted with
// thousands separators, a trailing percent sign or a trailing unit
// ("1,200", "5%", "3.5 kg"). Null and empty strings are absent, not errors.
func CoerceNumber(v any) (Opt[float64], error) {
	switch t := v.(type) {
	case nil:
		return None[float64](), nil
	case Value:
		if t.IsNull() {
			return None[float64](), nil
		}
		return CoerceNumber(t.Any())
	case float64:
		return finite(t, v)
	case float32:
		return finite(float64(t), v)
	case int:
		return Some(float64(t)), nil
	case int64:
		return Some(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return None[float64](), mismatch("number", v)
		}
		return finite(f, v)
	case string:
		return parseNumeric(t)
	default:
		return None[float64](), mismatch("number", v)
	}
}

func finite(f float64, orig any) (Opt[float64], error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return None[float64](), mismatch("finite number", orig)
	}
	return Some(f), nil
}

func parseNumeric(s string) (Opt[float64], error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return None[float64](), nil
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimRightFunc(cleaned, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsSpace(r) || r == '%'
	})
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return None[float64](), mismatch("number", s)
	}
	return finite(f, s)
}

// CoerceString reads a non-empty trimmed string. Numbers and booleans are
// rendered; lists and objects are mismatches.
func CoerceString(v any) (Opt[string], error) {
	switch t := v.(type) {
	case nil:
		return None[string](), nil
	case Value:
		if t.IsNull() {
			return None[string](), nil
		}
		return CoerceString(t.Any())
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return None[string](), nil
		}
		return Some(trimmed), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return None[string](), mismatch("string", v)
		}
		return Some(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case json.Number:
		return Some(t.String()), nil
	case int:
		return Some(strconv.Itoa(t)), nil
	case bool:
		return Some(strconv.FormatBool(t)), nil
	default:
		return None[string](), mismatch("string", v)
	}
}

// CoerceStrings reads a non-empty list of strings. A comma separated string
// is split into items. Empty items are dropped.
func CoerceStrings(v any) (Opt[[]string], error) {
	switch t := v.(type) {
	case nil:
		return None[[]string](), nil
	case Value:
		if t.IsNull() {
			return None[[]string](), nil
		}
		return CoerceStrings(t.Any())
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return None[[]string](), nil
		}
		return Some(out), nil
	case []string:
		return CoerceStrings(toAnySlice(t))
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, err := CoerceString(item)
			if err != nil {
				return None[[]string](), mismatch("list of strings", v)
			}
			if str, ok := s.Get(); ok {
				out = append(out, str)
			}
		}
		if len(out) == 0 {
			return None[[]string](), nil
		}
		return Some(out), nil
	default:
		return None[[]string](), mismatch("list", v)
	}
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
