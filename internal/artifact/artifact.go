// Package artifact reads and writes the JSON documents exchanged between
// pipeline stages.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"fischpipe/internal/fileutil"
	"fischpipe/internal/record"
)

// ErrMalformed reports an artifact that is neither a JSON array nor an
// object with an items array.
var ErrMalformed = errors.New("malformed artifact")

type envelope struct {
	Items json.RawMessage `json:"items"`
}

// ReadItems decodes the items of an artifact. Both a bare array and
// {"items": [...]} are accepted.
func ReadItems(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeItems(path, data)
}

// DecodeItems splits an in-memory artifact into its items. name only labels
// errors.
func DecodeItems(path string, data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w: empty document", path, ErrMalformed)
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformed, err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformed, err)
		}
		if len(env.Items) == 0 || bytes.Equal(env.Items, []byte("null")) {
			return nil, fmt.Errorf("%s: %w: missing items array", path, ErrMalformed)
		}
		if err := json.Unmarshal(env.Items, &items); err != nil {
			return nil, fmt.Errorf("%s: %w: items: %v", path, ErrMalformed, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w: expected array or object", path, ErrMalformed)
	}
	return items, nil
}

// ReadRaw decodes an artifact into schema-free records. Elements that are
// not JSON objects are skipped and counted.
func ReadRaw(path string) ([]record.Raw, int, error) {
	items, err := ReadItems(path)
	if err != nil {
		return nil, 0, err
	}
	out := make([]record.Raw, 0, len(items))
	skipped := 0
	for _, item := range items {
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			skipped++
			continue
		}
		out = append(out, record.Raw(obj))
	}
	return out, skipped, nil
}

// ReadValues decodes every element of an artifact as a plain JSON value so
// callers can inspect the exact types that were written.
func ReadValues(path string) ([]any, error) {
	items, err := ReadItems(path)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		var v any
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("%s: item %d: %w", path, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadCanonical decodes a reconciled or enriched artifact.
func ReadCanonical(path string) ([]record.Canonical, error) {
	items, err := ReadItems(path)
	if err != nil {
		return nil, err
	}
	out := make([]record.Canonical, 0, len(items))
	for i, item := range items {
		var c record.Canonical
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, fmt.Errorf("%s: item %d: %w", path, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// WriteJSON marshals v with two-space indentation and writes it atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteRecords writes records as a bare JSON array. A nil slice is written as [].
func WriteRecords(path string, records []record.Canonical) error {
	if records == nil {
		records = []record.Canonical{}
	}
	return WriteJSON(path, records)
}

// ReadJSON decodes a single JSON document.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Count returns the number of items in an artifact.
func Count(path string) (int, error) {
	items, err := ReadItems(path)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Exists reports whether an artifact file is present.
func Exists(path string) bool {
	return fileutil.Exists(path)
}
