package record

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Raw is a schema-free object decoded from an adapter artifact.
type Raw map[string]any

// Name returns the trimmed name of a raw record, if it has one.
func (r Raw) Name() Opt[string] {
	name, err := CoerceString(r["name"])
	if err != nil {
		return None[string]()
	}
	return name
}

// Canonical is one merged entity. Fields never contains "id", "name" or
// "dataSource"; those live in the dedicated struct fields.
type Canonical struct {
	ID         string
	Name       string
	Fields     map[string]Value
	DataSource map[string]bool
}

const (
	keyID         = "id"
	keyName       = "name"
	keyDataSource = "dataSource"
)

// Get returns a field value, or null when unset.
func (c Canonical) Get(field string) Value {
	if c.Fields == nil {
		return Null()
	}
	return c.Fields[field]
}

// Set stores a field value.
func (c *Canonical) Set(field string, v Value) {
	if c.Fields == nil {
		c.Fields = make(map[string]Value)
	}
	c.Fields[field] = v
}

// FieldNames returns the sorted names of all populated field slots.
func (c Canonical) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy whose field and dataSource maps can be mutated
// independently.
func (c Canonical) Clone() Canonical {
	out := Canonical{ID: c.ID, Name: c.Name}
	if c.Fields != nil {
		out.Fields = make(map[string]Value, len(c.Fields))
		for k, v := range c.Fields {
			out.Fields[k] = v
		}
	}
	if c.DataSource != nil {
		out.DataSource = make(map[string]bool, len(c.DataSource))
		for k, v := range c.DataSource {
			out.DataSource[k] = v
		}
	}
	return out
}

// MarshalJSON writes the flat artifact form. encoding/json sorts map keys,
// so output is stable for identical records.
func (c Canonical) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(c.Fields)+3)
	for k, v := range c.Fields {
		flat[k] = v.Any()
	}
	flat[keyID] = c.ID
	flat[keyName] = c.Name
	ds := make(map[string]bool, len(c.DataSource))
	for k, v := range c.DataSource {
		ds[k] = v
	}
	flat[keyDataSource] = ds
	return json.Marshal(flat)
}

func (c *Canonical) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out, err := CanonicalFromRaw(flat)
	if err != nil {
		return err
	}
	*c = out
	return nil
}

// CanonicalFromRaw lifts a decoded artifact object into a Canonical record.
func CanonicalFromRaw(raw Raw) (Canonical, error) {
	out := Canonical{Fields: make(map[string]Value, len(raw)), DataSource: map[string]bool{}}
	for k, v := range raw {
		switch k {
		case keyID:
			id, err := CoerceString(v)
			if err != nil {
				return Canonical{}, fmt.Errorf("id: %w", err)
			}
			out.ID = id.OrElse("")
		case keyName:
			name, err := CoerceString(v)
			if err != nil {
				return Canonical{}, fmt.Errorf("name: %w", err)
			}
			out.Name = name.OrElse("")
		case keyDataSource:
			flags, ok := v.(map[string]any)
			if !ok && v != nil {
				return Canonical{}, fmt.Errorf("dataSource: %w", mismatch("object", v))
			}
			for label, flag := range flags {
				b, _ := flag.(bool)
				out.DataSource[label] = b
			}
		default:
			out.Fields[k] = FromAny(v)
		}
	}
	return out, nil
}
