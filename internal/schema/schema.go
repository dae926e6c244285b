// Package schema loads the entity schema: per entity kind, the field lists
// the validator checks and the field-precedence table the reconciler merges
// with. The schema is parsed once at startup and passed explicitly to every
// stage.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed entities.yaml
var defaultSchema []byte

// Strategy names a merge strategy.
type Strategy string

const (
	PreferNumeric        Strategy = "prefer-numeric"
	PreferNonEmptyString Strategy = "prefer-nonempty-string"
	PreferNonEmptyArray  Strategy = "prefer-nonempty-array"
	Compose              Strategy = "compose"
)

// ComposeWeightRange builds weightMin/weightMax from a {min,max} range or a
// {base, delta} pair.
const ComposeWeightRange = "weight-range"

// Source slots.
const (
	SlotA = "a"
	SlotB = "b"
)

// Rule is one row of a precedence table.
type Rule struct {
	Field    string              `yaml:"field"`
	Strategy Strategy            `yaml:"strategy"`
	Order    []string            `yaml:"order"`
	Aliases  map[string][]string `yaml:"aliases"`
	Compose  string              `yaml:"compose"`
	Confirm  bool                `yaml:"confirm"`
}

// Keys returns the raw keys consulted for a slot, in lookup order.
func (r Rule) Keys(slot string) []string {
	if keys := r.Aliases[slot]; len(keys) > 0 {
		return keys
	}
	return []string{r.Field}
}

// Outputs lists the canonical fields a rule writes.
func (r Rule) Outputs() []string {
	if r.Strategy == Compose && r.Compose == ComposeWeightRange {
		return []string{"weightMin", "weightMax"}
	}
	return []string{r.Field}
}

// Range declares a min/max field pair.
type Range struct {
	Min string `yaml:"min"`
	Max string `yaml:"max"`
}

// Entity is the schema of one entity kind.
type Entity struct {
	Kind       string   `yaml:"-"`
	Required   []string `yaml:"required"`
	Numeric    []string `yaml:"numeric"`
	Ratio      []string `yaml:"ratio"`
	Magnitude  []string `yaml:"magnitude"`
	Ranges     []Range  `yaml:"ranges"`
	Fields     []string `yaml:"fields"`
	Precedence []Rule   `yaml:"precedence"`
}

// Schema holds every entity kind.
type Schema struct {
	entities map[string]*Entity
}

type document struct {
	Entities map[string]*Entity `yaml:"entities"`
}

// Default parses the embedded schema.
func Default() (*Schema, error) {
	return Parse(defaultSchema)
}

// LoadFile parses a schema file, falling back to the embedded schema when
// path is empty.
func LoadFile(path string) (*Schema, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a schema document.
func Parse(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(doc.Entities) == 0 {
		return nil, fmt.Errorf("parse schema: no entities declared")
	}
	for kind, entity := range doc.Entities {
		if entity == nil {
			return nil, fmt.Errorf("entity %q: empty declaration", kind)
		}
		entity.Kind = kind
		if err := entity.validate(); err != nil {
			return nil, fmt.Errorf("entity %q: %w", kind, err)
		}
	}
	return &Schema{entities: doc.Entities}, nil
}

func (e *Entity) validate() error {
	seen := make(map[string]struct{}, len(e.Precedence))
	for i, rule := range e.Precedence {
		if strings.TrimSpace(rule.Field) == "" {
			return fmt.Errorf("precedence[%d]: field is required", i)
		}
		switch rule.Field {
		case "id", "name", "dataSource":
			return fmt.Errorf("precedence[%d]: %q is managed by the reconciler", i, rule.Field)
		}
		if _, dup := seen[rule.Field]; dup {
			return fmt.Errorf("precedence[%d]: duplicate rule for %q", i, rule.Field)
		}
		seen[rule.Field] = struct{}{}

		switch rule.Strategy {
		case PreferNumeric, PreferNonEmptyString, PreferNonEmptyArray:
		case Compose:
			if rule.Compose != ComposeWeightRange {
				return fmt.Errorf("precedence[%d]: unknown compose function %q", i, rule.Compose)
			}
		default:
			return fmt.Errorf("precedence[%d]: unknown strategy %q", i, rule.Strategy)
		}

		if len(rule.Order) == 0 || len(rule.Order) > 2 {
			return fmt.Errorf("precedence[%d]: order must list one or two source slots", i)
		}
		slots := map[string]struct{}{}
		for _, slot := range rule.Order {
			if slot != SlotA && slot != SlotB {
				return fmt.Errorf("precedence[%d]: unknown source slot %q", i, slot)
			}
			if _, dup := slots[slot]; dup {
				return fmt.Errorf("precedence[%d]: slot %q listed twice", i, slot)
			}
			slots[slot] = struct{}{}
		}
		for slot := range rule.Aliases {
			if slot != SlotA && slot != SlotB {
				return fmt.Errorf("precedence[%d]: aliases for unknown slot %q", i, slot)
			}
		}
	}
	for i, r := range e.Ranges {
		if r.Min == "" || r.Max == "" {
			return fmt.Errorf("ranges[%d]: min and max are required", i)
		}
	}
	return nil
}

// Entity returns the schema for a kind.
func (s *Schema) Entity(kind string) (*Entity, bool) {
	e, ok := s.entities[kind]
	return e, ok
}

// Kinds returns the declared entity kinds, sorted.
func (s *Schema) Kinds() []string {
	kinds := make([]string, 0, len(s.entities))
	for k := range s.entities {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// PendingRule identifies a precedence rule awaiting confirmation.
type PendingRule struct {
	Kind  string
	Field string
	Order []string
}

// PendingConfirmation lists rules flagged confirm: true, sorted by kind then field.
func (s *Schema) PendingConfirmation() []PendingRule {
	var out []PendingRule
	for _, kind := range s.Kinds() {
		for _, rule := range s.entities[kind].Precedence {
			if rule.Confirm {
				out = append(out, PendingRule{Kind: kind, Field: rule.Field, Order: rule.Order})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// Contains reports whether list holds field.
func Contains(list []string, field string) bool {
	for _, item := range list {
		if item == field {
			return true
		}
	}
	return false
}
