package schema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultSchemaParses(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if diff := cmp.Diff([]string{"fish", "locations", "mutations", "rods"}, s.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	fish, ok := s.Entity("fish")
	if !ok {
		t.Fatal("fish entity missing")
	}
	if !Contains(fish.Required, "name") || !Contains(fish.Numeric, "baseValue") {
		t.Fatalf("unexpected fish field lists: %+v", fish)
	}
	for _, kind := range s.Kinds() {
		e, _ := s.Entity(kind)
		for _, rule := range e.Precedence {
			for _, out := range rule.Outputs() {
				if !Contains(e.Fields, out) {
					t.Errorf("%s: rule output %q missing from fields list", kind, out)
				}
			}
		}
	}
}

func TestPendingConfirmation(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	pending := s.PendingConfirmation()
	if len(pending) == 0 {
		t.Fatal("expected flagged rules in default schema")
	}
	for i := 1; i < len(pending); i++ {
		prev, cur := pending[i-1], pending[i]
		if prev.Kind > cur.Kind || (prev.Kind == cur.Kind && prev.Field > cur.Field) {
			t.Fatalf("pending rules not sorted: %+v", pending)
		}
	}
}

func TestRuleKeys(t *testing.T) {
	r := Rule{Field: "bait", Aliases: map[string][]string{SlotB: {"preferredBait", "bait"}}}
	if diff := cmp.Diff([]string{"bait"}, r.Keys(SlotA)); diff != "" {
		t.Fatalf("slot a keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"preferredBait", "bait"}, r.Keys(SlotB)); diff != "" {
		t.Fatalf("slot b keys (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no entities", "entities: {}\n", "no entities"},
		{"unknown strategy", "entities:\n  fish:\n    precedence:\n      - {field: x, strategy: newest, order: [a]}\n", "unknown strategy"},
		{"unknown slot", "entities:\n  fish:\n    precedence:\n      - {field: x, strategy: prefer-numeric, order: [c]}\n", "unknown source slot"},
		{"empty order", "entities:\n  fish:\n    precedence:\n      - {field: x, strategy: prefer-numeric}\n", "order must list"},
		{"managed field", "entities:\n  fish:\n    precedence:\n      - {field: id, strategy: prefer-numeric, order: [a]}\n", "managed by the reconciler"},
		{"duplicate", "entities:\n  fish:\n    precedence:\n      - {field: x, strategy: prefer-numeric, order: [a]}\n      - {field: x, strategy: prefer-numeric, order: [b]}\n", "duplicate rule"},
		{"bad compose", "entities:\n  fish:\n    precedence:\n      - {field: x, strategy: compose, compose: average, order: [a]}\n", "unknown compose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
