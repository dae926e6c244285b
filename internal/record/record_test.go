package record

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Opt[float64]
		wantErr bool
	}{
		{"nil", nil, None[float64](), false},
		{"float", 12.5, Some(12.5), false},
		{"json number", json.Number("42"), Some(42.0), false},
		{"thousands", "1,200", Some(1200.0), false},
		{"percent", "5%", Some(5.0), false},
		{"unit", "3.5 kg", Some(3.5), false},
		{"empty string", "  ", None[float64](), false},
		{"word", "lots", None[float64](), true},
		{"bool", true, None[float64](), true},
		{"nan", math.NaN(), None[float64](), true},
		{"inf", math.Inf(1), None[float64](), true},
		{"list", []any{1.0}, None[float64](), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceNumber(tt.in)
			if tt.wantErr != (err != nil) {
				t.Fatalf("CoerceNumber(%v) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTypeMismatch) {
				t.Fatalf("expected ErrTypeMismatch, got %v", err)
			}
			gv, gok := got.Get()
			wv, wok := tt.want.Get()
			if gok != wok || gv != wv {
				t.Fatalf("CoerceNumber(%v) = (%v,%v), want (%v,%v)", tt.in, gv, gok, wv, wok)
			}
		})
	}
}

func TestCoerceStrings(t *testing.T) {
	got, err := CoerceStrings("Rain, Fog ,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Rain", "Fog"}, got.OrElse(nil)); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
	if _, err := CoerceStrings(map[string]any{"a": 1}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected mismatch for object, got %v", err)
	}
	empty, err := CoerceStrings([]any{})
	if err != nil || empty.IsSome() {
		t.Fatalf("expected absent list, got %v %v", empty, err)
	}
}

func TestCanonicalRoundTripIsStable(t *testing.T) {
	c := Canonical{
		ID:   "goldfish",
		Name: "Goldfish",
		Fields: map[string]Value{
			"baseValue":   Number(5),
			"weather":     Strings([]string{"Rain"}),
			"description": Text{Text: "Shiny.", IsGenerated: true}.Value(),
			"event":       Null(),
		},
		DataSource: map[string]bool{"wiki": true, "fischipedia": false},
	}
	first, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"baseValue":5,"dataSource":{"fischipedia":false,"wiki":true},"description":{"isGenerated":true,"text":"Shiny."},"event":null,"id":"goldfish","name":"Goldfish","weather":["Rain"]}`
	if string(first) != want {
		t.Fatalf("unexpected encoding:\n got %s\nwant %s", first, want)
	}

	var decoded Canonical
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	second, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("encoding not stable:\n%s\n%s", first, second)
	}
}

func TestFishView(t *testing.T) {
	c := Canonical{ID: "shark", Name: "Shark", Fields: map[string]Value{
		"baseValue":   Number(120),
		"weightMin":   Number(10),
		"weightMax":   Number(30),
		"rarity":      String(""),
		"description": String("Curated."),
	}}
	f := FishFrom(c)
	if v, ok := f.BaseValue.Get(); !ok || v != 120 {
		t.Fatalf("BaseValue = %v,%v", v, ok)
	}
	if f.Rarity.IsSome() {
		t.Fatal("empty rarity should be absent")
	}
	if avg := f.AverageWeight().OrElse(-1); avg != 20 {
		t.Fatalf("AverageWeight = %v", avg)
	}
	desc, ok := f.Description.Get()
	if !ok || desc.IsGenerated || desc.Text != "Curated." {
		t.Fatalf("Description = %+v,%v", desc, ok)
	}
	if f.Chance.IsSome() {
		t.Fatal("missing chance should be absent")
	}
}

func TestOptJSON(t *testing.T) {
	type wrapper struct {
		A Opt[int] `json:"a"`
		B Opt[int] `json:"b"`
	}
	data, err := json.Marshal(wrapper{A: Some(3)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":3,"b":null}` {
		t.Fatalf("unexpected %s", data)
	}
	var back wrapper
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.A.OrElse(0) != 3 || back.B.IsSome() {
		t.Fatalf("unexpected %+v", back)
	}
}
