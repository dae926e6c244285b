package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fischpipe/internal/logging"
	"fischpipe/internal/record"
	"fischpipe/internal/schema"
)

func newFishReconciler(t *testing.T) *Reconciler {
	t.Helper()
	s, err := schema.Default()
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	entity, ok := s.Entity("fish")
	if !ok {
		t.Fatal("fish schema missing")
	}
	return New(entity, Labels{A: "wiki", B: "fischipedia"}, logging.NewNop())
}

func byName(t *testing.T, res Result, name string) record.Canonical {
	t.Helper()
	for _, rec := range res.Records {
		if rec.Name == name {
			return rec
		}
	}
	t.Fatalf("record %q not found in %d records", name, len(res.Records))
	return record.Canonical{}
}

func TestReconcileSingleSourceFlags(t *testing.T) {
	r := newFishReconciler(t)
	res := r.Reconcile(
		[]record.Raw{{"name": "Goldfish", "baseValue": 5.0, "baseWeight": 1.0}},
		[]record.Raw{{"name": "Carp", "value": 12.0}},
	)

	gold := byName(t, res, "Goldfish")
	if diff := cmp.Diff(map[string]bool{"wiki": true, "fischipedia": false}, gold.DataSource); diff != "" {
		t.Fatalf("goldfish dataSource (-want +got):\n%s", diff)
	}
	if v, _ := gold.Get("baseValue").Num(); v != 5 {
		t.Fatalf("goldfish baseValue = %v, want 5", v)
	}
	if gold.ID != "goldfish" {
		t.Fatalf("goldfish id = %q", gold.ID)
	}

	carp := byName(t, res, "Carp")
	if diff := cmp.Diff(map[string]bool{"wiki": false, "fischipedia": true}, carp.DataSource); diff != "" {
		t.Fatalf("carp dataSource (-want +got):\n%s", diff)
	}
	if v, _ := carp.Get("baseValue").Num(); v != 12 {
		t.Fatalf("carp baseValue from alias = %v, want 12", v)
	}
	if res.OnlyA != 1 || res.OnlyB != 1 || res.Both != 0 {
		t.Fatalf("unexpected source counts %+v", res)
	}
}

func TestReconcileFallsBackToSecondSource(t *testing.T) {
	r := newFishReconciler(t)
	res := r.Reconcile(
		[]record.Raw{{"name": "Shark", "baseValue": nil, "rarity": "Rare"}},
		[]record.Raw{{"name": "  shark ", "value": 120.0, "rarity": "Legendary"}},
	)
	if len(res.Records) != 1 {
		t.Fatalf("expected one merged record, got %d", len(res.Records))
	}
	shark := res.Records[0]
	if v, _ := shark.Get("baseValue").Num(); v != 120 {
		t.Fatalf("baseValue = %v, want 120", v)
	}
	if s, _ := shark.Get("rarity").Str(); s != "Rare" {
		t.Fatalf("rarity = %q, want Rare from first source", s)
	}
	if shark.Name != "Shark" {
		t.Fatalf("name = %q, want display name from first source", shark.Name)
	}
	if !shark.DataSource["wiki"] || !shark.DataSource["fischipedia"] {
		t.Fatalf("expected both source flags, got %v", shark.DataSource)
	}
}

func TestReconcileCoercesMismatchesToNull(t *testing.T) {
	r := newFishReconciler(t)
	res := r.Reconcile(
		[]record.Raw{{"name": "Pike", "baseValue": "lots", "chance": "12%", "weather": "Rain, Fog"}},
		nil,
	)
	pike := res.Records[0]
	if !pike.Get("baseValue").IsNull() {
		t.Fatalf("expected null baseValue, got %v", pike.Get("baseValue"))
	}
	if v, _ := pike.Get("chance").Num(); v != 12 {
		t.Fatalf("chance = %v, want 12", v)
	}
	if got := len(pike.Get("weather").Items()); got != 2 {
		t.Fatalf("weather items = %d, want 2", got)
	}
	if len(res.Coerced) != 1 || res.Coerced[0].Field != "baseValue" || res.Coerced[0].Code != CodeTypeMismatch {
		t.Fatalf("unexpected coerced issues %+v", res.Coerced)
	}
}

func TestReconcileWeightRange(t *testing.T) {
	r := newFishReconciler(t)
	res := r.Reconcile(
		[]record.Raw{
			{"name": "Bass", "weight": map[string]any{"min": 1.0, "max": 4.0}},
			{"name": "Eel"},
		},
		[]record.Raw{
			{"name": "Bass", "weight": map[string]any{"base": 10.0, "delta": 2.0}},
			{"name": "Eel", "weight": map[string]any{"base": 3.333, "variance": 1.111}},
		},
	)
	bass := byName(t, res, "Bass")
	lo, _ := bass.Get("weightMin").Num()
	hi, _ := bass.Get("weightMax").Num()
	if lo != 1 || hi != 4 {
		t.Fatalf("bass range = [%v,%v], want [1,4] from source A", lo, hi)
	}
	eel := byName(t, res, "Eel")
	lo, _ = eel.Get("weightMin").Num()
	hi, _ = eel.Get("weightMax").Num()
	if lo != 2.22 || hi != 4.44 {
		t.Fatalf("eel range = [%v,%v], want [2.22,4.44]", lo, hi)
	}
}

func TestReconcileDropsNamelessAndDuplicates(t *testing.T) {
	r := newFishReconciler(t)
	res := r.Reconcile(
		[]record.Raw{
			{"name": "Cod", "baseValue": 3.0},
			{"name": "COD", "baseValue": 99.0},
			{"baseValue": 1.0},
			{"name": "   "},
		},
		nil,
	)
	if len(res.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(res.Records))
	}
	if v, _ := res.Records[0].Get("baseValue").Num(); v != 3 {
		t.Fatalf("expected first occurrence to win, got baseValue %v", v)
	}
	if len(res.Dropped) != 2 {
		t.Fatalf("expected two dropped records, got %+v", res.Dropped)
	}
	if len(res.Duplicates) != 1 || res.Duplicates[0].Index != 1 {
		t.Fatalf("expected duplicate at index 1, got %+v", res.Duplicates)
	}
}

func TestReconcileSlugCollisions(t *testing.T) {
	r := newFishReconciler(t)
	res := r.Reconcile(
		[]record.Raw{
			{"name": "Pike?"},
			{"name": "Pike!"},
			{"name": "Northern Pike", "id": "pike"},
		},
		nil,
	)
	got := map[string]string{}
	for _, rec := range res.Records {
		got[rec.Name] = rec.ID
	}
	want := map[string]string{"Northern Pike": "pike", "Pike!": "pike-2", "Pike?": "pike-3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	r := newFishReconciler(t)
	a := []record.Raw{
		{"name": "Zander", "baseValue": 8.0, "weather": []any{"Rain"}},
		{"name": "Anchovy", "baseValue": 1.0},
		{"name": "Mackerel", "weight": map[string]any{"min": 1.0, "max": 2.0}},
	}
	b := []record.Raw{
		{"name": "anchovy", "catchRate": 40.0},
		{"name": "Tuna", "value": 50.0},
	}

	first, err := json.Marshal(r.Reconcile(a, b).Records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(r.Reconcile(a, b).Records)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}

	res := r.Reconcile(a, b)
	names := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		names = append(names, rec.Name)
	}
	if diff := cmp.Diff([]string{"Anchovy", "Mackerel", "Tuna", "Zander"}, names); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}
