package enrich

import (
	"fmt"
	"sort"

	"fischpipe/internal/artifact"
	"fischpipe/internal/record"
)

// CatalogItem is one piece of reference equipment.
type CatalogItem struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	CapabilityRating float64 `json:"capabilityRating"`
}

// Catalog is sorted ascending by capability rating.
type Catalog []CatalogItem

// LoadCatalog reads a catalog artifact and sorts it.
func LoadCatalog(path string) (Catalog, error) {
	var items []CatalogItem
	if err := artifact.ReadJSON(path, &items); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewCatalog(items), nil
}

// NewCatalog copies and sorts items by rating, then name.
func NewCatalog(items []CatalogItem) Catalog {
	out := make(Catalog, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CapabilityRating != out[j].CapabilityRating {
			return out[i].CapabilityRating < out[j].CapabilityRating
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CatalogFromRods derives a catalog from canonical rods, using resilience as
// the capability rating. Rods without resilience are left out.
func CatalogFromRods(rods []record.Canonical) Catalog {
	items := make([]CatalogItem, 0, len(rods))
	for _, c := range rods {
		rod := record.RodFrom(c)
		rating, ok := rod.Resilience.Get()
		if !ok {
			continue
		}
		items = append(items, CatalogItem{ID: rod.ID, Name: rod.Name, CapabilityRating: rating})
	}
	return NewCatalog(items)
}

// Recommend returns the first item whose rating meets the requirement, or the
// strongest item when none does. It is absent when the requirement or the
// catalog is missing.
func (c Catalog) Recommend(requirement record.Opt[float64]) record.Opt[CatalogItem] {
	need, ok := requirement.Get()
	if !ok || len(c) == 0 {
		return record.None[CatalogItem]()
	}
	idx := sort.Search(len(c), func(i int) bool { return c[i].CapabilityRating >= need })
	if idx == len(c) {
		return record.Some(c[len(c)-1])
	}
	return record.Some(c[idx])
}
