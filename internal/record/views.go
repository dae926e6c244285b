package record

func num(c Canonical, field string) Opt[float64] {
	n, ok := c.Get(field).Num()
	if !ok {
		return None[float64]()
	}
	return Some(n)
}

func str(c Canonical, field string) Opt[string] {
	s, ok := c.Get(field).Str()
	if !ok || s == "" {
		return None[string]()
	}
	return Some(s)
}

func strs(c Canonical, field string) []string {
	var out []string
	for _, item := range c.Get(field).Items() {
		if s, ok := item.Str(); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fish is the typed view of a canonical fish record.
type Fish struct {
	ID          string
	Name        string
	Rarity      Opt[string]
	BaseValue   Opt[float64]
	BaseWeight  Opt[float64]
	WeightMin   Opt[float64]
	WeightMax   Opt[float64]
	Chance      Opt[float64]
	Resilience  Opt[float64]
	Location    Opt[string]
	Bait        Opt[string]
	Weather     []string
	Time        Opt[string]
	Seasons     []string
	Event       Opt[string]
	Source      Opt[string]
	Description Opt[Text]
	HowToCatch  Opt[Text]
}

func FishFrom(c Canonical) Fish {
	return Fish{
		ID:          c.ID,
		Name:        c.Name,
		Rarity:      str(c, "rarity"),
		BaseValue:   num(c, "baseValue"),
		BaseWeight:  num(c, "baseWeight"),
		WeightMin:   num(c, "weightMin"),
		WeightMax:   num(c, "weightMax"),
		Chance:      num(c, "chance"),
		Resilience:  num(c, "resilience"),
		Location:    str(c, "location"),
		Bait:        str(c, "bait"),
		Weather:     strs(c, "weather"),
		Time:        str(c, "time"),
		Seasons:     strs(c, "seasons"),
		Event:       str(c, "event"),
		Source:      str(c, "source"),
		Description: TextFrom(c.Get("description")),
		HowToCatch:  TextFrom(c.Get("howToCatch")),
	}
}

// AverageWeight is the midpoint of the weight range when both bounds are
// known.
func (f Fish) AverageWeight() Opt[float64] {
	lo, okLo := f.WeightMin.Get()
	hi, okHi := f.WeightMax.Get()
	if !okLo || !okHi {
		return None[float64]()
	}
	return Some((lo + hi) / 2)
}

// Mutation is the typed view of a canonical mutation record.
type Mutation struct {
	ID          string
	Name        string
	Multiplier  Opt[float64]
	Chance      Opt[float64]
	Source      Opt[string]
	Description Opt[Text]
}

func MutationFrom(c Canonical) Mutation {
	return Mutation{
		ID:          c.ID,
		Name:        c.Name,
		Multiplier:  num(c, "multiplier"),
		Chance:      num(c, "chance"),
		Source:      str(c, "source"),
		Description: TextFrom(c.Get("description")),
	}
}

// Rod is the typed view of a canonical rod record.
type Rod struct {
	ID          string
	Name        string
	Price       Opt[float64]
	Resilience  Opt[float64]
	LureSpeed   Opt[float64]
	Luck        Opt[float64]
	Control     Opt[float64]
	MaxKg       Opt[float64]
	Location    Opt[string]
	Passive     Opt[string]
	Description Opt[Text]
}

func RodFrom(c Canonical) Rod {
	return Rod{
		ID:          c.ID,
		Name:        c.Name,
		Price:       num(c, "price"),
		Resilience:  num(c, "resilience"),
		LureSpeed:   num(c, "lureSpeed"),
		Luck:        num(c, "luck"),
		Control:     num(c, "control"),
		MaxKg:       num(c, "maxKg"),
		Location:    str(c, "location"),
		Passive:     str(c, "passive"),
		Description: TextFrom(c.Get("description")),
	}
}

// Location is the typed view of a canonical location record.
type Location struct {
	ID          string
	Name        string
	Region      Opt[string]
	Fish        []string
	Weather     []string
	Description Opt[Text]
}

func LocationFrom(c Canonical) Location {
	return Location{
		ID:          c.ID,
		Name:        c.Name,
		Region:      str(c, "region"),
		Fish:        strs(c, "fish"),
		Weather:     strs(c, "weather"),
		Description: TextFrom(c.Get("description")),
	}
}
