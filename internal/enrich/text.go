package enrich

import (
	"fmt"
	"strings"

	"fischpipe/internal/record"
	"fischpipe/internal/textutil"
)

type clause int

const (
	clauseLocation clause = iota
	clauseGear
	clauseConditions
	clauseAcquisition
	clauseEvent
	clauseDifficulty
	clauseRecommendation
	clauseThroughput
)

var (
	descriptionClauses = []clause{clauseLocation, clauseAcquisition, clauseEvent, clauseRecommendation, clauseThroughput}
	howToClauses       = []clause{clauseLocation, clauseGear, clauseConditions, clauseEvent, clauseDifficulty}
)

// fishFacts carries the derived values the text clauses mention.
type fishFacts struct {
	fish           record.Fish
	rod            record.Opt[string]
	difficulty     string
	recommendation string
	perHour        record.Opt[float64]
}

func (ff fishFacts) render(c clause) string {
	f := ff.fish
	switch c {
	case clauseLocation:
		if loc, ok := f.Location.Get(); ok {
			return fmt.Sprintf("Found at %s.", loc)
		}
	case clauseGear:
		rod, hasRod := ff.rod.Get()
		bait, hasBait := f.Bait.Get()
		if hasBait && isAny(bait) {
			hasBait = false
		}
		switch {
		case hasRod && hasBait:
			return fmt.Sprintf("Use the %s with %s bait.", rod, bait)
		case hasRod:
			return fmt.Sprintf("Use the %s or stronger.", rod)
		case hasBait:
			return fmt.Sprintf("Use %s bait.", bait)
		}
	case clauseConditions:
		var parts []string
		if w := nonAny(f.Weather); len(w) > 0 {
			parts = append(parts, "during "+joinOr(w)+" weather")
		}
		if t, ok := f.Time.Get(); ok && !isAny(t) {
			parts = append(parts, "at "+strings.ToLower(t))
		}
		if s := nonAny(f.Seasons); len(s) > 0 {
			parts = append(parts, "in "+joinOr(s))
		}
		if len(parts) > 0 {
			return "Bites " + strings.Join(parts, ", ") + "."
		}
	case clauseAcquisition:
		if src, ok := f.Source.Get(); ok && !strings.EqualFold(src, "fishing") {
			return fmt.Sprintf("Obtained from %s.", src)
		}
	case clauseEvent:
		if ev, ok := f.Event.Get(); ok {
			return fmt.Sprintf("Only available during the %s event.", ev)
		}
	case clauseDifficulty:
		if ff.difficulty != "" {
			return fmt.Sprintf("Difficulty: %s.", ff.difficulty)
		}
	case clauseRecommendation:
		switch ff.recommendation {
		case RecommendAlwaysKeep:
			return "Worth keeping for the collection."
		case RecommendKeep:
			return "Rare enough to keep."
		case RecommendSell:
			return "Safe to sell."
		}
	case clauseThroughput:
		if v, ok := ff.perHour.Get(); ok {
			return fmt.Sprintf("Estimated %s C$ per hour of dedicated fishing.", textutil.FormatCompact(v))
		}
	}
	return ""
}

func (ff fishFacts) assemble(lead string, clauses []clause) string {
	parts := make([]string, 0, len(clauses)+1)
	if lead != "" {
		parts = append(parts, lead)
	}
	for _, c := range clauses {
		if s := ff.render(c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (ff fishFacts) description() string {
	f := ff.fish
	lead := fmt.Sprintf("%s is a fish.", f.Name)
	if rarity, ok := f.Rarity.Get(); ok {
		lead = fmt.Sprintf("%s is %s %s fish.", f.Name, article(rarity), rarity)
	}
	return ff.assemble(lead, descriptionClauses)
}

func (ff fishFacts) howToCatch() string {
	return ff.assemble("", howToClauses)
}

func nonAny(values []string) []string {
	var out []string
	for _, v := range values {
		if !isAny(v) {
			out = append(out, v)
		}
	}
	return out
}

func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
	}
}

func article(word string) string {
	if word == "" {
		return "a"
	}
	switch strings.ToLower(word[:1]) {
	case "a", "e", "i", "o", "u":
		return "an"
	default:
		return "a"
	}
}

func rodDescription(r record.Rod) string {
	parts := []string{fmt.Sprintf("%s is a fishing rod.", r.Name)}
	if loc, ok := r.Location.Get(); ok {
		if price, ok := r.Price.Get(); ok && price > 0 {
			parts = append(parts, fmt.Sprintf("Sold at %s for %s C$.", loc, textutil.FormatCompact(price)))
		} else {
			parts = append(parts, fmt.Sprintf("Obtained at %s.", loc))
		}
	}
	var stats []string
	if v, ok := r.Resilience.Get(); ok {
		stats = append(stats, fmt.Sprintf("resilience %s", textutil.FormatCompact(v)))
	}
	if v, ok := r.Luck.Get(); ok {
		stats = append(stats, fmt.Sprintf("luck %s%%", textutil.FormatCompact(v)))
	}
	if v, ok := r.MaxKg.Get(); ok {
		stats = append(stats, fmt.Sprintf("max weight %s kg", textutil.FormatCompact(v)))
	}
	if len(stats) > 0 {
		parts = append(parts, "Stats: "+strings.Join(stats, ", ")+".")
	}
	if passive, ok := r.Passive.Get(); ok {
		parts = append(parts, fmt.Sprintf("Passive: %s.", strings.TrimSuffix(passive, ".")))
	}
	return strings.Join(parts, " ")
}

func mutationDescription(m record.Mutation) string {
	parts := []string{fmt.Sprintf("%s is a fish mutation.", m.Name)}
	if mult, ok := m.Multiplier.Get(); ok {
		parts = append(parts, fmt.Sprintf("Multiplies sell value by %sx.", textutil.FormatCompact(mult)))
	}
	if src, ok := m.Source.Get(); ok {
		parts = append(parts, fmt.Sprintf("Obtained from %s.", src))
	}
	return strings.Join(parts, " ")
}

const locationFishListed = 5

func locationDescription(l record.Location) string {
	parts := []string{fmt.Sprintf("%s is a fishing location.", l.Name)}
	if region, ok := l.Region.Get(); ok {
		parts[0] = fmt.Sprintf("%s is a fishing location in %s.", l.Name, region)
	}
	if n := len(l.Fish); n > 0 {
		listed := l.Fish
		suffix := ""
		if n > locationFishListed {
			listed = l.Fish[:locationFishListed]
			suffix = fmt.Sprintf(" and %d more", n-locationFishListed)
		}
		noun := "fish species"
		if n == 1 {
			noun = "fish"
		}
		parts = append(parts, fmt.Sprintf("Home to %d %s: %s%s.", n, noun, strings.Join(listed, ", "), suffix))
	}
	if w := nonAny(l.Weather); len(w) > 0 {
		parts = append(parts, "Weather: "+strings.Join(w, ", ")+".")
	}
	return strings.Join(parts, " ")
}
