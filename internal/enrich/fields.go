package enrich

import (
	"strings"

	"fischpipe/internal/record"
	"fischpipe/internal/textutil"
)

// Difficulty buckets.
const (
	DifficultyEasy    = "Easy"
	DifficultyMedium  = "Medium"
	DifficultyHard    = "Hard"
	DifficultyExtreme = "Extreme"
)

// Recommendations.
const (
	RecommendAlwaysKeep = "always-keep"
	RecommendKeep       = "keep"
	RecommendSell       = "sell"
)

const neutralLevel = 2

// chanceLevel maps catch chance (percent) to a level: rarer is harder.
func chanceLevel(chance record.Opt[float64]) int {
	c, ok := chance.Get()
	switch {
	case !ok:
		return neutralLevel
	case c >= 20:
		return 1
	case c >= 5:
		return 2
	case c >= 1:
		return 3
	default:
		return 4
	}
}

func resilienceLevel(resilience record.Opt[float64]) int {
	r, ok := resilience.Get()
	switch {
	case !ok:
		return neutralLevel
	case r <= 20:
		return 1
	case r <= 50:
		return 2
	case r <= 80:
		return 3
	default:
		return 4
	}
}

func conditionLevel(n int) int {
	if n >= 3 {
		return 4
	}
	return n + 1
}

func isAny(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "" || v == "any" || v == "all"
}

// Conditions lists the situational requirements of a fish in clause order:
// weather, time, season, event, bait. "Any" values are not conditions.
func Conditions(f record.Fish) []string {
	var out []string
	for _, w := range f.Weather {
		if !isAny(w) {
			out = append(out, "weather")
			break
		}
	}
	if t, ok := f.Time.Get(); ok && !isAny(t) {
		out = append(out, "time")
	}
	for _, s := range f.Seasons {
		if !isAny(s) {
			out = append(out, "season")
			break
		}
	}
	if _, ok := f.Event.Get(); ok {
		out = append(out, "event")
	}
	if b, ok := f.Bait.Get(); ok && !isAny(b) {
		out = append(out, "bait")
	}
	return out
}

// Difficulty averages the chance, resilience and condition levels and
// buckets the result.
func Difficulty(f record.Fish) string {
	sum := chanceLevel(f.Chance) + resilienceLevel(f.Resilience) + conditionLevel(len(Conditions(f)))
	avg := float64(sum) / 3
	switch {
	case avg <= 1.5:
		return DifficultyEasy
	case avg <= 2.5:
		return DifficultyMedium
	case avg <= 3.5:
		return DifficultyHard
	default:
		return DifficultyExtreme
	}
}

// ValuePerHour is baseValue × averageWeight × chance/100 × 60.
func ValuePerHour(f record.Fish) record.Opt[float64] {
	value, okV := f.BaseValue.Get()
	weight, okW := f.AverageWeight().Get()
	chance, okC := f.Chance.Get()
	if !okV || !okW || !okC || chance <= 0 {
		return record.None[float64]()
	}
	return record.Some(value * weight * (chance / 100) * 60)
}

// Policy decides keep/sell recommendations.
type Policy struct {
	AlwaysKeep      []string
	ConditionalKeep []string
	KeepChanceBelow float64
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

// Recommend returns always-keep for allow-listed rarities, keep for the
// conditional tier while chance is below the threshold, otherwise sell.
func (p Policy) Recommend(f record.Fish) string {
	rarity := f.Rarity.OrElse("")
	if containsFold(p.AlwaysKeep, rarity) {
		return RecommendAlwaysKeep
	}
	if containsFold(p.ConditionalKeep, rarity) {
		if chance, ok := f.Chance.Get(); ok && chance < p.KeepChanceBelow {
			return RecommendKeep
		}
	}
	return RecommendSell
}

// FormattedValue renders baseValue × averageWeight with a magnitude suffix.
func FormattedValue(f record.Fish) record.Opt[string] {
	value, okV := f.BaseValue.Get()
	weight, okW := f.AverageWeight().Get()
	if !okV || !okW {
		return record.None[string]()
	}
	return record.Some(textutil.FormatCompact(value * weight))
}
