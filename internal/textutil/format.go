package textutil

import (
	"math"
	"strconv"
	"strings"
)

// magnitudes is ordered from smallest to largest.
var magnitudes = []struct {
	threshold float64
	suffix    string
}{
	{1, ""},
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "B"},
	{1e12, "T"},
}

// FormatCompact renders a number with a K/M/B/T suffix and at most one
// decimal place: 1500 -> "1.5K", 2000000 -> "2M", 950 -> "950".
// Rounding happens before the suffix is chosen, so 999960 is "1M".
func FormatCompact(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	i := 0
	for i+1 < len(magnitudes) && value >= magnitudes[i+1].threshold {
		i++
	}
	scaled := roundTenth(value / magnitudes[i].threshold)
	for scaled >= 1000 && i+1 < len(magnitudes) {
		i++
		scaled = roundTenth(value / magnitudes[i].threshold)
	}
	if scaled == 0 {
		sign = ""
	}
	out := strconv.FormatFloat(scaled, 'f', 1, 64)
	return sign + strings.TrimSuffix(out, ".0") + magnitudes[i].suffix
}

func roundTenth(value float64) float64 {
	return math.Round(value*10) / 10
}
