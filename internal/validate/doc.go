// Package validate checks enriched corpora for structural and statistical
// health.
//
// Structural errors (missing required fields, non-finite or non-number values
// in numeric fields, duplicate ids, inverted ranges, records attributed to no
// source) break the build: Report.ExitCode is nonzero when any exist.
// Quality warnings (zero or negative magnitudes, implausible ratios, fields
// whose coverage falls below the configured floor) are reported only.
//
// The aggregate health score is the mean per-field coverage minus a capped
// error penalty, clamped to 0..100 and graded A..F.
package validate
