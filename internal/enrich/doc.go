// Package enrich attaches derived analytic fields to canonical records.
//
// Every derived field is a pure function of one record plus the optional
// equipment catalog, so records are processed concurrently by a bounded
// errgroup. A missing input nulls only the field that needs it.
//
// Fish receive difficulty, recommendedRod, estimatedValuePerHour,
// recommendation, formattedValue, description and howToCatch. Rods, mutations
// and locations receive a formatted value where one applies and a generated
// description. Descriptive text is stored as {text, isGenerated}; text that
// was not generated is never overwritten, and hand-authored text from the
// previous enriched artifact is carried forward.
package enrich
