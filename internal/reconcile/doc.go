// Package reconcile merges two raw source arrays for one entity kind into a
// canonical corpus.
//
// Records are matched by natural key (the case-folded, whitespace-collapsed
// name). Every canonical field is resolved by the entity's precedence table:
// each rule names a strategy, the source order it consults and the raw keys
// to read per source. Bad values never abort a merge: they are coerced to
// null and reported in Result.Coerced. Records without a resolvable name are
// dropped and reported in Result.Dropped.
//
// Output is sorted by name then id and is byte-identical across runs for
// identical input.
package reconcile
