// Package record defines the data model shared by every corpus stage.
//
// Raw is the schema-free object an adapter emits. Canonical is the merged
// record the reconciler produces and the enricher extends: a stable id, a
// display name, a field map of tagged Values and the per-source dataSource
// flags. Fish, Mutation, Rod and Location are typed read-only views over a
// Canonical record in which every optional field is an Opt.
//
// Coercion from raw JSON values is explicit: the Coerce* helpers return an
// Opt plus ErrTypeMismatch so callers decide whether a bad value is a warning,
// an error or simply absent.
package record
