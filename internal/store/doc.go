// Package store persists pipeline run history and the published corpus in a
// SQLite database.
//
// Runs and their per-step results are recorded after every invocation and
// back the "fischpipe history" command. The publish step replaces each entity
// kind's corpus rows wholesale inside one transaction, so readers see either
// the previous corpus or the new one.
package store
