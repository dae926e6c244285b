// Package corpus connects the artifact files to the reconcile, enrich and
// validate stages and assembles the default pipeline step list:
//
//	adapters → reconcile-<kind> → enrich-<kind> → validate
//
// followed by the publish hook, which loads the enriched artifacts into the
// store and optionally runs the configured publish command.
package corpus
