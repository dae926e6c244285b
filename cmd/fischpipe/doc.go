// Package main hosts the fischpipe CLI entrypoint and command graph.
//
// The Cobra command tree runs the full pipeline or a single stage (reconcile,
// enrich, validate), performs preflight checks, lists run history from the
// store and scaffolds configuration. Configuration loading and logger setup
// happen once in the shared command context so subcommands only wire the
// internal packages together and render their results.
package main
