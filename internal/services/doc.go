// Package services defines shared utilities consumed by the pipeline steps and
// the corpus stages.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, step names, and entity kinds
//     for logging.
//   - Structured error markers plus the Wrap helper that map failures onto the
//     pipeline taxonomy (structural, quality, fetch, step, dependency).
//
// Use these helpers when wiring new step logic so operational behaviour (error
// classification, observability, retries) stays uniform across the pipeline.
package services
