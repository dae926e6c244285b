// Package logging assembles structured slog loggers and formatting helpers used
// across fischpipe.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so step code can automatically tag log
// lines with run identifiers, step names, and entity kinds. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
