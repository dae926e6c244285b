// Package pipeline runs an ordered list of named steps with pre-checks,
// single-parent dependency skipping, per-step timeouts and failure
// containment.
//
// Steps execute strictly in declared order. A step ends in one of three
// states: ok, skipped (its pre-check failed, or its dependency did not finish
// ok) or error (execution failed or timed out). An error never stops later
// steps. After the last step the runner persists a run log, records the run in
// the store and invokes the publish hook only when no step errored.
//
// Adapter steps can be processed in bounded batches. A resume pointer stored
// next to the run log remembers the last adapter index processed so the next
// invocation continues from there and wraps to the start.
package pipeline
