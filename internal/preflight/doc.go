// Package preflight provides readiness checks for the filesystem paths,
// executables and remote endpoints a pipeline run depends on.
//
// These checks run in two contexts:
//   - The "fischpipe check" command runs RunAll and prints every result.
//   - Pipeline steps use CheckFile and the fetch probe as cheap pre-checks
//     before expensive work; a failed pre-check skips the step.
package preflight
