// Package textutil provides the text helpers shared by the corpus stages.
//
// The primary use cases are:
//   - Folding entity names into natural keys for cross-source matching
//   - Deriving URL-safe slugs used as fallback record identifiers
//   - Formatting large numbers with magnitude suffixes for display
//
// Case folding and diacritic stripping go through golang.org/x/text so keys
// behave the same for accented and non-Latin names.
package textutil
