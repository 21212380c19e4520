// Package compare produces tree-shaped diff results between two snapshots of a file.
//
// Four techniques are supported:
//   - hash: blake2b digests of both sides, and whether they are equal
//   - similarity: a content-aware comparator (markdown, tabular data), or hash when none applies
//   - custom: a user-provided script, invoked with the paths of the current then the previous snapshot
//   - smart: the hash result, merged with the similarity result whenever a content-aware comparator applies
package compare
