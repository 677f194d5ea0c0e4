// Package tagindex holds the pure tag-index algorithms.
//
// The production index lives in SQLite and is maintained incrementally by
// the engine using Normalize and Diff. Build rebuilds the same index from
// the full lineage set in memory; the reconciler compares the two.
//
// Tags are matched literally: no trimming, no case changes. Only prefix
// lookup is case-insensitive, using Unicode case folding (see Fold).
package tagindex
