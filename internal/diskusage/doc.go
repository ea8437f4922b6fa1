// Package diskusage computes on-disk usage for a directory tree.
//
// It walks the tree using fastwalk for parallel traversal, probes every file
// for the space it actually occupies, counts hard-linked content once,
// rolls sizes up into per-directory totals and ranks the largest entries.
// Per-entry failures are collected into the result; only an unusable root
// aborts a scan.
package diskusage
