// Package storage is the root of qexec's on-disk state.
//
// # Sub-packages
//
//   - [qexec/pkg/storage/table]   – base tables kept in a Pebble store. Each
//     table has a YAML schema record and one key per row, ordered by row id.
//   - [qexec/pkg/storage/runfile] – temporary run files written by sorts and
//     joins. A run file is a sequence of fixed-capacity pages; a page starts
//     with its tuple count and holds that many serialized tuples.
//
// Run files live in the execution context's temp directory and are removed
// by the operator that created them when it closes.
package storage
