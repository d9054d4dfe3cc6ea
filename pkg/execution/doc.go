// Package execution is the root of qexec's query execution engine.
//
// Every operator implements iterator.Operator: Open / Next / Close over
// page-sized tuple batches. Operators are composed into a tree and the
// root is pulled until it returns a nil batch. Sorts and joins spill to
// run files so that no operator holds more than its share of buffer pages.
//
// # Sub-packages
//
//   - [qexec/pkg/execution/scanner] – in-memory and Pebble table scans.
//   - [qexec/pkg/execution/extsort] – bounded-memory external merge sort.
//   - [qexec/pkg/execution/join]    – logical join node plus nested-loop,
//     block-nested-loop and sort-merge join algorithms.
//   - [qexec/pkg/execution/setops]  – duplicate elimination.
//   - [qexec/pkg/execution/query]   – ORDER BY.
//
// This package holds the row-at-a-time relational operators Select and Project.
package execution
