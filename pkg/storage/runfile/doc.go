// Package runfile reads and writes temporary run files: sequences of
// page-sized tuple batches spilled by sorts and joins.
//
// On disk a run file is a sequence of pages. Each page is a big-endian
// uint32 tuple count followed by that many fixed-width tuples encoded with
// the schema the file was written with. Only the last page may be partial.
//
// A Writer accepts tuples one at a time and flushes a page whenever its
// batch fills, and once more on Close for the final partial batch. A Reader
// hides page boundaries and returns tuples one at a time, or whole pages
// through NextBatch. Files are owned by the component that created them and
// are deleted with Remove, which tolerates files that never got created.
package runfile
