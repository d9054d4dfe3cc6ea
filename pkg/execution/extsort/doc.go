// Package extsort implements a bounded-memory external merge sort.
//
// Pass 0 reads the input numBuffers pages at a time, sorts each chunk in
// memory and writes it out as a run file. While more than numBuffers-1 runs
// exist, merge passes combine groups of numBuffers-1 runs into one. The
// final numBuffers-1 or fewer runs are merged on the fly as the consumer
// pulls batches from Next.
//
// The output is a stable total order on the key columns: equal keys keep
// their input order, because runs are produced in input order and the
// merge breaks ties by run position.
package extsort
