package iterator

import "fmt"

// SliceIterator walks a slice with a read position. It has no lifecycle:
// create a new one instead of resetting when the data changes.
//
//	iter := NewSliceIterator(tuples)
//	for iter.HasNext() {
//	    t, _ := iter.Next()
//	    ...
//	}
type SliceIterator[T any] struct {
	data []T
	pos  int
}

func NewSliceIterator[T any](data []T) *SliceIterator[T] {
	return &SliceIterator[T]{data: data}
}

func (it *SliceIterator[T]) HasNext() bool {
	return it.pos < len(it.data)
}

// Next returns the element at the read position and advances it.
func (it *SliceIterator[T]) Next() (T, error) {
	var zero T
	if it.pos >= len(it.data) {
		return zero, fmt.Errorf("no more elements (position %d, length %d)", it.pos, len(it.data))
	}
	v := it.data[it.pos]
	it.pos++
	return v, nil
}

// Rewind moves the read position back to the start.
func (it *SliceIterator[T]) Rewind() {
	it.pos = 0
}

// Len returns the total number of elements.
func (it *SliceIterator[T]) Len() int {
	return len(it.data)
}
