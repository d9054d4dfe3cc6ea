package tuple

import (
	"qexec/pkg/dberror"
)

// Batch is a page-sized, bounded sequence of tuples. It is the unit of
// run-file I/O and of operator output.
type Batch struct {
	capacity int
	tuples   []*Tuple
}

// NewBatch creates an empty batch holding at most capacity tuples.
func NewBatch(capacity int) *Batch {
	return &Batch{
		capacity: capacity,
		tuples:   make([]*Tuple, 0, capacity),
	}
}

// BatchCapacity returns how many tuples of the given width fit in one page.
func BatchCapacity(pageSize, tupleSize int) (int, error) {
	if tupleSize <= 0 || pageSize/tupleSize < 1 {
		return 0, dberror.Newf(dberror.CategoryPlan, dberror.CodeTupleTooLarge,
			"tuple of %d bytes does not fit in a %d byte page", tupleSize, pageSize)
	}
	return pageSize / tupleSize, nil
}

// Add appends t, failing when the batch is already full.
func (b *Batch) Add(t *Tuple) error {
	if len(b.tuples) >= b.capacity {
		return dberror.Newf(dberror.CategoryInternal, dberror.CodeBatchFull,
			"batch is full (capacity %d)", b.capacity)
	}
	b.tuples = append(b.tuples, t)
	return nil
}

func (b *Batch) Get(i int) *Tuple { return b.tuples[i] }
func (b *Batch) Len() int         { return len(b.tuples) }
func (b *Batch) Capacity() int    { return b.capacity }
func (b *Batch) IsFull() bool     { return len(b.tuples) >= b.capacity }
func (b *Batch) IsEmpty() bool    { return len(b.tuples) == 0 }
func (b *Batch) Tuples() []*Tuple { return b.tuples }
func (b *Batch) Remaining() int   { return b.capacity - len(b.tuples) }
