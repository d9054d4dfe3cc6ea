package setops

import (
	"fmt"

	"qexec/pkg/dberror"
	"qexec/pkg/execution/extsort"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
)

// Distinct operator removes duplicate tuples from its input stream.
//
// Implementation:
//   - Sorts the input on every column with an external sort
//   - Emits a tuple only when it differs from the last one emitted
//   - Memory usage: bounded by the sort's buffer budget
type Distinct struct {
	iterator.UnaryBase
	ctx        *registry.ExecContext
	numBuffers int

	batchSize int
	cmp       *tuple.Comparator
	sort      *extsort.ExternalSort
	cursor    *iterator.Cursor
	last      *tuple.Tuple
}

// NewDistinct creates a new Distinct operator that removes duplicates from input.
func NewDistinct(ctx *registry.ExecContext, numBuffers int, child iterator.Operator) (*Distinct, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	d := &Distinct{
		UnaryBase:  iterator.NewUnaryBase(child, child.GetTupleDesc()),
		ctx:        ctx,
		numBuffers: numBuffers,
	}
	if err := d.RefreshTupleDesc(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Distinct) NumBuffers() int     { return d.numBuffers }
func (d *Distinct) SetNumBuffers(n int) { d.numBuffers = n }

func (d *Distinct) RefreshTupleDesc() error {
	desc := d.Child().GetTupleDesc()
	batchSize, err := tuple.BatchCapacity(d.ctx.PageSize(), desc.GetSize())
	if err != nil {
		return err
	}
	d.SetTupleDesc(desc)
	d.batchSize = batchSize
	d.cmp = tuple.NewComparator(desc.AllIndices(), false)
	return nil
}

func (d *Distinct) Open() error {
	if err := d.Close(); err != nil {
		return err
	}
	s, err := extsort.New(d.ctx, "Distinct", d.Child(), d.GetTupleDesc().AllIndices(), false, d.numBuffers)
	if err != nil {
		return err
	}
	if err := s.Open(); err != nil {
		return err
	}
	d.sort = s
	d.cursor = iterator.NewCursor(s)
	d.last = nil
	return nil
}

// Next fills a batch with tuples that differ from their predecessor in
// sorted order.
func (d *Distinct) Next() (*tuple.Batch, error) {
	if d.sort == nil {
		return nil, dberror.New(dberror.CategoryInternal, dberror.CodeNotOpen, "distinct is not open")
	}

	out := tuple.NewBatch(d.batchSize)
	for !out.IsFull() {
		t, err := d.cursor.Next()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}

		if d.last != nil {
			c, err := d.cmp.Compare(d.last, t)
			if err != nil {
				return nil, err
			}
			if c == 0 {
				continue
			}
		}
		d.last = t
		if err := out.Add(t); err != nil {
			return nil, err
		}
	}

	if out.IsEmpty() {
		return nil, nil
	}
	return out, nil
}

func (d *Distinct) Close() error {
	d.cursor = nil
	d.last = nil
	if d.sort == nil {
		return nil
	}
	err := d.sort.Close()
	d.sort = nil
	return err
}

func (d *Distinct) Clone() iterator.Operator {
	return &Distinct{
		UnaryBase:  iterator.NewUnaryBase(d.Child().Clone(), d.GetTupleDesc()),
		ctx:        d.ctx,
		numBuffers: d.numBuffers,
		batchSize:  d.batchSize,
		cmp:        d.cmp,
	}
}

func (d *Distinct) OpType() iterator.OpType { return iterator.OpDistinct }
