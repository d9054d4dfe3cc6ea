package query

import (
	"fmt"

	"qexec/pkg/dberror"
	"qexec/pkg/execution/extsort"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
)

// OrderBy sorts its input on one or more attributes in a single direction.
//
// Implementation:
//   - Delegates to an external sort, so the input may exceed memory
//   - Blocking: the whole input is consumed in Open
//   - Uses the full buffer budget it is given; the plan materializer sets
//     it with SetNumBuffers
type OrderBy struct {
	iterator.UnaryBase
	ctx        *registry.ExecContext
	attrs      []tuple.Attribute
	descending bool
	numBuffers int

	keys []int
	sort *extsort.ExternalSort
}

// NewOrderBy creates a sort of child on attrs.
func NewOrderBy(ctx *registry.ExecContext, attrs []tuple.Attribute, descending bool, numBuffers int, child iterator.Operator) (*OrderBy, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	if len(attrs) == 0 {
		return nil, dberror.New(dberror.CategoryPlan, dberror.CodeInvalidPlan, "ORDER BY needs at least one attribute")
	}

	o := &OrderBy{
		UnaryBase:  iterator.NewUnaryBase(child, child.GetTupleDesc()),
		ctx:        ctx,
		attrs:      append([]tuple.Attribute(nil), attrs...),
		descending: descending,
		numBuffers: numBuffers,
	}
	if err := o.RefreshTupleDesc(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OrderBy) Attributes() []tuple.Attribute { return o.attrs }
func (o *OrderBy) Descending() bool              { return o.descending }
func (o *OrderBy) NumBuffers() int               { return o.numBuffers }

// SetNumBuffers changes the page budget used by the next Open.
func (o *OrderBy) SetNumBuffers(n int) { o.numBuffers = n }

// RefreshTupleDesc adopts the child's schema and re-resolves the sort keys.
func (o *OrderBy) RefreshTupleDesc() error {
	desc := o.Child().GetTupleDesc()
	keys, err := desc.Indices(o.attrs)
	if err != nil {
		return err
	}
	o.SetTupleDesc(desc)
	o.keys = keys
	return nil
}

func (o *OrderBy) Open() error {
	if err := o.Close(); err != nil {
		return err
	}
	s, err := extsort.New(o.ctx, "OrderBy", o.Child(), o.keys, o.descending, o.numBuffers)
	if err != nil {
		return err
	}
	if err := s.Open(); err != nil {
		return err
	}
	o.sort = s
	return nil
}

func (o *OrderBy) Next() (*tuple.Batch, error) {
	if o.sort == nil {
		return nil, dberror.New(dberror.CategoryInternal, dberror.CodeNotOpen, "order by is not open")
	}
	return o.sort.Next()
}

func (o *OrderBy) Close() error {
	if o.sort == nil {
		return nil
	}
	err := o.sort.Close()
	o.sort = nil
	return err
}

func (o *OrderBy) Clone() iterator.Operator {
	return &OrderBy{
		UnaryBase:  iterator.NewUnaryBase(o.Child().Clone(), o.GetTupleDesc()),
		ctx:        o.ctx,
		attrs:      append([]tuple.Attribute(nil), o.attrs...),
		descending: o.descending,
		numBuffers: o.numBuffers,
		keys:       append([]int(nil), o.keys...),
	}
}

func (o *OrderBy) OpType() iterator.OpType { return iterator.OpSort }
