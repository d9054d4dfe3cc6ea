package execution

import (
	"fmt"

	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
)

// Select passes through the tuples of its child that satisfy a predicate.
// It keeps a tuple cursor into the child so that each output batch is
// filled completely unless the input runs out.
type Select struct {
	iterator.UnaryBase
	ctx       *registry.ExecContext
	predicate *Predicate

	bound     boundPredicate
	batchSize int
	cursor    *iterator.Cursor
}

// NewSelect creates a filter over child.
func NewSelect(ctx *registry.ExecContext, predicate *Predicate, child iterator.Operator) (*Select, error) {
	if predicate == nil {
		return nil, fmt.Errorf("predicate cannot be nil")
	}
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	if ctx == nil {
		return nil, fmt.Errorf("execution context cannot be nil")
	}

	s := &Select{
		UnaryBase: iterator.NewUnaryBase(child, child.GetTupleDesc()),
		ctx:       ctx,
		predicate: predicate,
	}
	if err := s.RefreshTupleDesc(); err != nil {
		return nil, err
	}
	return s, nil
}

// Predicate returns the filter condition.
func (s *Select) Predicate() *Predicate { return s.predicate }

// RefreshTupleDesc adopts the child's schema and re-resolves the predicate.
func (s *Select) RefreshTupleDesc() error {
	desc := s.Child().GetTupleDesc()
	bound, err := s.predicate.bind(desc)
	if err != nil {
		return err
	}
	batchSize, err := tuple.BatchCapacity(s.ctx.PageSize(), desc.GetSize())
	if err != nil {
		return err
	}

	s.SetTupleDesc(desc)
	s.bound = bound
	s.batchSize = batchSize
	return nil
}

func (s *Select) Open() error {
	if err := s.Child().Open(); err != nil {
		return err
	}
	s.cursor = iterator.NewCursor(s.Child())
	return nil
}

func (s *Select) Next() (*tuple.Batch, error) {
	if s.cursor == nil {
		return nil, nil
	}

	out := tuple.NewBatch(s.batchSize)
	for !out.IsFull() {
		t, err := s.cursor.Next()
		if err != nil {
			return nil, err
		}
		if t == nil {
			s.cursor = nil
			break
		}

		ok, err := s.bound.Filter(t)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := out.Add(t); err != nil {
				return nil, err
			}
		}
	}

	if out.IsEmpty() && s.cursor == nil {
		return nil, nil
	}
	return out, nil
}

func (s *Select) Close() error {
	s.cursor = nil
	return s.Child().Close()
}

func (s *Select) Clone() iterator.Operator {
	return &Select{
		UnaryBase: iterator.NewUnaryBase(s.Child().Clone(), s.GetTupleDesc().Clone()),
		ctx:       s.ctx,
		predicate: s.predicate,
		bound:     s.bound,
		batchSize: s.batchSize,
	}
}

func (s *Select) OpType() iterator.OpType { return iterator.OpSelect }
