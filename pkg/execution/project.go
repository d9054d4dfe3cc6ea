package execution

import (
	"fmt"

	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
)

// Project narrows its child's tuples to a list of attributes.
//
// Conceptually: SELECT e.name, d.title FROM ...
type Project struct {
	iterator.UnaryBase
	ctx   *registry.ExecContext
	attrs []tuple.Attribute

	indices   []int
	batchSize int
	cursor    *iterator.Cursor
}

// NewProject creates a projection of child onto attrs, in that order.
func NewProject(ctx *registry.ExecContext, attrs []tuple.Attribute, child iterator.Operator) (*Project, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	if ctx == nil {
		return nil, fmt.Errorf("execution context cannot be nil")
	}
	if len(attrs) == 0 {
		return nil, fmt.Errorf("must project at least one attribute")
	}

	p := &Project{
		UnaryBase: iterator.NewUnaryBase(child, nil),
		ctx:       ctx,
		attrs:     append([]tuple.Attribute(nil), attrs...),
	}
	if err := p.RefreshTupleDesc(); err != nil {
		return nil, err
	}
	return p, nil
}

// Attributes returns the projected attribute list.
func (p *Project) Attributes() []tuple.Attribute { return p.attrs }

// RefreshTupleDesc recomputes column positions and the output schema,
// which change when the join order below is rewritten.
func (p *Project) RefreshTupleDesc() error {
	childDesc := p.Child().GetTupleDesc()
	desc, err := childDesc.SubSchema(p.attrs)
	if err != nil {
		return err
	}
	indices, err := childDesc.Indices(p.attrs)
	if err != nil {
		return err
	}
	batchSize, err := tuple.BatchCapacity(p.ctx.PageSize(), desc.GetSize())
	if err != nil {
		return err
	}

	p.SetTupleDesc(desc)
	p.indices = indices
	p.batchSize = batchSize
	return nil
}

func (p *Project) Open() error {
	if err := p.Child().Open(); err != nil {
		return err
	}
	p.cursor = iterator.NewCursor(p.Child())
	return nil
}

func (p *Project) Next() (*tuple.Batch, error) {
	if p.cursor == nil {
		return nil, nil
	}

	out := tuple.NewBatch(p.batchSize)
	for !out.IsFull() {
		t, err := p.cursor.Next()
		if err != nil {
			return nil, err
		}
		if t == nil {
			p.cursor = nil
			break
		}
		if err := out.Add(t.Project(p.indices)); err != nil {
			return nil, err
		}
	}

	if out.IsEmpty() {
		return nil, nil
	}
	return out, nil
}

func (p *Project) Close() error {
	p.cursor = nil
	return p.Child().Close()
}

func (p *Project) Clone() iterator.Operator {
	return &Project{
		UnaryBase: iterator.NewUnaryBase(p.Child().Clone(), p.GetTupleDesc().Clone()),
		ctx:       p.ctx,
		attrs:     append([]tuple.Attribute(nil), p.attrs...),
		indices:   append([]int(nil), p.indices...),
		batchSize: p.batchSize,
	}
}

func (p *Project) OpType() iterator.OpType { return iterator.OpProject }
