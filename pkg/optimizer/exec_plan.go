package optimizer

import (
	"qexec/pkg/dberror"
	"qexec/pkg/execution/extsort"
	"qexec/pkg/execution/join"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
)

// bufferUser is implemented by operators that sort their input.
type bufferUser interface {
	SetNumBuffers(n int)
}

// MakeExecPlan binds a logical plan to executable operators. Every join
// becomes the physical join of its method with bm.PerJoin() pages; sorts
// and duplicate elimination get the whole budget. The logical plan is
// cloned first and stays usable.
func MakeExecPlan(ctx *registry.ExecContext, plan iterator.Operator, bm *BufferManager) (iterator.Operator, error) {
	return bind(ctx, plan.Clone(), bm)
}

func bind(ctx *registry.ExecContext, op iterator.Operator, bm *BufferManager) (iterator.Operator, error) {
	switch n := op.(type) {
	case *join.Join:
		left, err := bind(ctx, n.Left(), bm)
		if err != nil {
			return nil, err
		}
		right, err := bind(ctx, n.Right(), bm)
		if err != nil {
			return nil, err
		}
		n.SetLeft(left)
		n.SetRight(right)
		if err := n.RefreshTupleDesc(); err != nil {
			return nil, err
		}
		return join.NewPhysical(ctx, n, bm.PerJoin())

	case iterator.UnaryNode:
		child, err := bind(ctx, n.Child(), bm)
		if err != nil {
			return nil, err
		}
		n.SetChild(child)
		if err := n.RefreshTupleDesc(); err != nil {
			return nil, err
		}
		if u, ok := op.(bufferUser); ok {
			if bm.Total() < extsort.MinBuffers {
				return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeTooFewBuffers,
					"%s needs at least %d buffer pages, got %d", op.OpType(), extsort.MinBuffers, bm.Total())
			}
			u.SetNumBuffers(bm.Total())
		}
		return n, nil
	}
	return op, nil
}
