package join

import (
	"qexec/pkg/dberror"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
)

// Physical is implemented by every executable join.
type Physical interface {
	iterator.BinaryNode
	Logical() *Join
	NumBuffers() int
}

var (
	_ Physical = (*BlockNestedLoopJoin)(nil)
	_ Physical = (*NestedLoopJoin)(nil)
	_ Physical = (*SortMergeJoin)(nil)
)

// NewPhysical binds j to the algorithm its method names.
func NewPhysical(ctx *registry.ExecContext, j *Join, numBuffers int) (Physical, error) {
	var (
		p   Physical
		err error
	)
	switch j.Method() {
	case NestedLoop:
		p, err = NewNestedLoopJoin(ctx, j, numBuffers)
	case BlockNested:
		p, err = NewBlockNestedLoopJoin(ctx, j, numBuffers)
	case SortMerge:
		p, err = NewSortMergeJoin(ctx, j, numBuffers)
	default:
		err = dberror.Newf(dberror.CategoryPlan, dberror.CodeNotExecutable,
			"join #%d has no executable method (%s)", j.NodeIndex(), j.Method())
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
