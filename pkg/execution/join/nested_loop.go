package join

import (
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
)

// NestedLoopJoin rescans the materialized right input once per page of the
// left input.
type NestedLoopJoin struct {
	*blockNested
}

func NewNestedLoopJoin(ctx *registry.ExecContext, j *Join, numBuffers int) (*NestedLoopJoin, error) {
	bn, err := newBlockNested(ctx, j, "NLJ", numBuffers, 1)
	if err != nil {
		return nil, err
	}
	return &NestedLoopJoin{blockNested: bn}, nil
}

func (j *NestedLoopJoin) Clone() iterator.Operator {
	return &NestedLoopJoin{blockNested: j.clone()}
}
