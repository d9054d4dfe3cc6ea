package iterator

import (
	"qexec/pkg/tuple"
)

// UnaryBase carries the child link and output schema shared by
// single-input operators such as Select, Project, Distinct and OrderBy.
// Embedders provide Open, Next, Close, Clone and RefreshTupleDesc.
type UnaryBase struct {
	child Operator
	desc  *tuple.TupleDescription
}

// NewUnaryBase links child and records the initial output schema.
func NewUnaryBase(child Operator, desc *tuple.TupleDescription) UnaryBase {
	return UnaryBase{child: child, desc: desc}
}

func (u *UnaryBase) Child() Operator { return u.child }

func (u *UnaryBase) SetChild(child Operator) { u.child = child }

func (u *UnaryBase) GetTupleDesc() *tuple.TupleDescription { return u.desc }

// SetTupleDesc replaces the output schema after a rewrite below this node.
func (u *UnaryBase) SetTupleDesc(desc *tuple.TupleDescription) { u.desc = desc }
