package iterator

import "qexec/pkg/tuple"

// OpType tags the kind of a plan node. The optimizer and the plan
// materializer dispatch on it when walking a tree.
type OpType int

const (
	OpScan OpType = iota
	OpSelect
	OpProject
	OpJoin
	OpSort
	OpDistinct
)

func (t OpType) String() string {
	switch t {
	case OpScan:
		return "Scan"
	case OpSelect:
		return "Select"
	case OpProject:
		return "Project"
	case OpJoin:
		return "Join"
	case OpSort:
		return "Sort"
	case OpDistinct:
		return "Distinct"
	default:
		return "Unknown"
	}
}

// Operator is the pull contract every plan node implements.
//
// Open prepares inputs: it opens children and performs any sorting or
// materialization the algorithm needs. Next returns one output batch per
// call. A batch may be empty or partially filled without meaning the
// stream ended; a nil batch with a nil error is the end of the stream.
// Operators resume exactly where the previous call stopped. Close releases
// file handles and deletes temp files the operator created, and is safe
// to call more than once, including after a failed Open.
type Operator interface {
	Open() error

	Next() (*tuple.Batch, error)

	Close() error

	// Clone returns an unopened deep copy of the subtree rooted here.
	// Mutable child links are never shared between the copy and the original.
	Clone() Operator

	// GetTupleDesc returns the output schema. It is valid before Open.
	GetTupleDesc() *tuple.TupleDescription

	OpType() OpType
}

// UnaryNode is an operator with a single input whose link can be rewired.
type UnaryNode interface {
	Operator

	Child() Operator

	SetChild(child Operator)

	// RefreshTupleDesc recomputes the output schema from the child's.
	RefreshTupleDesc() error
}

// BinaryNode is an operator with two rewirable inputs.
type BinaryNode interface {
	Operator

	Left() Operator
	Right() Operator

	SetLeft(left Operator)
	SetRight(right Operator)

	// RefreshTupleDesc recomputes the output schema from the children's.
	RefreshTupleDesc() error
}

// TupleSource yields tuples one at a time; nil means exhausted.
type TupleSource interface {
	Next() (*tuple.Tuple, error)
}

// TupleSink accepts tuples one at a time.
type TupleSink interface {
	WriteTuple(t *tuple.Tuple) error
}
