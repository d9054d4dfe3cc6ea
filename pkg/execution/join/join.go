package join

import (
	"qexec/pkg/dberror"
	"qexec/pkg/iterator"
	"qexec/pkg/tuple"
)

// Join is the logical join node the optimizer rewrites. It records the
// inputs, the equality conditions, the chosen method, and a node index
// that is unique within a plan. A logical Join cannot execute; the plan
// materializer replaces it with a physical join of its method.
type Join struct {
	left       iterator.Operator
	right      iterator.Operator
	conditions []Condition
	method     Method
	nodeIndex  int
	desc       *tuple.TupleDescription
}

// NewJoin links left and right. Each condition is oriented so that its
// left attribute belongs to the left input; a condition that does not
// link the two inputs is a plan error.
func NewJoin(left, right iterator.Operator, conditions []Condition, method Method, nodeIndex int) (*Join, error) {
	if len(conditions) == 0 {
		return nil, dberror.New(dberror.CategoryPlan, dberror.CodeInvalidPlan,
			"join needs at least one equality condition")
	}

	j := &Join{method: method, nodeIndex: nodeIndex}
	if err := j.Reshape(left, right, conditions); err != nil {
		return nil, err
	}
	return j, nil
}

// Reshape rewires both inputs and replaces the conditions, orienting each
// against the new inputs. On error the join is left unchanged.
func (j *Join) Reshape(left, right iterator.Operator, conds []Condition) error {
	ld, rd := left.GetTupleDesc(), right.GetTupleDesc()
	oriented := make([]Condition, len(conds))
	for i, c := range conds {
		o, ok := orient(c, ld, rd)
		if !ok {
			return dberror.Newf(dberror.CategoryPlan, dberror.CodeUnknownAttr,
				"condition %s does not link (%s) and (%s)", c, ld, rd)
		}
		oriented[i] = o
	}
	j.left, j.right, j.conditions = left, right, oriented
	return j.RefreshTupleDesc()
}

func (j *Join) Left() iterator.Operator  { return j.left }
func (j *Join) Right() iterator.Operator { return j.right }

func (j *Join) SetLeft(left iterator.Operator)   { j.left = left }
func (j *Join) SetRight(right iterator.Operator) { j.right = right }

// Conditions returns the equality conditions, left side first.
func (j *Join) Conditions() []Condition { return j.conditions }

// SetConditions replaces the conditions verbatim.
func (j *Join) SetConditions(conds []Condition) {
	j.conditions = append([]Condition(nil), conds...)
}

// Condition returns the primary condition: the first one.
func (j *Join) Condition() Condition { return j.conditions[0] }

func (j *Join) Method() Method          { return j.method }
func (j *Join) SetMethod(method Method) { j.method = method }

func (j *Join) NodeIndex() int       { return j.nodeIndex }
func (j *Join) SetNodeIndex(idx int) { j.nodeIndex = idx }

// RefreshTupleDesc recomputes the output schema as left followed by right.
func (j *Join) RefreshTupleDesc() error {
	j.desc = tuple.Combine(j.left.GetTupleDesc(), j.right.GetTupleDesc())
	return nil
}

func (j *Join) GetTupleDesc() *tuple.TupleDescription { return j.desc }

func (j *Join) OpType() iterator.OpType { return iterator.OpJoin }

// KeyIndices resolves the conditions to column positions in each input.
func (j *Join) KeyIndices() (leftKeys, rightKeys []int, err error) {
	ld, rd := j.left.GetTupleDesc(), j.right.GetTupleDesc()
	leftKeys = make([]int, len(j.conditions))
	rightKeys = make([]int, len(j.conditions))
	for i, c := range j.conditions {
		leftKeys[i] = ld.IndexOf(c.Left)
		rightKeys[i] = rd.IndexOf(c.Right)
		if leftKeys[i] < 0 || rightKeys[i] < 0 {
			return nil, nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeUnknownAttr,
				"condition %s does not resolve against its inputs", c)
		}
	}
	return leftKeys, rightKeys, nil
}

// Clone deep-copies the subtree. The node index is preserved.
func (j *Join) Clone() iterator.Operator {
	return &Join{
		left:       j.left.Clone(),
		right:      j.right.Clone(),
		conditions: append([]Condition(nil), j.conditions...),
		method:     j.method,
		nodeIndex:  j.nodeIndex,
		desc:       j.desc.Clone(),
	}
}

func (j *Join) Open() error {
	return errLogical(j)
}

func (j *Join) Next() (*tuple.Batch, error) {
	return nil, errLogical(j)
}

func (j *Join) Close() error {
	return nil
}

func errLogical(j *Join) error {
	return dberror.Newf(dberror.CategoryPlan, dberror.CodeNotExecutable,
		"logical join #%d (%s) must be materialized before execution", j.nodeIndex, j.method).
		WithHint("run the plan through optimizer.MakeExecPlan")
}
