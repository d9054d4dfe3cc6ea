package optimizer

import (
	"math/rand"

	"qexec/pkg/execution/join"
	"qexec/pkg/iterator"
)

// Move is a transformation that turns a plan into a neighbouring one.
type Move int

const (
	MethodChoice Move = iota
	Commutative
	Associative

	numMoves = 3
)

func (m Move) String() string {
	switch m {
	case MethodChoice:
		return "method"
	case Commutative:
		return "commutative"
	case Associative:
		return "associative"
	default:
		return "unknown"
	}
}

// neighbor clones plan and applies a random move to a random join of the
// clone. plan itself is never modified.
func (o *Optimizer) neighbor(plan iterator.Operator) iterator.Operator {
	candidate := plan.Clone()
	if o.numJoins == 0 {
		return candidate
	}
	node := o.rng.Intn(o.numJoins)
	move := Move(o.rng.Intn(numMoves))
	o.applyMove(candidate, move, node)
	return candidate
}

// applyMove rewrites root in place. Moves that do not apply to the chosen
// join leave the plan unchanged.
func (o *Optimizer) applyMove(root iterator.Operator, move Move, nodeIndex int) {
	j := findJoin(root, nodeIndex)
	if j == nil {
		return
	}

	switch move {
	case MethodChoice:
		changeMethod(j, o.rng)
	case Commutative:
		commute(j)
	case Associative:
		o.associate(j)
	}

	if err := refreshSchemas(root); err != nil {
		o.log.Warn("schema refresh after move failed", "move", move.String(), "node", nodeIndex, "error", err)
	}
}

// changeMethod picks a different method uniformly at random.
func changeMethod(j *join.Join, rng *rand.Rand) {
	if join.NumMethods < 2 {
		return
	}
	m := join.Method(rng.Intn(join.NumMethods - 1))
	if m >= j.Method() {
		m++
	}
	j.SetMethod(m)
}

// commute turns A ⋈ B into B ⋈ A.
func commute(j *join.Join) {
	conds := j.Conditions()
	flipped := make([]join.Condition, len(conds))
	for i, c := range conds {
		flipped[i] = c.Flip()
	}
	_ = j.Reshape(j.Right(), j.Left(), flipped)
}

func (o *Optimizer) associate(op *join.Join) {
	_, leftIsJoin := op.Left().(*join.Join)
	_, rightIsJoin := op.Right().(*join.Join)

	switch {
	case leftIsJoin && rightIsJoin:
		if o.rng.Intn(2) == 0 {
			leftToRight(op)
		} else {
			rightToLeft(op)
		}
	case leftIsJoin:
		leftToRight(op)
	case rightIsJoin:
		rightToLeft(op)
	}
}

// leftToRight rewrites (A ⋈ B) ⋈ C. When the first condition of op refers
// to B the result is A ⋈ (B ⋈ C), otherwise B ⋈ (A ⋈ C). The new inner
// join inherits op's method and index; op takes those of its old child.
func leftToRight(op *join.Join) {
	child := op.Left().(*join.Join)
	a, b, c := child.Left(), child.Right(), op.Right()

	outerLeft, innerLeft := a, b
	if !b.GetTupleDesc().Contains(op.Condition().Left) {
		outerLeft, innerLeft = b, a
	}
	reassociate(op, child, outerLeft, innerLeft, c, false)
}

// rightToLeft rewrites A ⋈ (B ⋈ C). When the first condition of op refers
// to B the result is (A ⋈ B) ⋈ C, otherwise (A ⋈ C) ⋈ B.
func rightToLeft(op *join.Join) {
	child := op.Right().(*join.Join)
	a, b, c := op.Left(), child.Left(), child.Right()

	innerRight, outerRight := b, c
	if !b.GetTupleDesc().Contains(op.Condition().Right) {
		innerRight, outerRight = c, b
	}
	reassociate(op, child, outerRight, a, innerRight, true)
}

// reassociate builds inner = innerLeft ⋈ innerRight and makes op join it
// with outer, on the side given by innerFirst. The conditions of both joins
// are shared out between the two: those linking the inner inputs stay
// inside. Nothing changes when either join would be left without a
// condition or a condition no longer resolves.
func reassociate(op, child *join.Join, outer, innerLeft, innerRight iterator.Operator, innerFirst bool) {
	all := append(append([]join.Condition(nil), op.Conditions()...), child.Conditions()...)

	var innerConds, outerConds []join.Condition
	for _, c := range all {
		if c.Links(innerLeft.GetTupleDesc(), innerRight.GetTupleDesc()) {
			innerConds = append(innerConds, c)
		} else {
			outerConds = append(outerConds, c)
		}
	}
	if len(innerConds) == 0 || len(outerConds) == 0 {
		return
	}

	inner, err := join.NewJoin(innerLeft, innerRight, innerConds, op.Method(), op.NodeIndex())
	if err != nil {
		return
	}
	if innerFirst {
		err = op.Reshape(inner, outer, outerConds)
	} else {
		err = op.Reshape(outer, inner, outerConds)
	}
	if err != nil {
		return
	}
	op.SetMethod(child.Method())
	op.SetNodeIndex(child.NodeIndex())
}

// findJoin returns the logical join with the given node index.
func findJoin(root iterator.Operator, nodeIndex int) *join.Join {
	var found *join.Join
	iterator.Walk(root, func(op iterator.Operator) bool {
		if found != nil {
			return false
		}
		if j, ok := op.(*join.Join); ok && j.NodeIndex() == nodeIndex {
			found = j
			return false
		}
		return true
	})
	return found
}

// countJoins returns the number of logical joins under root.
func countJoins(root iterator.Operator) int {
	n := 0
	iterator.Walk(root, func(op iterator.Operator) bool {
		if _, ok := op.(*join.Join); ok {
			n++
		}
		return true
	})
	return n
}

// refreshSchemas recomputes output schemas bottom-up.
func refreshSchemas(op iterator.Operator) error {
	switch n := op.(type) {
	case iterator.BinaryNode:
		if err := refreshSchemas(n.Left()); err != nil {
			return err
		}
		if err := refreshSchemas(n.Right()); err != nil {
			return err
		}
		return n.RefreshTupleDesc()
	case iterator.UnaryNode:
		if err := refreshSchemas(n.Child()); err != nil {
			return err
		}
		return n.RefreshTupleDesc()
	}
	return nil
}
