package join

import (
	"fmt"

	"qexec/pkg/tuple"
)

// Condition is one equality predicate between a column of the left input
// and a column of the right input.
type Condition struct {
	Left  tuple.Attribute
	Right tuple.Attribute
}

// NewCondition parses "a.x" = "b.y".
func NewCondition(left, right string) Condition {
	return Condition{Left: tuple.NewAttribute(left), Right: tuple.NewAttribute(right)}
}

// Flip swaps the sides. Commuting a join flips its conditions.
func (c Condition) Flip() Condition {
	return Condition{Left: c.Right, Right: c.Left}
}

// ResolvesAgainst reports whether the left attribute belongs to left and
// the right attribute to right.
func (c Condition) ResolvesAgainst(left, right *tuple.TupleDescription) bool {
	return left.Contains(c.Left) && right.Contains(c.Right)
}

// Links reports whether c connects the two inputs in either orientation.
func (c Condition) Links(left, right *tuple.TupleDescription) bool {
	_, ok := orient(c, left, right)
	return ok
}

func (c Condition) String() string {
	return fmt.Sprintf("%s = %s", c.Left, c.Right)
}

// orient returns c with its sides matched to the given inputs, flipping it
// when needed. ok is false when c does not link the two inputs.
func orient(c Condition, left, right *tuple.TupleDescription) (Condition, bool) {
	if c.ResolvesAgainst(left, right) {
		return c, true
	}
	if f := c.Flip(); f.ResolvesAgainst(left, right) {
		return f, true
	}
	return c, false
}
