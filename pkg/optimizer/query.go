package optimizer

import (
	"qexec/pkg/execution"
	"qexec/pkg/execution/join"
	"qexec/pkg/iterator"
	"qexec/pkg/tuple"
)

// Query is a parsed SELECT in the form the planner consumes.
type Query struct {
	// Relations are the scans in FROM order. Each plan clones them.
	Relations []iterator.Operator

	// Selections compare one attribute with a constant.
	Selections []*execution.Predicate

	// JoinConditions are the equalities between attributes of two relations.
	JoinConditions []join.Condition

	// Projection is empty for SELECT *.
	Projection []tuple.Attribute

	Distinct   bool
	OrderBy    []tuple.Attribute
	Descending bool
}

// NumJoins is the number of joins every plan of q contains.
func (q *Query) NumJoins() int {
	if len(q.Relations) == 0 {
		return 0
	}
	return len(q.Relations) - 1
}
