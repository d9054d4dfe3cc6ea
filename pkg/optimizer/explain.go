package optimizer

import (
	"fmt"
	"strings"

	"qexec/pkg/execution"
	"qexec/pkg/execution/join"
	"qexec/pkg/execution/query"
	"qexec/pkg/execution/setops"
	"qexec/pkg/iterator"
)

type named interface {
	TableName() string
}

// Explain renders a plan as an indented tree, one operator per line.
func Explain(plan iterator.Operator) string {
	var sb strings.Builder
	explain(&sb, plan, 0)
	return sb.String()
}

func explain(sb *strings.Builder, op iterator.Operator, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(describe(op))
	sb.WriteByte('\n')

	switch n := op.(type) {
	case iterator.BinaryNode:
		explain(sb, n.Left(), depth+1)
		explain(sb, n.Right(), depth+1)
	case iterator.UnaryNode:
		explain(sb, n.Child(), depth+1)
	}
}

func describe(op iterator.Operator) string {
	switch n := op.(type) {
	case join.Physical:
		j := n.Logical()
		return fmt.Sprintf("%s #%d on %s buffers=%d -> %s",
			j.Method(), j.NodeIndex(), conditions(j), n.NumBuffers(), j.GetTupleDesc())
	case *join.Join:
		return fmt.Sprintf("Join #%d %s on %s -> %s", n.NodeIndex(), n.Method(), conditions(n), n.GetTupleDesc())
	case *execution.Select:
		return fmt.Sprintf("Select %s", n.Predicate())
	case *execution.Project:
		return fmt.Sprintf("Project %s", attrList(n.GetTupleDesc().Attributes))
	case *setops.Distinct:
		return fmt.Sprintf("Distinct buffers=%d", n.NumBuffers())
	case *query.OrderBy:
		dir := "ASC"
		if n.Descending() {
			dir = "DESC"
		}
		return fmt.Sprintf("OrderBy %s %s buffers=%d", attrList(n.Attributes()), dir, n.NumBuffers())
	case named:
		return fmt.Sprintf("Scan %s %s", n.TableName(), op.GetTupleDesc())
	}
	return op.OpType().String()
}

func conditions(j *join.Join) string {
	parts := make([]string, len(j.Conditions()))
	for i, c := range j.Conditions() {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

func attrList[T fmt.Stringer](attrs []T) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
