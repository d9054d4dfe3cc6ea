package execution

import (
	"fmt"

	"qexec/pkg/primitives"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

// Predicate compares one attribute of a tuple with a constant,
// e.g. "emp.salary > 1000".
type Predicate struct {
	Attr    tuple.Attribute
	Op      primitives.Predicate
	Operand types.Field
}

// NewPredicate creates a predicate on attr.
func NewPredicate(attr tuple.Attribute, op primitives.Predicate, operand types.Field) *Predicate {
	return &Predicate{Attr: attr, Op: op, Operand: operand}
}

// boundPredicate is a predicate resolved against a schema.
type boundPredicate struct {
	*Predicate
	fieldIndex int
}

func (p *Predicate) bind(td *tuple.TupleDescription) (boundPredicate, error) {
	idx, err := td.Indices([]tuple.Attribute{p.Attr})
	if err != nil {
		return boundPredicate{}, err
	}
	return boundPredicate{Predicate: p, fieldIndex: idx[0]}, nil
}

// Filter reports whether t satisfies the predicate.
func (b boundPredicate) Filter(t *tuple.Tuple) (bool, error) {
	return t.Field(b.fieldIndex).Evaluate(b.Op, b.Operand)
}

func (p *Predicate) String() string {
	if p.Operand.Type() == types.StringType {
		return fmt.Sprintf("%s %s '%s'", p.Attr, p.Op, p.Operand)
	}
	return fmt.Sprintf("%s %s %s", p.Attr, p.Op, p.Operand)
}
