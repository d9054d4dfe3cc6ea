package types

import (
	"io"

	"qexec/pkg/primitives"
)

// Field is one typed value of a tuple.
type Field interface {
	// Type returns the storage type of the value.
	Type() Type

	// Compare returns -1, 0 or +1 as the receiver orders before, equal to or
	// after other. Numeric types compare with each other; strings compare
	// lexically and only with strings.
	Compare(other Field) (int, error)

	// Evaluate applies a comparison operator with the receiver on the left.
	Evaluate(op primitives.Predicate, other Field) (bool, error)

	// Equals reports type and value equality.
	Equals(other Field) bool

	// Serialize writes exactly Type().Size() bytes.
	Serialize(w io.Writer) error

	String() string
}

// evaluate turns a three-way comparison result into the truth value of op.
func evaluate(cmp int, op primitives.Predicate) (bool, error) {
	switch op {
	case primitives.Equals:
		return cmp == 0, nil
	case primitives.LessThan:
		return cmp < 0, nil
	case primitives.GreaterThan:
		return cmp > 0, nil
	case primitives.LessThanOrEqual:
		return cmp <= 0, nil
	case primitives.GreaterThanOrEqual:
		return cmp >= 0, nil
	case primitives.NotEqual, primitives.NotEqualsBracket:
		return cmp != 0, nil
	default:
		return false, errUnsupportedPredicate(op)
	}
}
