package types

import (
	"qexec/pkg/dberror"
	"qexec/pkg/primitives"
)

func errMismatch(left, right Field) error {
	return dberror.Newf(dberror.CategoryInternal, dberror.CodeTypeMismatch,
		"cannot compare %s with %s", left.Type(), right.Type())
}

func errUnsupportedPredicate(op primitives.Predicate) error {
	return dberror.Newf(dberror.CategoryPlan, dberror.CodeUnsupportedSQL,
		"unsupported predicate %s", op)
}
