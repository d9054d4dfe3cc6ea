package dberror

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Category classifies a failure by the part of query processing that produced it.
// Callers use it to decide whether a query is retried with a different plan,
// reported to the user, or treated as an environment problem.
type Category int

const (
	// CategoryIO covers temp file and table store failures: create, open, read, write.
	CategoryIO Category = iota

	// CategoryFormat covers truncated or corrupt run files and stored tuples.
	CategoryFormat

	// CategoryCost covers failures of the plan cost function during optimization.
	CategoryCost

	// CategoryPlan covers plans that cannot be built or executed: unknown
	// attributes, too few buffer pages, disconnected join graphs, unsupported SQL.
	CategoryPlan

	// CategoryInternal covers broken invariants inside the engine.
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryIO:
		return "io"
	case CategoryFormat:
		return "format"
	case CategoryCost:
		return "cost"
	case CategoryPlan:
		return "plan"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// DBError is a structured engine error carrying the operation and component
// that failed along with the underlying cause.
type DBError struct {
	// Code is a stable identifier such as "RUN_WRITE_FAILED".
	Code string

	Category Category

	// Message is a human-readable description of what went wrong.
	Message string

	// Hint suggests how the user might work around the error.
	Hint string

	// Operation is the call that was in progress, e.g. "Open" or "Next".
	Operation string

	// Component is the subsystem that raised the error, e.g. "ExternalSort".
	Component string

	// Cause is the wrapped error. It carries a stack trace captured when the
	// DBError was created.
	Cause error
}

// New creates a DBError without an underlying cause.
func New(category Category, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Cause:    errors.NewWithDepth(1, message),
	}
}

// Newf is New with a formatted message.
func Newf(category Category, code, format string, args ...any) *DBError {
	msg := fmt.Sprintf(format, args...)
	return &DBError{
		Code:     code,
		Category: category,
		Message:  msg,
		Cause:    errors.NewWithDepth(1, msg),
	}
}

// Wrap attaches engine context to err. If err already is a DBError, its
// operation and component are filled in when missing and it is returned as is.
func Wrap(err error, category Category, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  category,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     errors.WithStackDepth(err, 1),
	}
}

// WithHint sets the hint and returns the receiver.
func (e *DBError) WithHint(hint string) *DBError {
	e.Hint = hint
	return e
}

// Error renders the error as
// [CODE] message (operation: Op, component: Comp) caused by: cause
func (e *DBError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Operation != "" {
		fmt.Fprintf(&b, " (operation: %s", e.Operation)
		if e.Component != "" {
			fmt.Fprintf(&b, ", component: %s", e.Component)
		}
		b.WriteString(")")
	}

	if e.Cause != nil && e.Cause.Error() != e.Message {
		fmt.Fprintf(&b, " caused by: %v", e.Cause)
	}

	return b.String()
}

func (e *DBError) Unwrap() error {
	return e.Cause
}

// Is matches another DBError with the same code.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// FormatStack returns the stack trace recorded on the cause, or "" when none was captured.
func (e *DBError) FormatStack() string {
	if e.Cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.Cause)
}

// IsCategory reports whether any DBError in err's chain has the given category.
func IsCategory(err error, category Category) bool {
	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		return false
	}
	return dbErr.Category == category
}

// HasCode reports whether err's chain contains a DBError with the given code.
func HasCode(err error, code string) bool {
	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		return false
	}
	return dbErr.Code == code
}
