package primitives

import "strings"

// Predicate is a comparison operator used by selections.
type Predicate int

const (
	Equals Predicate = iota
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	NotEqual
	NotEqualsBracket // alternative notation for NotEqual
	Like
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="
	case LessThan:
		return "<"
	case GreaterThan:
		return ">"
	case LessThanOrEqual:
		return "<="
	case GreaterThanOrEqual:
		return ">="
	case NotEqual:
		return "!="
	case NotEqualsBracket:
		return "<>"
	case Like:
		return "LIKE"
	default:
		return "UNKNOWN"
	}
}

// ParsePredicate maps an SQL comparison operator to a Predicate.
func ParsePredicate(op string) (Predicate, bool) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "=":
		return Equals, true
	case "<":
		return LessThan, true
	case ">":
		return GreaterThan, true
	case "<=":
		return LessThanOrEqual, true
	case ">=":
		return GreaterThanOrEqual, true
	case "!=":
		return NotEqual, true
	case "<>":
		return NotEqualsBracket, true
	case "like":
		return Like, true
	default:
		return 0, false
	}
}

// Flip returns the operator that holds when the operands are swapped,
// so that "5 < a" can be rewritten as "a > 5". Like has no flipped form.
func (p Predicate) Flip() (Predicate, bool) {
	switch p {
	case LessThan:
		return GreaterThan, true
	case GreaterThan:
		return LessThan, true
	case LessThanOrEqual:
		return GreaterThanOrEqual, true
	case GreaterThanOrEqual:
		return LessThanOrEqual, true
	case Like:
		return p, false
	default:
		return p, true
	}
}
