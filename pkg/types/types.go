package types

import (
	"fmt"
	"strings"
)

// Type identifies the storage type of a column.
type Type int

const (
	IntType Type = iota
	FloatType
	StringType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case FloatType:
		return "FLOAT_TYPE"
	case StringType:
		return "STRING_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Size returns the serialized width of a value of this type in bytes.
// Every value of a type has the same width, so tuple sizes are schema-derived.
func (t Type) Size() int {
	switch t {
	case IntType, FloatType:
		return 8
	case StringType:
		return 4 + StringMaxSize
	default:
		return 0
	}
}

// ParseType maps the short names used in CSV headers and config files
// ("int", "float", "string") to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer", "bigint":
		return IntType, nil
	case "float", "double", "real":
		return FloatType, nil
	case "string", "text", "varchar", "char":
		return StringType, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", name)
	}
}

// ShortName is the inverse of ParseType.
func (t Type) ShortName() string {
	switch t {
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}
