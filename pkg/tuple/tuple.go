package tuple

import (
	"fmt"
	"io"
	"strings"

	"qexec/pkg/types"
)

// Tuple is one row: an ordered, immutable sequence of field values. The
// schema travels with the operator that produced it, not with the tuple.
type Tuple struct {
	fields []types.Field
}

// NewTuple wraps the given values. The slice is copied.
func NewTuple(fields ...types.Field) *Tuple {
	return &Tuple{fields: append([]types.Field(nil), fields...)}
}

// NumFields returns the number of values in the tuple.
func (t *Tuple) NumFields() int {
	return len(t.fields)
}

// GetField returns the value of the ith field
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Field is GetField without bounds reporting; callers pass positions
// already resolved against the schema.
func (t *Tuple) Field(i int) types.Field {
	return t.fields[i]
}

// JoinWith concatenates the fields of t and right into a new, wider tuple.
func (t *Tuple) JoinWith(right *Tuple) *Tuple {
	fields := make([]types.Field, 0, len(t.fields)+len(right.fields))
	fields = append(fields, t.fields...)
	fields = append(fields, right.fields...)
	return &Tuple{fields: fields}
}

// Project keeps the fields at the given positions, in that order.
func (t *Tuple) Project(indices []int) *Tuple {
	fields := make([]types.Field, len(indices))
	for i, j := range indices {
		fields[i] = t.fields[j]
	}
	return &Tuple{fields: fields}
}

// Equals reports field-wise equality.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || len(t.fields) != len(other.fields) {
		return false
	}
	for i, f := range t.fields {
		if !f.Equals(other.fields[i]) {
			return false
		}
	}
	return true
}

// Serialize writes every field in order. The byte count equals the schema's GetSize.
func (t *Tuple) Serialize(w io.Writer) error {
	for _, f := range t.fields {
		if err := f.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadTuple decodes one tuple of the given schema from r.
func ReadTuple(r io.Reader, td *TupleDescription) (*Tuple, error) {
	fields := make([]types.Field, td.NumFields())
	for i, t := range td.Types {
		f, err := types.ParseField(r, t)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return &Tuple{fields: fields}, nil
}

// String returns "(v1, v2, ...)".
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		if f == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
