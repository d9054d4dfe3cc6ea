package tuple

import (
	"fmt"
	"strings"

	"qexec/pkg/dberror"
	"qexec/pkg/types"
)

// TupleDescription describes the schema of a tuple: the ordered attribute
// list together with the type of each attribute.
type TupleDescription struct {
	Types      []types.Type
	Attributes []Attribute
}

// NewTupleDesc creates a TupleDescription. Both slices are copied and must have equal length.
func NewTupleDesc(fieldTypes []types.Type, attrs []Attribute) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one field type")
	}
	if len(attrs) != len(fieldTypes) {
		return nil, fmt.Errorf("attribute count (%d) must match field type count (%d)",
			len(attrs), len(fieldTypes))
	}

	return &TupleDescription{
		Types:      append([]types.Type(nil), fieldTypes...),
		Attributes: append([]Attribute(nil), attrs...),
	}, nil
}

// NewTableDesc is a shorthand for a schema whose columns all belong to one table.
func NewTableDesc(table string, columns []string, fieldTypes []types.Type) (*TupleDescription, error) {
	attrs := make([]Attribute, len(columns))
	for i, c := range columns {
		attrs[i] = Attribute{Table: table, Column: c}
	}
	return NewTupleDesc(fieldTypes, attrs)
}

// NumFields returns the number of fields in this tuple descriptor.
func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// TypeAtIndex returns the type of the ith field.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// GetSize returns the serialized tuple width in bytes.
func (td *TupleDescription) GetSize() int {
	size := 0
	for _, t := range td.Types {
		size += t.Size()
	}
	return size
}

// IndexOf returns the position of the first attribute matching ref, or -1.
func (td *TupleDescription) IndexOf(ref Attribute) int {
	for i, a := range td.Attributes {
		if a.Matches(ref) {
			return i
		}
	}
	return -1
}

// Contains reports whether ref resolves against this schema.
func (td *TupleDescription) Contains(ref Attribute) bool {
	return td.IndexOf(ref) >= 0
}

// Indices resolves each reference to its column position.
func (td *TupleDescription) Indices(refs []Attribute) ([]int, error) {
	out := make([]int, len(refs))
	for i, ref := range refs {
		idx := td.IndexOf(ref)
		if idx < 0 {
			return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeUnknownAttr,
				"attribute %s not found in schema (%s)", ref, td)
		}
		out[i] = idx
	}
	return out, nil
}

// SubSchema returns the schema made of the referenced attributes, in the
// order given.
func (td *TupleDescription) SubSchema(refs []Attribute) (*TupleDescription, error) {
	idx, err := td.Indices(refs)
	if err != nil {
		return nil, err
	}

	sub := &TupleDescription{
		Types:      make([]types.Type, len(idx)),
		Attributes: make([]Attribute, len(idx)),
	}
	for i, j := range idx {
		sub.Types[i] = td.Types[j]
		sub.Attributes[i] = td.Attributes[j]
	}
	return sub, nil
}

// AllIndices returns 0..NumFields-1.
func (td *TupleDescription) AllIndices() []int {
	out := make([]int, td.NumFields())
	for i := range out {
		out[i] = i
	}
	return out
}

// Equals compares types and attributes position by position.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Types) != len(other.Types) {
		return false
	}
	for i := range td.Types {
		if td.Types[i] != other.Types[i] || td.Attributes[i] != other.Attributes[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares nothing with the receiver.
func (td *TupleDescription) Clone() *TupleDescription {
	if td == nil {
		return nil
	}
	return &TupleDescription{
		Types:      append([]types.Type(nil), td.Types...),
		Attributes: append([]Attribute(nil), td.Attributes...),
	}
}

// String returns "table.col:type, ..." for logs and plan output.
func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Types))
	for i, t := range td.Types {
		parts[i] = fmt.Sprintf("%s:%s", td.Attributes[i], t.ShortName())
	}
	return strings.Join(parts, ", ")
}

// Combine concatenates two schemas: all of td1's attributes followed by td2's.
func Combine(td1, td2 *TupleDescription) *TupleDescription {
	if td1 == nil {
		return td2.Clone()
	}
	if td2 == nil {
		return td1.Clone()
	}

	out := &TupleDescription{
		Types:      make([]types.Type, 0, len(td1.Types)+len(td2.Types)),
		Attributes: make([]Attribute, 0, len(td1.Types)+len(td2.Types)),
	}
	out.Types = append(append(out.Types, td1.Types...), td2.Types...)
	out.Attributes = append(append(out.Attributes, td1.Attributes...), td2.Attributes...)
	return out
}
