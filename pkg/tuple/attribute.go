package tuple

import "strings"

// Attribute names one column, optionally qualified by its table.
type Attribute struct {
	Table  string
	Column string
}

// NewAttribute builds an attribute from "table.column" or a bare "column".
func NewAttribute(qualified string) Attribute {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return Attribute{Table: qualified[:i], Column: qualified[i+1:]}
	}
	return Attribute{Column: qualified}
}

// Matches reports whether a reference resolves to this column. An
// unqualified reference matches any table.
func (a Attribute) Matches(ref Attribute) bool {
	if !strings.EqualFold(a.Column, ref.Column) {
		return false
	}
	return ref.Table == "" || strings.EqualFold(a.Table, ref.Table)
}

func (a Attribute) String() string {
	if a.Table == "" {
		return a.Column
	}
	return a.Table + "." + a.Column
}
