package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		in   string
		want Predicate
		ok   bool
	}{
		{"=", Equals, true},
		{" <= ", LessThanOrEqual, true},
		{"<>", NotEqualsBracket, true},
		{"LIKE", Like, true},
		{"like", Like, true},
		{"=>", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePredicate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, got, mustParse(t, got.String()))
			}
		})
	}
}

func TestFlip(t *testing.T) {
	tests := []struct {
		in   Predicate
		want Predicate
		ok   bool
	}{
		{LessThan, GreaterThan, true},
		{GreaterThanOrEqual, LessThanOrEqual, true},
		{Equals, Equals, true},
		{NotEqual, NotEqual, true},
		{Like, Like, false},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			got, ok := tt.in.Flip()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustParse(t *testing.T, s string) Predicate {
	t.Helper()
	p, ok := ParsePredicate(s)
	if !ok {
		t.Fatalf("cannot parse %q", s)
	}
	return p
}
