package tuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexec/pkg/dberror"
	"qexec/pkg/types"
)

func row(id int64, name string) *Tuple {
	return NewTuple(types.NewIntField(id), types.NewStringField(name))
}

func mustDesc(t *testing.T, table string) *TupleDescription {
	t.Helper()
	td, err := NewTableDesc(table, []string{"id", "name"}, []types.Type{types.IntType, types.StringType})
	require.NoError(t, err)
	return td
}

// ============================================================================
// Schema
// ============================================================================

func TestTupleDescription_IndexOf(t *testing.T) {
	td := Combine(mustDesc(t, "a"), mustDesc(t, "b"))

	tests := []struct {
		name string
		ref  Attribute
		want int
	}{
		{"qualified left", Attribute{Table: "a", Column: "name"}, 1},
		{"qualified right", Attribute{Table: "b", Column: "id"}, 2},
		{"unqualified resolves first", Attribute{Column: "id"}, 0},
		{"case insensitive", NewAttribute("B.NAME"), 3},
		{"missing", NewAttribute("c.id"), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, td.IndexOf(tt.ref))
			assert.Equal(t, tt.want >= 0, td.Contains(tt.ref))
		})
	}
}

func TestTupleDescription_SubSchemaAndSize(t *testing.T) {
	td := Combine(mustDesc(t, "a"), mustDesc(t, "b"))
	assert.Equal(t, 2*(8+4+types.StringMaxSize), td.GetSize())

	sub, err := td.SubSchema([]Attribute{NewAttribute("b.name"), NewAttribute("a.id")})
	require.NoError(t, err)
	assert.Equal(t, []types.Type{types.StringType, types.IntType}, sub.Types)
	assert.Equal(t, "b.name", sub.Attributes[0].String())

	_, err = td.SubSchema([]Attribute{NewAttribute("z.q")})
	require.Error(t, err)
	assert.True(t, dberror.IsCategory(err, dberror.CategoryPlan))
}

func TestTupleDescription_CloneDoesNotAlias(t *testing.T) {
	td := mustDesc(t, "a")
	cp := td.Clone()
	cp.Attributes[0].Column = "other"

	assert.Equal(t, "id", td.Attributes[0].Column)
	assert.False(t, td.Equals(cp))
}

// ============================================================================
// Ordering
// ============================================================================

func TestCompareTuples(t *testing.T) {
	tests := []struct {
		name      string
		left      *Tuple
		right     *Tuple
		leftKeys  []int
		rightKeys []int
		want      int
	}{
		{"first key decides", row(1, "z"), row(2, "a"), []int{0, 1}, []int{0, 1}, -1},
		{"second key breaks tie", row(1, "b"), row(1, "a"), []int{0, 1}, []int{0, 1}, 1},
		{"equal", row(4, "k"), row(4, "k"), []int{0, 1}, []int{0, 1}, 0},
		{"different positions", row(5, "x"), NewTuple(types.NewStringField("x"), types.NewIntField(5)), []int{0}, []int{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareTuples(tt.left, tt.right, tt.leftKeys, tt.rightKeys)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComparator_Reverse(t *testing.T) {
	asc := NewComparator([]int{0}, false)
	desc := NewComparator([]int{0}, true)

	c, err := asc.Compare(row(1, ""), row(2, ""))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = desc.Compare(row(1, ""), row(2, ""))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = desc.Compare(row(3, ""), row(3, ""))
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestCheckJoin_TypeMismatch(t *testing.T) {
	_, err := CheckJoin(row(1, "a"), row(1, "a"), []int{0}, []int{1})
	assert.Error(t, err)
}

func TestTuple_JoinWith(t *testing.T) {
	joined := row(1, "x").JoinWith(row(1, "p"))

	assert.Equal(t, 4, joined.NumFields())
	assert.Equal(t, "(1, x, 1, p)", joined.String())
	assert.True(t, joined.Project([]int{1, 3}).Equals(NewTuple(types.NewStringField("x"), types.NewStringField("p"))))
}

// ============================================================================
// Batch
// ============================================================================

func TestBatch_Capacity(t *testing.T) {
	b := NewBatch(2)
	require.NoError(t, b.Add(row(1, "a")))
	assert.False(t, b.IsFull())
	require.NoError(t, b.Add(row(2, "b")))
	assert.True(t, b.IsFull())

	err := b.Add(row(3, "c"))
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeBatchFull))
	assert.Equal(t, 2, b.Len())
}

func TestBatchCapacity(t *testing.T) {
	n, err := BatchCapacity(4096, 100)
	require.NoError(t, err)
	assert.Equal(t, 40, n)

	_, err = BatchCapacity(64, 100)
	assert.True(t, dberror.HasCode(err, dberror.CodeTupleTooLarge))
}
