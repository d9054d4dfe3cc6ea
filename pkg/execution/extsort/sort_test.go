package extsort

import (
	"errors"
	"math/rand"
	"os"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexec/pkg/dberror"
	"qexec/pkg/execution/scanner"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

func newCtx(t *testing.T, pageSize int) (*registry.ExecContext, string) {
	t.Helper()
	dir := t.TempDir()
	ctx, err := registry.NewExecContext(pageSize, dir, nil)
	require.NoError(t, err)
	return ctx, dir
}

func pairDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTableDesc("s", []string{"key", "seq"}, []types.Type{types.IntType, types.IntType})
	require.NoError(t, err)
	return td
}

func pairs(keys []int64) []*tuple.Tuple {
	out := make([]*tuple.Tuple, len(keys))
	for i, k := range keys {
		out[i] = tuple.NewTuple(types.NewIntField(k), types.NewIntField(int64(i)))
	}
	return out
}

func scanOf(t *testing.T, ctx *registry.ExecContext, td *tuple.TupleDescription, rows []*tuple.Tuple) iterator.Operator {
	t.Helper()
	s, err := scanner.NewMemoryScan(ctx, "s", td, rows)
	require.NoError(t, err)
	return s
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files left behind")
}

// ============================================================================
// Basic behaviour
// ============================================================================

func TestExternalSort_SingleRun(t *testing.T) {
	ctx, dir := newCtx(t, 4096)
	td, err := tuple.NewTableDesc("s", []string{"id", "name"}, []types.Type{types.IntType, types.StringType})
	require.NoError(t, err)

	in := []*tuple.Tuple{
		tuple.NewTuple(types.NewIntField(3), types.NewStringField("c")),
		tuple.NewTuple(types.NewIntField(1), types.NewStringField("a")),
		tuple.NewTuple(types.NewIntField(2), types.NewStringField("b")),
	}
	sorter, err := New(ctx, "SM", scanOf(t, ctx, td, in), []int{0}, false, 3)
	require.NoError(t, err)

	require.NoError(t, sorter.Open())
	got, err := iterator.Collect(sorter)
	require.NoError(t, err)
	stats := sorter.Stats()
	require.NoError(t, sorter.Close())

	require.Len(t, got, 3)
	assert.Equal(t, "(1, a)", got[0].String())
	assert.Equal(t, "(2, b)", got[1].String())
	assert.Equal(t, "(3, c)", got[2].String())
	assert.Equal(t, 1, stats.Runs)
	assert.Equal(t, 0, stats.MergePasses)
	assertDirEmpty(t, dir)
}

func TestExternalSort_EmptyInput(t *testing.T) {
	ctx, dir := newCtx(t, 4096)
	sorter, err := New(ctx, "SM", scanOf(t, ctx, pairDesc(t), nil), []int{0}, false, 3)
	require.NoError(t, err)

	require.NoError(t, sorter.Open())
	b, err := sorter.Next()
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Zero(t, sorter.Stats().Runs)
	require.NoError(t, sorter.Close())
	assertDirEmpty(t, dir)
}

func TestExternalSort_MultiplePasses(t *testing.T) {
	ctx, dir := newCtx(t, 32) // 2 tuples per page, 6 per run with 3 buffers
	keys := make([]int64, 100)
	for i := range keys {
		keys[i] = int64((i * 37) % 101)
	}

	sorter, err := New(ctx, "SM", scanOf(t, ctx, pairDesc(t), pairs(keys)), []int{0}, false, 3)
	require.NoError(t, err)
	require.NoError(t, sorter.Open())

	var sizes []int
	var got []*tuple.Tuple
	require.NoError(t, iterator.Drain(sorter, func(b *tuple.Batch) error {
		sizes = append(sizes, b.Len())
		got = append(got, b.Tuples()...)
		return nil
	}))

	stats := sorter.Stats()
	assert.Equal(t, 17, stats.Runs)
	assert.Equal(t, 4, stats.MergePasses) // 17 -> 9 -> 5 -> 3 -> 2
	assert.Equal(t, int64(100), stats.Tuples)
	require.Len(t, got, 100)
	for _, n := range sizes {
		assert.LessOrEqual(t, n, 2)
	}
	for i := 1; i < len(got); i++ {
		c, err := got[i-1].Field(0).Compare(got[i].Field(0))
		require.NoError(t, err)
		assert.LessOrEqual(t, c, 0, "position %d out of order", i)
	}

	require.NoError(t, sorter.Close())
	require.NoError(t, sorter.Close())
	assertDirEmpty(t, dir)
}

// ============================================================================
// Ordering properties
// ============================================================================

func TestExternalSort_MatchesStableSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, buffers := range []int{3, 4, 7} {
		for _, reverse := range []bool{false, true} {
			for _, n := range []int{1, 5, 33, 250} {
				keys := make([]int64, n)
				for i := range keys {
					keys[i] = rng.Int63n(10)
				}
				in := pairs(keys)

				ctx, dir := newCtx(t, 48) // 3 tuples per page
				sorter, err := New(ctx, "SM", scanOf(t, ctx, pairDesc(t), in), []int{0}, reverse, buffers)
				require.NoError(t, err)
				got, err := iterator.CollectAll(sorter)
				require.NoError(t, err)

				want := slices.Clone(in)
				slices.SortStableFunc(want, func(a, b *tuple.Tuple) int {
					c, _ := a.Field(0).Compare(b.Field(0))
					if reverse {
						return -c
					}
					return c
				})

				require.Len(t, got, n, "buffers=%d reverse=%v n=%d", buffers, reverse, n)
				for i := range want {
					assert.True(t, want[i].Equals(got[i]),
						"buffers=%d reverse=%v n=%d pos=%d: want %s got %s", buffers, reverse, n, i, want[i], got[i])
				}
				assertDirEmpty(t, dir)
			}
		}
	}
}

func TestExternalSort_MultiColumnKeys(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	in := []*tuple.Tuple{
		tuple.NewTuple(types.NewIntField(2), types.NewIntField(1)),
		tuple.NewTuple(types.NewIntField(1), types.NewIntField(9)),
		tuple.NewTuple(types.NewIntField(2), types.NewIntField(0)),
		tuple.NewTuple(types.NewIntField(1), types.NewIntField(3)),
	}

	sorter, err := New(ctx, "SM", scanOf(t, ctx, pairDesc(t), in), []int{0, 1}, false, 3)
	require.NoError(t, err)
	got, err := iterator.CollectAll(sorter)
	require.NoError(t, err)

	var rendered []string
	for _, tup := range got {
		rendered = append(rendered, tup.String())
	}
	assert.Equal(t, []string{"(1, 3)", "(1, 9)", "(2, 0)", "(2, 1)"}, rendered)
}

// ============================================================================
// Failures
// ============================================================================

type failingChild struct {
	iterator.Operator
	after int
	calls int
}

var errBoom = errors.New("disk on fire")

func (f *failingChild) Next() (*tuple.Batch, error) {
	f.calls++
	if f.calls > f.after {
		return nil, errBoom
	}
	return f.Operator.Next()
}

func TestExternalSort_ChildErrorCleansUp(t *testing.T) {
	ctx, dir := newCtx(t, 32)
	keys := make([]int64, 40)
	child := &failingChild{Operator: scanOf(t, ctx, pairDesc(t), pairs(keys)), after: 10}

	sorter, err := New(ctx, "SM", child, []int{0}, false, 3)
	require.NoError(t, err)

	err = sorter.Open()
	require.ErrorIs(t, err, errBoom)
	require.NoError(t, sorter.Close())
	assertDirEmpty(t, dir)
}

func TestNew_Validation(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	child := scanOf(t, ctx, pairDesc(t), nil)

	_, err := New(ctx, "SM", child, []int{0}, false, 2)
	assert.True(t, dberror.HasCode(err, dberror.CodeTooFewBuffers))

	_, err = New(ctx, "SM", child, []int{5}, false, 3)
	assert.True(t, dberror.IsCategory(err, dberror.CategoryPlan))

	_, err = New(ctx, "SM", child, nil, false, 3)
	assert.Error(t, err)
}

func TestExternalSort_CloneUsesFreshFiles(t *testing.T) {
	ctx, dir := newCtx(t, 32)
	sorter, err := New(ctx, "SM", scanOf(t, ctx, pairDesc(t), pairs([]int64{5, 4, 3, 2, 1, 0, 9, 8})), []int{0}, false, 3)
	require.NoError(t, err)
	clone := sorter.Clone()

	require.NoError(t, sorter.Open())
	require.NoError(t, clone.Open())
	a, err := iterator.Collect(sorter)
	require.NoError(t, err)
	b, err := iterator.Collect(clone)
	require.NoError(t, err)
	require.NoError(t, sorter.Close())
	require.NoError(t, clone.Close())

	require.Len(t, a, 8)
	require.Len(t, b, 8)
	for i := range a {
		assert.True(t, a[i].Equals(b[i]))
	}
	assertDirEmpty(t, dir)
}

func TestExternalSort_ReopenDiscardsRuns(t *testing.T) {
	ctx, dir := newCtx(t, 32)
	keys := make([]int64, 40)
	for i := range keys {
		keys[i] = int64((i * 7) % 13)
	}

	sorter, err := New(ctx, "SM", scanOf(t, ctx, pairDesc(t), pairs(keys)), []int{0}, false, 3)
	require.NoError(t, err)

	require.NoError(t, sorter.Open())
	b, err := sorter.Next()
	require.NoError(t, err)
	require.NotNil(t, b)

	require.NoError(t, sorter.Open())
	got, err := iterator.Collect(sorter)
	require.NoError(t, err)
	assert.Equal(t, int64(40), sorter.Stats().Tuples)
	require.NoError(t, sorter.Close())

	require.Len(t, got, 40)
	seen := make(map[int64]bool)
	for i, tp := range got {
		seq := tp.Field(1).(*types.IntField).Value
		assert.False(t, seen[seq], "tuple %d emitted twice", seq)
		seen[seq] = true
		if i > 0 {
			prev := got[i-1].Field(0).(*types.IntField).Value
			assert.LessOrEqual(t, prev, tp.Field(0).(*types.IntField).Value)
		}
	}
	assertDirEmpty(t, dir)
}
