package join

import (
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

func tableDesc(t *testing.T, table string, cols []string, ts []types.Type) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTableDesc(table, cols, ts)
	require.NoError(t, err)
	return td
}

func intPairs(keys []int64) []*tuple.Tuple {
	out := make([]*tuple.Tuple, len(keys))
	for i, k := range keys {
		out[i] = tuple.NewTuple(types.NewIntField(k), types.NewIntField(int64(i)))
	}
	return out
}

func scan(t *testing.T, ctx *registry.ExecContext, name string, td *tuple.TupleDescription, rows []*tuple.Tuple) iterator.Operator {
	t.Helper()
	s, err := scanner.NewMemoryScan(ctx, name, td, rows)
	require.NoError(t, err)
	return s
}

// pairJoin joins l(key, seq) with r(key, seq) on l.key = r.key.
func pairJoin(t *testing.T, ctx *registry.ExecContext, left, right []int64, method Method) *Join {
	t.Helper()
	ld := tableDesc(t, "l", []string{"key", "seq"}, []types.Type{types.IntType, types.IntType})
	rd := tableDesc(t, "r", []string{"key", "seq"}, []types.Type{types.IntType, types.IntType})
	j, err := NewJoin(scan(t, ctx, "l", ld, intPairs(left)), scan(t, ctx, "r", rd, intPairs(right)),
		[]Condition{NewCondition("l.key", "r.key")}, method, 0)
	require.NoError(t, err)
	return j
}

func physical(t *testing.T, ctx *registry.ExecContext, j *Join, buffers int) Physical {
	t.Helper()
	p, err := NewPhysical(ctx, j, buffers)
	require.NoError(t, err)
	return p
}

func sorted(ts []*tuple.Tuple) []string {
	out := make([]string, len(ts))
	for i, tp := range ts {
		out[i] = tp.String()
	}
	slices.Sort(out)
	return out
}

// expected computes the join with a plain double loop.
func expected(left, right []int64) []string {
	l, r := intPairs(left), intPairs(right)
	var out []*tuple.Tuple
	for _, a := range l {
		for _, b := range r {
			if a.Field(0).Equals(b.Field(0)) {
				out = append(out, a.JoinWith(b))
			}
		}
	}
	return sorted(out)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files left behind")
}

// ============================================================================
// Logical join
// ============================================================================

func TestJoin_OrientsConditions(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	ld := tableDesc(t, "l", []string{"key"}, []types.Type{types.IntType})
	rd := tableDesc(t, "r", []string{"key"}, []types.Type{types.IntType})

	j, err := NewJoin(scan(t, ctx, "l", ld, nil), scan(t, ctx, "r", rd, nil),
		[]Condition{NewCondition("r.key", "l.key")}, SortMerge, 4)
	require.NoError(t, err)

	assert.Equal(t, "l", j.Condition().Left.Table)
	assert.Equal(t, "r", j.Condition().Right.Table)
	assert.Equal(t, 2, j.GetTupleDesc().NumFields())

	lk, rk, err := j.KeyIndices()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, lk)
	assert.Equal(t, []int{0}, rk)
}

func TestJoin_RejectsUnlinkedCondition(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	ld := tableDesc(t, "l", []string{"key"}, []types.Type{types.IntType})
	rd := tableDesc(t, "r", []string{"key"}, []types.Type{types.IntType})

	_, err := NewJoin(scan(t, ctx, "l", ld, nil), scan(t, ctx, "r", rd, nil),
		[]Condition{NewCondition("l.key", "x.key")}, BlockNested, 0)
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeUnknownAttr))

	_, err = NewJoin(scan(t, ctx, "l", ld, nil), scan(t, ctx, "r", rd, nil), nil, BlockNested, 0)
	assert.True(t, dberror.IsCategory(err, dberror.CategoryPlan))
}

func TestJoin_LogicalIsNotExecutable(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	j := pairJoin(t, ctx, []int64{1}, []int64{1}, BlockNested)

	err := j.Open()
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeNotExecutable))
	assert.NoError(t, j.Close())
}

func TestJoin_CloneIsDeep(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	j := pairJoin(t, ctx, []int64{1}, []int64{1}, NestedLoop)
	j.SetNodeIndex(3)

	c := j.Clone().(*Join)
	c.SetMethod(SortMerge)
	c.SetConditions([]Condition{c.Condition().Flip()})

	assert.Equal(t, 3, c.NodeIndex())
	assert.Equal(t, NestedLoop, j.Method())
	assert.Equal(t, "l", j.Condition().Left.Table)
	assert.NotSame(t, j.Left(), c.Left())
	assert.True(t, j.GetTupleDesc().Equals(c.GetTupleDesc()))
}

func TestCondition_Flip(t *testing.T) {
	c := NewCondition("a.x", "b.y")
	f := c.Flip()
	assert.Equal(t, "b.y = a.x", f.String())
	assert.Equal(t, c, f.Flip())
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
		ok   bool
	}{
		{"bnl", BlockNested, true},
		{"SortMerge", SortMerge, true},
		{"nlj", NestedLoop, true},
		{"hash", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMethod(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

// ============================================================================
// Physical joins
// ============================================================================

func TestBlockNestedLoopJoin_Example(t *testing.T) {
	ctx, dir := newCtx(t, 4096)
	ld := tableDesc(t, "l", []string{"id", "name"}, []types.Type{types.IntType, types.StringType})
	rd := tableDesc(t, "r", []string{"id", "tag"}, []types.Type{types.IntType, types.StringType})
	row := func(id int64, s string) *tuple.Tuple {
		return tuple.NewTuple(types.NewIntField(id), types.NewStringField(s))
	}

	j, err := NewJoin(
		scan(t, ctx, "l", ld, []*tuple.Tuple{row(1, "x"), row(2, "y")}),
		scan(t, ctx, "r", rd, []*tuple.Tuple{row(1, "p"), row(2, "q"), row(1, "r")}),
		[]Condition{NewCondition("l.id", "r.id")}, BlockNested, 0)
	require.NoError(t, err)

	got, err := iterator.CollectAll(physical(t, ctx, j, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"(1, x, 1, p)", "(1, x, 1, r)", "(2, y, 2, q)"}, sorted(got))
	assertDirEmpty(t, dir)
}

func TestPhysicalJoins_MatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	left := make([]int64, 90)
	right := make([]int64, 70)
	for i := range left {
		left[i] = rng.Int63n(15)
	}
	for i := range right {
		right[i] = rng.Int63n(15)
	}
	want := expected(left, right)

	tests := []struct {
		name    string
		method  Method
		buffers int
	}{
		{"nested loop", NestedLoop, 3},
		{"block nested 3", BlockNested, 3},
		{"block nested 5", BlockNested, 5},
		{"sort merge 3", SortMerge, 3},
		{"sort merge 4", SortMerge, 4},
		{"sort merge 10", SortMerge, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Small pages force several blocks, runs and merge passes.
			ctx, dir := newCtx(t, 64)
			p := physical(t, ctx, pairJoin(t, ctx, left, right, tt.method), tt.buffers)

			got, err := iterator.CollectAll(p)
			require.NoError(t, err)
			assert.Equal(t, want, sorted(got))
			assertDirEmpty(t, dir)
		})
	}
}

func TestPhysicalJoins_ResumeAcrossCalls(t *testing.T) {
	for _, method := range []Method{NestedLoop, BlockNested, SortMerge} {
		t.Run(method.String(), func(t *testing.T) {
			// 64-byte pages hold two joined (int, int, int, int) tuples.
			ctx, _ := newCtx(t, 64)
			p := physical(t, ctx, pairJoin(t, ctx, []int64{7}, []int64{7, 7, 7, 7, 7}, method), 3)
			require.NoError(t, p.Open())
			defer p.Close()

			var sizes []int
			var all []*tuple.Tuple
			for {
				b, err := p.Next()
				require.NoError(t, err)
				if b == nil {
					break
				}
				sizes = append(sizes, b.Len())
				all = append(all, b.Tuples()...)
			}

			assert.Equal(t, []int{2, 2, 1}, sizes)
			assert.Equal(t, expected([]int64{7}, []int64{7, 7, 7, 7, 7}), sorted(all))
		})
	}
}

func TestSortMergeJoin_OutputFollowsLeftOrder(t *testing.T) {
	ctx, _ := newCtx(t, 64)
	p := physical(t, ctx, pairJoin(t, ctx, []int64{3, 1, 2, 1}, []int64{2, 1, 3, 1}, SortMerge), 4)

	got, err := iterator.CollectAll(p)
	require.NoError(t, err)
	require.Len(t, got, 6)

	var keys []int64
	for _, tp := range got {
		keys = append(keys, tp.Field(0).(*types.IntField).Value)
	}
	assert.True(t, slices.IsSorted(keys))
}

func TestPhysicalJoins_EmptyInputs(t *testing.T) {
	tests := []struct {
		name        string
		left, right []int64
	}{
		{"empty left", nil, []int64{1, 2}},
		{"empty right", []int64{1, 2}, nil},
		{"no matches", []int64{1, 2}, []int64{3, 4}},
	}
	for _, tt := range tests {
		for _, method := range []Method{NestedLoop, BlockNested, SortMerge} {
			t.Run(tt.name+"/"+method.String(), func(t *testing.T) {
				ctx, dir := newCtx(t, 4096)
				got, err := iterator.CollectAll(physical(t, ctx, pairJoin(t, ctx, tt.left, tt.right, method), 3))
				require.NoError(t, err)
				assert.Empty(t, got)
				assertDirEmpty(t, dir)
			})
		}
	}
}

func TestPhysicalJoins_TooFewBuffers(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	_, err := NewPhysical(ctx, pairJoin(t, ctx, nil, nil, SortMerge), 2)
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeTooFewBuffers))
}

func TestPhysicalJoins_NextBeforeOpen(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	p := physical(t, ctx, pairJoin(t, ctx, nil, nil, BlockNested), 3)
	_, err := p.Next()
	assert.True(t, dberror.HasCode(err, dberror.CodeNotOpen))
}

func TestPhysicalJoins_CloneRunsIndependently(t *testing.T) {
	ctx, dir := newCtx(t, 64)
	left, right := []int64{1, 2, 3, 1}, []int64{1, 3, 3}
	want := expected(left, right)

	for _, method := range []Method{NestedLoop, BlockNested, SortMerge} {
		t.Run(method.String(), func(t *testing.T) {
			p := physical(t, ctx, pairJoin(t, ctx, left, right, method), 4)
			c := p.Clone().(Physical)
			assert.Equal(t, 4, c.NumBuffers())
			assert.NotSame(t, p.Logical(), c.Logical())

			require.NoError(t, p.Open())
			got, err := iterator.CollectAll(c)
			require.NoError(t, err)
			assert.Equal(t, want, sorted(got))

			rest, err := iterator.Collect(p)
			require.NoError(t, err)
			require.NoError(t, p.Close())
			assert.Equal(t, want, sorted(rest))
			require.NoError(t, p.Close())
		})
	}
	assertDirEmpty(t, dir)
}

func TestPhysicalJoins_MultipleConditions(t *testing.T) {
	ctx, _ := newCtx(t, 4096)
	ld := tableDesc(t, "a", []string{"x", "y"}, []types.Type{types.IntType, types.StringType})
	rd := tableDesc(t, "b", []string{"x", "y"}, []types.Type{types.IntType, types.StringType})
	row := func(x int64, y string) *tuple.Tuple {
		return tuple.NewTuple(types.NewIntField(x), types.NewStringField(y))
	}
	lrows := []*tuple.Tuple{row(1, "a"), row(1, "b"), row(2, "a")}
	rrows := []*tuple.Tuple{row(1, "b"), row(2, "a"), row(2, "b")}

	for _, method := range []Method{NestedLoop, BlockNested, SortMerge} {
		t.Run(method.String(), func(t *testing.T) {
			j, err := NewJoin(scan(t, ctx, "a", ld, lrows), scan(t, ctx, "b", rd, rrows),
				[]Condition{NewCondition("a.x", "b.x"), NewCondition("b.y", "a.y")}, method, 0)
			require.NoError(t, err)

			got, err := iterator.CollectAll(physical(t, ctx, j, 3))
			require.NoError(t, err)
			assert.Equal(t, []string{"(1, b, 1, b)", "(2, a, 2, a)"}, sorted(got))
		})
	}
}
