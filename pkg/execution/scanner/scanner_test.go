package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/storage/table"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

func intRows(n int) []*tuple.Tuple {
	out := make([]*tuple.Tuple, n)
	for i := range out {
		out[i] = tuple.NewTuple(types.NewIntField(int64(i)))
	}
	return out
}

func TestMemoryScan_Batches(t *testing.T) {
	ctx, err := registry.NewExecContext(24, t.TempDir(), nil) // 3 ints per page
	require.NoError(t, err)
	td, err := tuple.NewTableDesc("n", []string{"v"}, []types.Type{types.IntType})
	require.NoError(t, err)

	scan, err := NewMemoryScan(ctx, "n", td, intRows(7))
	require.NoError(t, err)
	require.NoError(t, scan.Open())

	var sizes []int
	require.NoError(t, iterator.Drain(scan, func(b *tuple.Batch) error {
		sizes = append(sizes, b.Len())
		return nil
	}))
	assert.Equal(t, []int{3, 3, 1}, sizes)
	require.NoError(t, scan.Close())

	clone := scan.Clone()
	rows, err := iterator.CollectAll(clone)
	require.NoError(t, err)
	assert.Len(t, rows, 7)
	assert.Equal(t, int64(7), scan.RowCount())
}

func TestTableScan_AliasAndRows(t *testing.T) {
	ctx, err := registry.NewExecContext(4096, t.TempDir(), nil)
	require.NoError(t, err)
	store, err := table.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	info := &table.TableInfo{Name: "nums", Columns: []table.Column{{Name: "v", Type: "int"}}}
	require.NoError(t, store.CreateTable(info))
	require.NoError(t, store.Insert("nums", intRows(5)))
	info, err = store.Table("nums")
	require.NoError(t, err)

	scan, err := NewTableScan(ctx, store, info, "x")
	require.NoError(t, err)
	assert.Equal(t, 0, scan.GetTupleDesc().IndexOf(tuple.NewAttribute("x.v")))
	assert.Equal(t, -1, scan.GetTupleDesc().IndexOf(tuple.NewAttribute("nums.v")))

	rows, err := iterator.CollectAll(scan)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "(4)", rows[4].String())
	assert.Equal(t, int64(5), scan.RowCount())
}
