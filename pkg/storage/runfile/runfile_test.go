package runfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexec/pkg/dberror"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

func testDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTableDesc("r", []string{"k", "v"}, []types.Type{types.IntType, types.StringType})
	require.NoError(t, err)
	return td
}

func rows(n int) []*tuple.Tuple {
	out := make([]*tuple.Tuple, n)
	for i := range out {
		out[i] = tuple.NewTuple(types.NewIntField(int64(i)), types.NewStringField(string(rune('a'+i%26))))
	}
	return out
}

func writeRun(t *testing.T, path string, td *tuple.TupleDescription, capacity int, in []*tuple.Tuple) *Writer {
	t.Helper()
	w := NewWriter(path, td, capacity)
	require.NoError(t, w.Open())
	for _, tup := range in {
		require.NoError(t, w.WriteTuple(tup))
	}
	require.NoError(t, w.Close())
	return w
}

// ============================================================================
// Writer / Reader
// ============================================================================

func TestRunFile_TupleStream(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		capacity  int
		wantPages int
	}{
		{"empty", 0, 3, 0},
		{"exact pages", 6, 3, 2},
		{"partial last page", 7, 3, 3},
		{"single tuple", 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := testDesc(t)
			path := filepath.Join(t.TempDir(), "run")
			in := rows(tt.n)

			w := writeRun(t, path, td, tt.capacity, in)
			assert.Equal(t, int64(tt.n), w.Count())
			assert.Equal(t, tt.wantPages, w.Pages())

			r := NewReader(path, td, tt.capacity)
			require.NoError(t, r.Open())
			defer r.Close()

			var got []*tuple.Tuple
			for {
				tup, err := r.Next()
				require.NoError(t, err)
				if tup == nil {
					break
				}
				got = append(got, tup)
			}

			require.Len(t, got, tt.n)
			for i := range in {
				assert.True(t, in[i].Equals(got[i]), "tuple %d", i)
			}

			tup, err := r.Next()
			assert.NoError(t, err)
			assert.Nil(t, tup, "exhausted reader keeps signalling end of stream")
		})
	}
}

func TestReader_NextBatchFollowsPages(t *testing.T) {
	td := testDesc(t)
	path := filepath.Join(t.TempDir(), "run")
	writeRun(t, path, td, 2, rows(5))

	r := NewReader(path, td, 2)
	require.NoError(t, r.Open())
	defer r.Close()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "(0, a)", first.String())

	var sizes []int
	for {
		b, err := r.NextBatch()
		require.NoError(t, err)
		if b == nil {
			break
		}
		sizes = append(sizes, b.Len())
	}
	assert.Equal(t, []int{1, 2, 1}, sizes)
}

func TestReader_Reopen(t *testing.T) {
	td := testDesc(t)
	path := filepath.Join(t.TempDir(), "run")
	writeRun(t, path, td, 2, rows(3))

	r := NewReader(path, td, 2)
	for i := 0; i < 2; i++ {
		require.NoError(t, r.Open())
		count := 0
		for {
			b, err := r.NextBatch()
			require.NoError(t, err)
			if b == nil {
				break
			}
			count += b.Len()
		}
		assert.Equal(t, 3, count)
		require.NoError(t, r.Close())
	}
}

// ============================================================================
// Failures
// ============================================================================

func TestReader_TruncatedFile(t *testing.T) {
	td := testDesc(t)
	path := filepath.Join(t.TempDir(), "run")
	writeRun(t, path, td, 4, rows(3))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-5))

	r := NewReader(path, td, 4)
	require.NoError(t, r.Open())
	defer r.Close()

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, dberror.IsCategory(err, dberror.CategoryFormat))
}

func TestReader_MissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent"), testDesc(t), 4)
	err := r.Open()
	require.Error(t, err)
	assert.True(t, dberror.IsCategory(err, dberror.CategoryIO))
}

func TestWriter_NotOpen(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "run"), testDesc(t), 2)
	assert.Error(t, w.WriteTuple(rows(1)[0]))
	assert.NoError(t, w.Close())
}

func TestRemove_ToleratesMissing(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, Remove(filepath.Join(dir, "never-created")))

	path := filepath.Join(dir, "run")
	writeRun(t, path, testDesc(t), 2, rows(1))
	require.NoError(t, Remove(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
