// Package table persists base relations in a Pebble LSM store.
//
// Keys are laid out so that one table's rows form a contiguous range:
//
//	c/<table>                   schema record (YAML)
//	r/<table>\x00<rowid:8 BE>   one serialized tuple
//
// Big-endian row ids keep rows in insertion order under Pebble's byte-wise
// key ordering.
package table

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"gopkg.in/yaml.v3"

	"qexec/pkg/dberror"
	"qexec/pkg/logging"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

const (
	schemaPrefix = "c/"
	rowPrefix    = "r/"
)

// Store is a set of tables inside one Pebble database.
type Store struct {
	db *pebble.DB
	mu sync.Mutex
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, storeErr(err, "Open")
	}
	return &Store{db: db}, nil
}

// Close flushes in-memory state and closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return storeErr(err, "Close")
	}
	return nil
}

// CreateTable registers a table, replacing any previous table of the same
// name together with its rows.
func (s *Store) CreateTable(info *TableInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := rowBounds(info.Name)
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(lo, hi, nil); err != nil {
		return storeErr(err, "CreateTable")
	}

	fresh := *info
	fresh.RowCount = 0
	if err := putSchema(b, &fresh); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return storeErr(err, "CreateTable")
	}

	logging.WithTable(info.Name).Debug("table created", "columns", len(info.Columns))
	return nil
}

// Table loads the schema record of name.
func (s *Store) Table(name string) (*TableInfo, error) {
	val, closer, err := s.db.Get([]byte(schemaPrefix + name))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeUnknownAttr, "table %q does not exist", name)
	}
	if err != nil {
		return nil, storeErr(err, "Table")
	}
	defer closer.Close()

	var info TableInfo
	if err := yaml.Unmarshal(val, &info); err != nil {
		return nil, dberror.Wrap(err, dberror.CategoryFormat, dberror.CodeStoreFailed, "Table", "TableStore")
	}
	return &info, nil
}

// Tables lists every registered table in name order.
func (s *Store) Tables() ([]*TableInfo, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(schemaPrefix),
		UpperBound: []byte("c0"), // '0' follows '/'
	})
	if err != nil {
		return nil, storeErr(err, "Tables")
	}
	defer iter.Close()

	var out []*TableInfo
	for iter.First(); iter.Valid(); iter.Next() {
		var info TableInfo
		if err := yaml.Unmarshal(iter.Value(), &info); err != nil {
			return nil, dberror.Wrap(err, dberror.CategoryFormat, dberror.CodeStoreFailed, "Tables", "TableStore")
		}
		out = append(out, &info)
	}
	return out, nil
}

// Insert appends tuples to a table in one atomic batch and updates its row count.
func (s *Store) Insert(name string, rows []*tuple.Tuple) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.Table(name)
	if err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()
	var buf bytes.Buffer
	for i, t := range rows {
		buf.Reset()
		if err := t.Serialize(&buf); err != nil {
			return dberror.Wrap(err, dberror.CategoryFormat, dberror.CodeStoreFailed, "Insert", "TableStore")
		}
		if err := b.Set(rowKey(name, info.RowCount+int64(i)), buf.Bytes(), nil); err != nil {
			return storeErr(err, "Insert")
		}
	}

	info.RowCount += int64(len(rows))
	if err := putSchema(b, info); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return storeErr(err, "Insert")
	}
	return nil
}

// Rows opens an iterator over a table's rows in insertion order.
func (s *Store) Rows(info *TableInfo) (*RowIterator, error) {
	desc, err := info.Desc()
	if err != nil {
		return nil, err
	}

	lo, hi := rowBounds(info.Name)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, storeErr(err, "Rows")
	}
	iter.First()
	return &RowIterator{iter: iter, desc: desc}, nil
}

func putSchema(b *pebble.Batch, info *TableInfo) error {
	data, err := yaml.Marshal(info)
	if err != nil {
		return dberror.Wrap(err, dberror.CategoryFormat, dberror.CodeStoreFailed, "PutSchema", "TableStore")
	}
	if err := b.Set([]byte(schemaPrefix+info.Name), data, nil); err != nil {
		return storeErr(err, "PutSchema")
	}
	return nil
}

func rowBounds(name string) (lo, hi []byte) {
	lo = append([]byte(rowPrefix+name), 0)
	hi = append([]byte(rowPrefix+name), 1)
	return lo, hi
}

func rowKey(name string, id int64) []byte {
	key, _ := rowBounds(name)
	return binary.BigEndian.AppendUint64(key, uint64(id))
}

func storeErr(err error, op string) error {
	return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeStoreFailed, op, "TableStore")
}

// RowIterator decodes the rows of one table.
type RowIterator struct {
	iter *pebble.Iterator
	desc *tuple.TupleDescription
}

// Next returns the next row, or nil when the table is exhausted.
func (it *RowIterator) Next() (*tuple.Tuple, error) {
	if !it.iter.Valid() {
		if err := it.iter.Error(); err != nil {
			return nil, storeErr(err, "Next")
		}
		return nil, nil
	}

	t, err := tuple.ReadTuple(bytes.NewReader(it.iter.Value()), it.desc)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CategoryFormat, dberror.CodeStoreFailed, "Next", "TableStore")
	}
	it.iter.Next()
	return t, nil
}

func (it *RowIterator) Close() error {
	if err := it.iter.Close(); err != nil {
		return storeErr(err, "Close")
	}
	return nil
}

// TableInfo is the persisted description of one table.
type TableInfo struct {
	Name     string   `yaml:"name"`
	Columns  []Column `yaml:"columns"`
	RowCount int64    `yaml:"row_count"`
}

// Column is one column of a TableInfo. Type uses the short type names.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Desc builds the table's schema with every attribute qualified by the table name.
func (info *TableInfo) Desc() (*tuple.TupleDescription, error) {
	names := make([]string, len(info.Columns))
	fieldTypes := make([]types.Type, len(info.Columns))
	for i, c := range info.Columns {
		t, err := types.ParseType(c.Type)
		if err != nil {
			return nil, dberror.Wrap(err, dberror.CategoryPlan, dberror.CodeInvalidPlan, "Desc", "TableStore")
		}
		names[i] = c.Name
		fieldTypes[i] = t
	}
	return tuple.NewTableDesc(info.Name, names, fieldTypes)
}
