package scanner

import (
	"qexec/pkg/iterator"
	"qexec/pkg/logging"
	"qexec/pkg/registry"
	"qexec/pkg/storage/table"
	"qexec/pkg/tuple"
)

// TableScan streams a persistent table from the Pebble-backed store.
type TableScan struct {
	ctx       *registry.ExecContext
	store     *table.Store
	info      *table.TableInfo
	alias     string
	desc      *tuple.TupleDescription
	batchSize int

	rows *table.RowIterator
}

// NewTableScan creates a scan of info. When alias is not empty, output
// attributes are qualified with the alias instead of the table name.
func NewTableScan(ctx *registry.ExecContext, store *table.Store, info *table.TableInfo, alias string) (*TableScan, error) {
	desc, err := info.Desc()
	if err != nil {
		return nil, err
	}
	if alias != "" && alias != info.Name {
		for i := range desc.Attributes {
			desc.Attributes[i].Table = alias
		}
	} else {
		alias = info.Name
	}

	batchSize, err := tuple.BatchCapacity(ctx.PageSize(), desc.GetSize())
	if err != nil {
		return nil, err
	}

	return &TableScan{
		ctx:       ctx,
		store:     store,
		info:      info,
		alias:     alias,
		desc:      desc,
		batchSize: batchSize,
	}, nil
}

func (s *TableScan) Open() error {
	rows, err := s.store.Rows(s.info)
	if err != nil {
		return err
	}
	s.rows = rows
	logging.WithTable(s.info.Name).Debug("table scan opened", "alias", s.alias, "rows", s.info.RowCount)
	return nil
}

func (s *TableScan) Next() (*tuple.Batch, error) {
	if s.rows == nil {
		return nil, nil
	}

	out := tuple.NewBatch(s.batchSize)
	for !out.IsFull() {
		t, err := s.rows.Next()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		if err := out.Add(t); err != nil {
			return nil, err
		}
	}

	if out.IsEmpty() {
		return nil, nil
	}
	return out, nil
}

func (s *TableScan) Close() error {
	if s.rows == nil {
		return nil
	}
	err := s.rows.Close()
	s.rows = nil
	return err
}

func (s *TableScan) Clone() iterator.Operator {
	return &TableScan{
		ctx:       s.ctx,
		store:     s.store,
		info:      s.info,
		alias:     s.alias,
		desc:      s.desc.Clone(),
		batchSize: s.batchSize,
	}
}

func (s *TableScan) GetTupleDesc() *tuple.TupleDescription { return s.desc }

func (s *TableScan) OpType() iterator.OpType { return iterator.OpScan }

// TableName returns the alias the scan's attributes are qualified with.
func (s *TableScan) TableName() string { return s.alias }

// RowCount returns the row count recorded in the catalog.
func (s *TableScan) RowCount() int64 { return s.info.RowCount }
