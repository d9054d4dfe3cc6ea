package scanner

import (
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
)

// MemoryScan serves an in-memory relation in page-sized batches. The rows
// are shared read-only between clones.
type MemoryScan struct {
	ctx       *registry.ExecContext
	name      string
	desc      *tuple.TupleDescription
	rows      []*tuple.Tuple
	batchSize int

	iter *iterator.SliceIterator[*tuple.Tuple]
}

// NewMemoryScan creates a scan over rows, which must match desc.
func NewMemoryScan(ctx *registry.ExecContext, name string, desc *tuple.TupleDescription, rows []*tuple.Tuple) (*MemoryScan, error) {
	batchSize, err := tuple.BatchCapacity(ctx.PageSize(), desc.GetSize())
	if err != nil {
		return nil, err
	}

	return &MemoryScan{
		ctx:       ctx,
		name:      name,
		desc:      desc,
		rows:      rows,
		batchSize: batchSize,
	}, nil
}

func (s *MemoryScan) Open() error {
	s.iter = iterator.NewSliceIterator(s.rows)
	return nil
}

func (s *MemoryScan) Next() (*tuple.Batch, error) {
	if s.iter == nil || !s.iter.HasNext() {
		return nil, nil
	}

	out := tuple.NewBatch(s.batchSize)
	for !out.IsFull() && s.iter.HasNext() {
		t, err := s.iter.Next()
		if err != nil {
			return nil, err
		}
		if err := out.Add(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *MemoryScan) Close() error {
	s.iter = nil
	return nil
}

func (s *MemoryScan) Clone() iterator.Operator {
	return &MemoryScan{
		ctx:       s.ctx,
		name:      s.name,
		desc:      s.desc.Clone(),
		rows:      s.rows,
		batchSize: s.batchSize,
	}
}

func (s *MemoryScan) GetTupleDesc() *tuple.TupleDescription { return s.desc }

func (s *MemoryScan) OpType() iterator.OpType { return iterator.OpScan }

// TableName returns the relation name the scan reads.
func (s *MemoryScan) TableName() string { return s.name }

// RowCount returns the exact cardinality of the relation.
func (s *MemoryScan) RowCount() int64 { return int64(len(s.rows)) }
