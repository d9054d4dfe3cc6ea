package join

import (
	"qexec/pkg/execution/extsort"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/storage/runfile"
	"qexec/pkg/tuple"
)

// SortMergeJoin sorts both inputs on the join keys and merges them. The
// sorted right input is written to a temp file and read back; the left
// input is read straight from its sort, except with only three pages, where
// it is materialized as well so that the two sorts never hold pages at the
// same time.
type SortMergeJoin struct {
	joinBase

	leftSort    *extsort.ExternalSort
	left        iterator.TupleSource
	leftReader  *runfile.Reader
	rightReader *runfile.Reader
	opened      bool

	currLeft  *tuple.Tuple
	currRight *tuple.Tuple
	partition matchBuffer
}

func NewSortMergeJoin(ctx *registry.ExecContext, j *Join, numBuffers int) (*SortMergeJoin, error) {
	base, err := newJoinBase(ctx, j, "SMJ", numBuffers)
	if err != nil {
		return nil, err
	}
	return &SortMergeJoin{joinBase: base}, nil
}

func (s *SortMergeJoin) Open() error {
	if err := s.open(); err != nil {
		if cerr := s.Close(); cerr != nil {
			s.log.Warn("close after failed open", "error", cerr)
		}
		return err
	}
	s.opened = true
	return nil
}

func (s *SortMergeJoin) open() error {
	s.partition.reset()
	s.currLeft, s.currRight = nil, nil

	rightSort, err := extsort.New(s.ctx, s.kind+"right", s.Right(), s.rightKeys, false, s.numBuffers)
	if err != nil {
		return err
	}
	rightPath, _, err := s.materialize(rightSort, "right")
	if err != nil {
		return err
	}
	if s.rightReader, err = s.openReader(rightPath, s.Right().GetTupleDesc()); err != nil {
		return err
	}

	leftSort, err := extsort.New(s.ctx, s.kind+"left", s.Left(), s.leftKeys, false, s.numBuffers)
	if err != nil {
		return err
	}
	if s.numBuffers == MinBuffers {
		leftPath, _, err := s.materialize(leftSort, "left")
		if err != nil {
			return err
		}
		if s.leftReader, err = s.openReader(leftPath, s.Left().GetTupleDesc()); err != nil {
			return err
		}
		s.left = s.leftReader
	} else {
		s.leftSort = leftSort
		if err := leftSort.Open(); err != nil {
			return err
		}
		s.left = iterator.NewCursor(leftSort)
	}

	if s.currLeft, err = s.left.Next(); err != nil {
		return err
	}
	if s.currRight, err = s.rightReader.Next(); err != nil {
		return err
	}
	return nil
}

func (s *SortMergeJoin) openReader(path string, desc *tuple.TupleDescription) (*runfile.Reader, error) {
	capacity, err := s.pageCapacity(desc)
	if err != nil {
		return nil, err
	}
	r := runfile.NewReader(path, desc, capacity)
	if err := r.Open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SortMergeJoin) compare(l, r *tuple.Tuple) (int, error) {
	return tuple.CompareTuples(l, r, s.leftKeys, s.rightKeys)
}

func (s *SortMergeJoin) advanceLeft() error {
	t, err := s.left.Next()
	s.currLeft = t
	return err
}

func (s *SortMergeJoin) advanceRight() error {
	t, err := s.rightReader.Next()
	s.currRight = t
	return err
}

// Next emits the next batch of matches. The pending partition and its
// replay cursor survive between calls, so a key whose matches overflow a
// batch resumes on the exact pair where the previous call stopped.
func (s *SortMergeJoin) Next() (*tuple.Batch, error) {
	if !s.opened {
		return nil, s.errNotOpen()
	}
	out := tuple.NewBatch(s.batchSize)

	for s.currLeft != nil && (s.currRight != nil || !s.partition.empty()) {
		if !s.partition.empty() {
			for {
				c, err := s.compare(s.currLeft, s.partition.first())
				if err != nil {
					return nil, err
				}
				if c != 0 {
					break
				}
				for s.partition.hasNext() {
					if out.IsFull() {
						return out, nil
					}
					if err := out.Add(s.currLeft.JoinWith(s.partition.next())); err != nil {
						return nil, err
					}
				}
				s.partition.rewind()
				if err := s.advanceLeft(); err != nil {
					return nil, err
				}
				if s.currLeft == nil {
					return emit(out), nil
				}
			}
			s.partition.reset()
			if s.currRight == nil {
				return emit(out), nil
			}
		}

		c, err := s.compare(s.currLeft, s.currRight)
		if err != nil {
			return nil, err
		}
		if c < 0 {
			if err := s.advanceLeft(); err != nil {
				return nil, err
			}
			continue
		}
		if c > 0 {
			if err := s.advanceRight(); err != nil {
				return nil, err
			}
			continue
		}

		for s.currRight != nil {
			c, err := s.compare(s.currLeft, s.currRight)
			if err != nil {
				return nil, err
			}
			if c != 0 {
				break
			}
			s.partition.add(s.currRight)
			if err := s.advanceRight(); err != nil {
				return nil, err
			}
		}
	}
	return emit(out), nil
}

func emit(out *tuple.Batch) *tuple.Batch {
	if out.IsEmpty() {
		return nil
	}
	return out
}

// Close releases both sorted streams and deletes the temp files. Calling
// Close twice is a no-op.
func (s *SortMergeJoin) Close() error {
	var err error
	if s.leftSort != nil {
		err = s.leftSort.Close()
		s.leftSort = nil
	}
	closeReader(s.leftReader)
	closeReader(s.rightReader)
	s.leftReader, s.rightReader, s.left = nil, nil, nil
	s.removeFiles()

	s.opened = false
	s.currLeft, s.currRight = nil, nil
	s.partition.reset()
	return err
}

func (s *SortMergeJoin) Clone() iterator.Operator {
	return &SortMergeJoin{joinBase: s.cloneBase()}
}
