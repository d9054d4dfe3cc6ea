package join

import (
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/storage/runfile"
	"qexec/pkg/tuple"
)

// blockState is the position of a block-nested scan between two calls to
// Next: which right page is loaded, which tuple of the in-memory left
// block is being joined, and how far into the right page that tuple got.
type blockState struct {
	block     []*tuple.Tuple
	eosLeft   bool
	rightPage *tuple.Batch
	lcurs     int
	rcurs     int
	done      bool
}

// blockNested is the scan shared by the nested-loop joins. It keeps
// blockPages pages of left tuples in memory and rescans the materialized
// right input once per block.
type blockNested struct {
	joinBase

	blockPages int
	blockSize  int

	left      *iterator.Cursor
	leftOpen  bool
	rightPath string
	reader    *runfile.Reader
	opened    bool

	state blockState
}

func newBlockNested(ctx *registry.ExecContext, j *Join, kind string, numBuffers, blockPages int) (*blockNested, error) {
	base, err := newJoinBase(ctx, j, kind, numBuffers)
	if err != nil {
		return nil, err
	}
	leftBatch, err := base.pageCapacity(j.Left().GetTupleDesc())
	if err != nil {
		return nil, err
	}
	return &blockNested{
		joinBase:   base,
		blockPages: blockPages,
		blockSize:  blockPages * leftBatch,
	}, nil
}

// clone copies the configuration onto a fresh logical subtree and id.
func (bn *blockNested) clone() *blockNested {
	return &blockNested{
		joinBase:   bn.cloneBase(),
		blockPages: bn.blockPages,
		blockSize:  bn.blockSize,
	}
}

// Open materializes the right input to a temp file, opens the left input,
// and loads the first left block.
func (bn *blockNested) Open() error {
	bn.state = blockState{}

	path, count, err := bn.materialize(bn.Right(), "")
	if err != nil {
		bn.removeFiles()
		return err
	}
	bn.rightPath = path

	if err := bn.Left().Open(); err != nil {
		_ = bn.Left().Close()
		bn.removeFiles()
		return err
	}
	bn.leftOpen = true
	bn.left = iterator.NewCursor(bn.Left())

	capacity, err := bn.pageCapacity(bn.Right().GetTupleDesc())
	if err != nil {
		bn.release()
		return err
	}
	bn.reader = runfile.NewReader(path, bn.Right().GetTupleDesc(), capacity)
	if err := bn.reader.Open(); err != nil {
		bn.release()
		return err
	}
	bn.opened = true

	if count == 0 {
		bn.state.done = true
		return nil
	}
	if err := bn.loadBlock(); err != nil {
		bn.release()
		return err
	}
	bn.log.Debug("join opened", "block_tuples", bn.blockSize, "right_tuples", count)
	return nil
}

// loadBlock reads up to blockSize left tuples. An empty block ends the join.
func (bn *blockNested) loadBlock() error {
	st := &bn.state
	st.block = st.block[:0]
	for len(st.block) < bn.blockSize {
		t, err := bn.left.Next()
		if err != nil {
			return err
		}
		if t == nil {
			st.eosLeft = true
			break
		}
		st.block = append(st.block, t)
	}
	st.rightPage = nil
	st.lcurs = 0
	st.rcurs = 0
	if len(st.block) == 0 {
		st.done = true
	}
	return nil
}

// nextRightPage positions the scan on the next right page. When the right
// file is exhausted the next left block is loaded and the right scan
// restarts from the beginning of the file.
func (bn *blockNested) nextRightPage() error {
	st := &bn.state
	page, err := bn.reader.NextBatch()
	if err != nil {
		return err
	}
	if page != nil {
		st.rightPage = page
		st.lcurs = 0
		st.rcurs = 0
		return nil
	}

	if st.eosLeft {
		st.done = true
		return nil
	}
	if err := bn.loadBlock(); err != nil {
		return err
	}
	if st.done {
		return nil
	}
	if err := bn.reader.Close(); err != nil {
		return err
	}
	return bn.reader.Open()
}

func (bn *blockNested) Next() (*tuple.Batch, error) {
	if !bn.opened {
		return nil, bn.errNotOpen()
	}
	st := &bn.state
	out := tuple.NewBatch(bn.batchSize)

	for !st.done && !out.IsFull() {
		if st.rightPage == nil || st.lcurs >= len(st.block) {
			if err := bn.nextRightPage(); err != nil {
				return nil, err
			}
			continue
		}

		l := st.block[st.lcurs]
		for st.rcurs < st.rightPage.Len() && !out.IsFull() {
			r := st.rightPage.Get(st.rcurs)
			st.rcurs++
			ok, err := bn.match(l, r)
			if err != nil {
				return nil, err
			}
			if ok {
				if err := out.Add(l.JoinWith(r)); err != nil {
					return nil, err
				}
			}
		}
		if st.rcurs >= st.rightPage.Len() {
			st.rcurs = 0
			st.lcurs++
		}
	}

	if out.IsEmpty() {
		return nil, nil
	}
	return out, nil
}

// Close closes the left input and the reader and deletes the temp file.
// Calling Close twice is a no-op.
func (bn *blockNested) Close() error {
	var err error
	if bn.leftOpen {
		bn.leftOpen = false
		err = bn.Left().Close()
	}
	closeReader(bn.reader)
	bn.reader = nil
	bn.removeFiles()
	bn.opened = false
	bn.state = blockState{}
	return err
}

func (bn *blockNested) release() {
	if err := bn.Close(); err != nil {
		bn.log.Warn("close after failed open", "error", err)
	}
}

// BlockNestedLoopJoin joins numBuffers-2 pages of the left input at a time
// against a full scan of the materialized right input.
type BlockNestedLoopJoin struct {
	*blockNested
}

// NewBlockNestedLoopJoin binds j to a block-nested-loop join with the given
// page budget.
func NewBlockNestedLoopJoin(ctx *registry.ExecContext, j *Join, numBuffers int) (*BlockNestedLoopJoin, error) {
	bn, err := newBlockNested(ctx, j, "BNL", numBuffers, numBuffers-2)
	if err != nil {
		return nil, err
	}
	return &BlockNestedLoopJoin{blockNested: bn}, nil
}

// Clone returns an unopened join over a clone of the logical subtree.
func (j *BlockNestedLoopJoin) Clone() iterator.Operator {
	return &BlockNestedLoopJoin{blockNested: j.clone()}
}
