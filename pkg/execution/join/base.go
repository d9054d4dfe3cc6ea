package join

import (
	"log/slog"

	"qexec/pkg/dberror"
	"qexec/pkg/iterator"
	"qexec/pkg/logging"
	"qexec/pkg/registry"
	"qexec/pkg/storage/runfile"
	"qexec/pkg/tuple"
)

// MinBuffers is the smallest page budget any physical join accepts: one
// page per input and one for output.
const MinBuffers = 3

// joinBase carries what every physical join shares: the logical node it
// executes, the execution context, its temp-file identity, and the
// resolved key columns.
type joinBase struct {
	*Join

	ctx        *registry.ExecContext
	kind       string
	id         int64
	numBuffers int
	batchSize  int
	leftKeys   []int
	rightKeys  []int
	log        *slog.Logger

	files []string
}

func newJoinBase(ctx *registry.ExecContext, j *Join, kind string, numBuffers int) (joinBase, error) {
	if numBuffers < MinBuffers {
		return joinBase{}, dberror.Newf(dberror.CategoryPlan, dberror.CodeTooFewBuffers,
			"%s join needs at least %d buffer pages, got %d", kind, MinBuffers, numBuffers)
	}

	leftKeys, rightKeys, err := j.KeyIndices()
	if err != nil {
		return joinBase{}, err
	}

	batchSize, err := tuple.BatchCapacity(ctx.PageSize(), j.GetTupleDesc().GetSize())
	if err != nil {
		return joinBase{}, err
	}

	id := ctx.NextID(kind)
	return joinBase{
		Join:       j,
		ctx:        ctx,
		kind:       kind,
		id:         id,
		numBuffers: numBuffers,
		batchSize:  batchSize,
		leftKeys:   leftKeys,
		rightKeys:  rightKeys,
		log:        logging.WithOperator(kind, id),
	}, nil
}

// cloneBase deep-copies the logical subtree and draws a new id, so the
// clone's temp files never collide with the original's.
func (b *joinBase) cloneBase() joinBase {
	id := b.ctx.NextID(b.kind)
	return joinBase{
		Join:       b.Join.Clone().(*Join),
		ctx:        b.ctx,
		kind:       b.kind,
		id:         id,
		numBuffers: b.numBuffers,
		batchSize:  b.batchSize,
		leftKeys:   append([]int(nil), b.leftKeys...),
		rightKeys:  append([]int(nil), b.rightKeys...),
		log:        logging.WithOperator(b.kind, id),
	}
}

// ID returns the instance number used in this join's temp-file names.
func (b *joinBase) ID() int64 { return b.id }

// NumBuffers returns the page budget the join was built with.
func (b *joinBase) NumBuffers() int { return b.numBuffers }

// BatchSize returns the number of output tuples per page.
func (b *joinBase) BatchSize() int { return b.batchSize }

// Logical returns the logical node this join executes.
func (b *joinBase) Logical() *Join { return b.Join }

func (b *joinBase) pageCapacity(desc *tuple.TupleDescription) (int, error) {
	return tuple.BatchCapacity(b.ctx.PageSize(), desc.GetSize())
}

// materialize drains op into a temp file named after suffix and this
// join's id. op is opened and closed here. The file is owned by the join
// and removed by removeFiles.
func (b *joinBase) materialize(op iterator.Operator, suffix string) (path string, count int64, err error) {
	desc := op.GetTupleDesc()
	capacity, err := b.pageCapacity(desc)
	if err != nil {
		return "", 0, err
	}

	path = b.ctx.TempFile(b.kind+suffix, b.id)
	b.files = append(b.files, path)

	w := runfile.NewWriter(path, desc, capacity)
	if err := w.Open(); err != nil {
		return "", 0, err
	}

	if err := op.Open(); err != nil {
		_ = op.Close()
		_ = w.Close()
		return "", 0, err
	}
	count, err = iterator.Materialize(op, w)
	cerr := op.Close()
	werr := w.Close()
	switch {
	case err != nil:
		return "", 0, err
	case cerr != nil:
		return "", 0, cerr
	case werr != nil:
		return "", 0, werr
	}

	b.log.Debug("input materialized", "path", path, "tuples", count, "pages", w.Pages())
	return path, count, nil
}

func (b *joinBase) removeFiles() {
	for _, path := range b.files {
		if err := runfile.Remove(path); err != nil {
			logging.WithError(err).Warn("failed to remove join temp file", "path", path)
		}
	}
	b.files = nil
}

// match reports whether l and r agree on every join key.
func (b *joinBase) match(l, r *tuple.Tuple) (bool, error) {
	return tuple.CheckJoin(l, r, b.leftKeys, b.rightKeys)
}

func (b *joinBase) errNotOpen() error {
	return dberror.Newf(dberror.CategoryInternal, dberror.CodeNotOpen,
		"%s join #%d is not open", b.kind, b.id)
}

func closeReader(r *runfile.Reader) {
	if r == nil {
		return
	}
	if err := r.Close(); err != nil {
		logging.WithError(err).Warn("failed to close join reader", "path", r.Path())
	}
}
