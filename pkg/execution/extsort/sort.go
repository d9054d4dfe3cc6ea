package extsort

import (
	"log/slog"
	"slices"

	"qexec/pkg/dberror"
	"qexec/pkg/iterator"
	"qexec/pkg/logging"
	"qexec/pkg/registry"
	"qexec/pkg/storage/runfile"
	"qexec/pkg/tuple"
)

// MinBuffers is the smallest budget a sort can work with: one output page
// and a fan-in of at least two runs.
const MinBuffers = 3

// Stats reports the work an ExternalSort performed.
type Stats struct {
	Tuples      int64 // tuples read from the input
	Runs        int   // runs written by pass 0
	MergePasses int   // intermediate merge passes
}

// ExternalSort sorts the output of its child on key columns while holding
// at most numBuffers pages of tuples in memory.
type ExternalSort struct {
	ctx        *registry.ExecContext
	kind       string
	id         int64
	child      iterator.Operator
	keys       []int
	reverse    bool
	numBuffers int

	desc      *tuple.TupleDescription
	batchSize int
	cmp       *tuple.Comparator
	log       *slog.Logger

	childOpen bool
	pass      int
	runs      []string
	owned     map[string]struct{}
	readers   []*runfile.Reader
	queue     *mergeQueue
	stats     Stats
}

// New creates a sort of child on the given key positions. kind prefixes
// the names of the run files, which are <kind>tempRun-<id>_<pass>-<run>.
func New(ctx *registry.ExecContext, kind string, child iterator.Operator, keys []int, reverse bool, numBuffers int) (*ExternalSort, error) {
	if numBuffers < MinBuffers {
		return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeTooFewBuffers,
			"external sort needs at least %d buffer pages, got %d", MinBuffers, numBuffers)
	}

	desc := child.GetTupleDesc()
	if len(keys) == 0 {
		return nil, dberror.New(dberror.CategoryPlan, dberror.CodeInvalidPlan, "external sort needs at least one key column")
	}
	for _, k := range keys {
		if k < 0 || k >= desc.NumFields() {
			return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeInvalidPlan,
				"sort key %d out of range for %d columns", k, desc.NumFields())
		}
	}

	batchSize, err := tuple.BatchCapacity(ctx.PageSize(), desc.GetSize())
	if err != nil {
		return nil, err
	}

	id := ctx.NextID(kind)
	return &ExternalSort{
		ctx:        ctx,
		kind:       kind,
		id:         id,
		child:      child,
		keys:       append([]int(nil), keys...),
		reverse:    reverse,
		numBuffers: numBuffers,
		desc:       desc,
		batchSize:  batchSize,
		cmp:        tuple.NewComparator(keys, reverse),
		log:        logging.WithOperator(kind+"Sort", id),
		owned:      make(map[string]struct{}),
	}, nil
}

// Open consumes the whole input: it writes the initial runs, performs
// every merge pass needed, and positions the final merge. Reopening
// discards the runs of the previous open.
func (s *ExternalSort) Open() error {
	s.cleanup()
	s.stats = Stats{}
	s.pass = 0

	if err := s.generateRuns(); err != nil {
		s.cleanup()
		return err
	}

	for len(s.runs) > s.numBuffers-1 {
		if err := s.mergePass(); err != nil {
			s.cleanup()
			return err
		}
	}

	if err := s.startFinalMerge(); err != nil {
		s.cleanup()
		return err
	}
	return nil
}

func (s *ExternalSort) generateRuns() (err error) {
	if err := s.child.Open(); err != nil {
		_ = s.child.Close()
		return err
	}
	s.childOpen = true
	defer func() {
		s.childOpen = false
		if cerr := s.child.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	limit := s.numBuffers * s.batchSize
	buf := make([]*tuple.Tuple, 0, limit)

	err = iterator.Drain(s.child, func(b *tuple.Batch) error {
		for _, t := range b.Tuples() {
			buf = append(buf, t)
			s.stats.Tuples++
			if len(buf) == limit {
				if err := s.writeInitialRun(buf); err != nil {
					return err
				}
				buf = make([]*tuple.Tuple, 0, limit)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(buf) > 0 {
		if err := s.writeInitialRun(buf); err != nil {
			return err
		}
	}

	s.stats.Runs = len(s.runs)
	s.log.Debug("runs generated", "runs", len(s.runs), "tuples", s.stats.Tuples)
	return nil
}

func (s *ExternalSort) writeInitialRun(buf []*tuple.Tuple) error {
	if err := s.sortInMemory(buf); err != nil {
		return err
	}

	path := s.ctx.RunFile(s.kind, s.id, 0, len(s.runs))
	w, err := s.createRun(path)
	if err != nil {
		return err
	}
	for _, t := range buf {
		if err := w.WriteTuple(t); err != nil {
			_ = w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	s.runs = append(s.runs, path)
	return nil
}

// sortInMemory sorts buf stably, reporting the first comparison failure.
func (s *ExternalSort) sortInMemory(buf []*tuple.Tuple) error {
	var sortErr error
	slices.SortStableFunc(buf, func(a, b *tuple.Tuple) int {
		if sortErr != nil {
			return 0
		}
		c, err := s.cmp.Compare(a, b)
		if err != nil {
			sortErr = err
			return 0
		}
		return c
	})
	return sortErr
}

// mergePass combines groups of numBuffers-1 runs. A trailing group holding
// a single run is carried into the next pass unchanged.
func (s *ExternalSort) mergePass() error {
	s.pass++
	fanIn := s.numBuffers - 1
	next := make([]string, 0, (len(s.runs)+fanIn-1)/fanIn)

	for start := 0; start < len(s.runs); start += fanIn {
		group := s.runs[start:min(start+fanIn, len(s.runs))]
		if len(group) == 1 {
			next = append(next, group[0])
			continue
		}

		path, err := s.mergeGroup(group, len(next))
		if err != nil {
			return err
		}
		next = append(next, path)

		for _, old := range group {
			s.removeRun(old)
		}
	}

	s.log.Debug("merge pass done", "pass", s.pass, "runs_in", len(s.runs), "runs_out", len(next))
	s.runs = next
	s.stats.MergePasses++
	return nil
}

func (s *ExternalSort) mergeGroup(group []string, runIdx int) (path string, err error) {
	readers, err := s.openReaders(group)
	if err != nil {
		return "", err
	}
	defer closeReaders(readers)

	q, err := newMergeQueue(s.cmp, sources(readers))
	if err != nil {
		return "", err
	}

	path = s.ctx.RunFile(s.kind, s.id, s.pass, runIdx)
	w, err := s.createRun(path)
	if err != nil {
		return "", err
	}
	for {
		t, err := q.pop()
		if err != nil {
			_ = w.Close()
			return "", err
		}
		if t == nil {
			break
		}
		if err := w.WriteTuple(t); err != nil {
			_ = w.Close()
			return "", err
		}
	}
	return path, w.Close()
}

func (s *ExternalSort) startFinalMerge() error {
	readers, err := s.openReaders(s.runs)
	if err != nil {
		return err
	}
	s.readers = readers

	q, err := newMergeQueue(s.cmp, sources(readers))
	if err != nil {
		return err
	}
	s.queue = q
	return nil
}

// Next returns the next batch of sorted tuples, or nil once every run is drained.
func (s *ExternalSort) Next() (*tuple.Batch, error) {
	if s.queue == nil {
		return nil, nil
	}

	out := tuple.NewBatch(s.batchSize)
	for !out.IsFull() {
		t, err := s.queue.pop()
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

// Close releases the readers and deletes every run file still owned.
func (s *ExternalSort) Close() error {
	s.cleanup()
	if s.childOpen {
		s.childOpen = false
		return s.child.Close()
	}
	return nil
}

func (s *ExternalSort) cleanup() {
	closeReaders(s.readers)
	s.readers = nil
	s.queue = nil
	for path := range s.owned {
		s.removeRun(path)
	}
	s.runs = nil
}

func (s *ExternalSort) createRun(path string) (*runfile.Writer, error) {
	w := runfile.NewWriter(path, s.desc, s.batchSize)
	s.owned[path] = struct{}{}
	if err := w.Open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *ExternalSort) removeRun(path string) {
	delete(s.owned, path)
	if err := runfile.Remove(path); err != nil {
		logging.WithError(err).Warn("failed to remove run file", "path", path)
	}
}

func (s *ExternalSort) openReaders(paths []string) ([]*runfile.Reader, error) {
	readers := make([]*runfile.Reader, 0, len(paths))
	for _, p := range paths {
		r := runfile.NewReader(p, s.desc, s.batchSize)
		if err := r.Open(); err != nil {
			closeReaders(readers)
			return nil, err
		}
		readers = append(readers, r)
	}
	return readers, nil
}

func closeReaders(readers []*runfile.Reader) {
	for _, r := range readers {
		if err := r.Close(); err != nil {
			logging.WithError(err).Warn("failed to close run reader", "path", r.Path())
		}
	}
}

func sources(readers []*runfile.Reader) []iterator.TupleSource {
	out := make([]iterator.TupleSource, len(readers))
	for i, r := range readers {
		out[i] = r
	}
	return out
}

// Clone returns an unopened sort of a cloned child. It draws a fresh id,
// so its run files never collide with the original's.
func (s *ExternalSort) Clone() iterator.Operator {
	id := s.ctx.NextID(s.kind)
	return &ExternalSort{
		ctx:        s.ctx,
		kind:       s.kind,
		id:         id,
		child:      s.child.Clone(),
		keys:       append([]int(nil), s.keys...),
		reverse:    s.reverse,
		numBuffers: s.numBuffers,
		desc:       s.desc,
		batchSize:  s.batchSize,
		cmp:        tuple.NewComparator(s.keys, s.reverse),
		log:        logging.WithOperator(s.kind+"Sort", id),
		owned:      make(map[string]struct{}),
	}
}

func (s *ExternalSort) GetTupleDesc() *tuple.TupleDescription { return s.desc }

func (s *ExternalSort) OpType() iterator.OpType { return iterator.OpSort }

// Stats returns counters for the work done so far.
func (s *ExternalSort) Stats() Stats { return s.stats }

// BatchSize returns the number of tuples per output page.
func (s *ExternalSort) BatchSize() int { return s.batchSize }
