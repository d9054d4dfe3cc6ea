package extsort

import (
	"container/heap"

	"qexec/pkg/iterator"
	"qexec/pkg/tuple"
)

type mergeItem struct {
	t   *tuple.Tuple
	src int
}

// mergeQueue is a min-heap holding the current head tuple of every
// source. Ties are broken by source index, which keeps the merge stable.
type mergeQueue struct {
	items   []mergeItem
	sources []iterator.TupleSource
	cmp     *tuple.Comparator
	err     error // first comparison failure seen inside Less
}

func newMergeQueue(cmp *tuple.Comparator, sources []iterator.TupleSource) (*mergeQueue, error) {
	q := &mergeQueue{
		items:   make([]mergeItem, 0, len(sources)),
		sources: sources,
		cmp:     cmp,
	}
	for i, src := range sources {
		t, err := src.Next()
		if err != nil {
			return nil, err
		}
		if t != nil {
			q.items = append(q.items, mergeItem{t: t, src: i})
		}
	}
	heap.Init(q)
	return q, q.err
}

func (q *mergeQueue) Len() int { return len(q.items) }

func (q *mergeQueue) Less(i, j int) bool {
	c, err := q.cmp.Compare(q.items[i].t, q.items[j].t)
	if err != nil {
		if q.err == nil {
			q.err = err
		}
		return false
	}
	if c != 0 {
		return c < 0
	}
	return q.items[i].src < q.items[j].src
}

func (q *mergeQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *mergeQueue) Push(x any) { q.items = append(q.items, x.(mergeItem)) }

func (q *mergeQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

// pop removes the smallest head tuple and refills its slot from the same
// source. It returns nil once every source is exhausted.
func (q *mergeQueue) pop() (*tuple.Tuple, error) {
	if len(q.items) == 0 {
		return nil, nil
	}

	top := q.items[0]
	next, err := q.sources[top.src].Next()
	if err != nil {
		return nil, err
	}
	if next != nil {
		q.items[0].t = next
		heap.Fix(q, 0)
	} else {
		heap.Pop(q)
	}

	if q.err != nil {
		return nil, q.err
	}
	return top.t, nil
}
