package optimizer

import (
	"math"

	"qexec/pkg/dberror"
	"qexec/pkg/execution"
	"qexec/pkg/execution/join"
	"qexec/pkg/execution/query"
	"qexec/pkg/execution/setops"
	"qexec/pkg/iterator"
	"qexec/pkg/primitives"
	"qexec/pkg/tuple"
)

const (
	// SelectionFactor is the fraction of tuples a range or inequality
	// selection is assumed to keep.
	SelectionFactor = 0.5

	// EqualityFactor is the fraction kept by an equality selection.
	EqualityFactor = 0.1
)

// CostModel prices a logical plan. Lower is cheaper.
type CostModel interface {
	Cost(plan iterator.Operator) (float64, error)
}

// rowCounter is implemented by scans that know their cardinality.
type rowCounter interface {
	RowCount() int64
}

// PlanCost estimates page I/O. Cardinalities come from scan row counts
// and fixed selection factors; page counts from the tuple width of each
// operator's output.
type PlanCost struct {
	pageSize int
	buffers  *BufferManager
}

func NewPlanCost(pageSize int, buffers *BufferManager) *PlanCost {
	return &PlanCost{pageSize: pageSize, buffers: buffers}
}

// Cost returns the estimated number of page reads and writes.
func (pc *PlanCost) Cost(plan iterator.Operator) (float64, error) {
	est, err := pc.estimate(plan)
	if err != nil {
		return 0, err
	}
	return est.cost, nil
}

type estimate struct {
	rows float64
	cost float64
}

func (pc *PlanCost) estimate(op iterator.Operator) (estimate, error) {
	switch n := op.(type) {
	case *join.Join:
		return pc.joinCost(n)

	case *execution.Select:
		in, err := pc.estimate(n.Child())
		if err != nil {
			return estimate{}, err
		}
		factor := SelectionFactor
		if n.Predicate().Op == primitives.Equals {
			factor = EqualityFactor
		}
		return estimate{rows: in.rows * factor, cost: in.cost}, nil

	case *execution.Project:
		return pc.estimate(n.Child())

	case *query.OrderBy, *setops.Distinct:
		child := op.(iterator.UnaryNode).Child()
		in, err := pc.estimate(child)
		if err != nil {
			return estimate{}, err
		}
		pages, err := pc.pages(in.rows, child.GetTupleDesc())
		if err != nil {
			return estimate{}, err
		}
		return estimate{rows: in.rows, cost: in.cost + sortCost(pages, pc.buffers.Total())}, nil

	case rowCounter:
		rows := float64(n.RowCount())
		pages, err := pc.pages(rows, op.GetTupleDesc())
		if err != nil {
			return estimate{}, err
		}
		return estimate{rows: rows, cost: pages}, nil
	}

	return estimate{}, dberror.Newf(dberror.CategoryCost, dberror.CodeCostFailed,
		"cannot cost %s operator", op.OpType())
}

func (pc *PlanCost) joinCost(j *join.Join) (estimate, error) {
	left, err := pc.estimate(j.Left())
	if err != nil {
		return estimate{}, err
	}
	right, err := pc.estimate(j.Right())
	if err != nil {
		return estimate{}, err
	}

	lp, err := pc.pages(left.rows, j.Left().GetTupleDesc())
	if err != nil {
		return estimate{}, err
	}
	rp, err := pc.pages(right.rows, j.Right().GetTupleDesc())
	if err != nil {
		return estimate{}, err
	}

	b := pc.buffers.PerJoin()
	if b < join.MinBuffers {
		return estimate{}, dberror.Newf(dberror.CategoryCost, dberror.CodeCostFailed,
			"join #%d would get %d buffer pages, needs %d", j.NodeIndex(), b, join.MinBuffers)
	}

	var io float64
	switch j.Method() {
	case join.NestedLoop:
		io = lp + lp*rp
	case join.BlockNested:
		io = lp + math.Ceil(lp/float64(b-2))*rp
	case join.SortMerge:
		io = sortCost(lp, b) + sortCost(rp, b) + lp + rp
	default:
		return estimate{}, dberror.Newf(dberror.CategoryCost, dberror.CodeCostFailed,
			"join #%d has no cost formula for method %s", j.NodeIndex(), j.Method())
	}

	rows := 0.0
	if m := math.Max(left.rows, right.rows); m > 0 {
		rows = left.rows * right.rows / m
	}
	return estimate{rows: rows, cost: left.cost + right.cost + io}, nil
}

// pages converts a cardinality to a page count for tuples of desc.
func (pc *PlanCost) pages(rows float64, desc *tuple.TupleDescription) (float64, error) {
	perPage, err := tuple.BatchCapacity(pc.pageSize, desc.GetSize())
	if err != nil {
		return 0, dberror.Newf(dberror.CategoryCost, dberror.CodeCostFailed, "page count: %v", err)
	}
	return math.Ceil(rows / float64(perPage)), nil
}

// sortCost is the I/O of an external sort of n pages with b buffers: one
// read and one write per pass, with ceil(n/b) initial runs merged
// b-1 at a time.
func sortCost(n float64, b int) float64 {
	if n <= 0 {
		return 0
	}
	runs := math.Ceil(n / float64(b))
	passes := 1.0
	if runs > 1 {
		passes += math.Ceil(math.Log(runs) / math.Log(float64(b-1)))
	}
	return 2 * n * passes
}
