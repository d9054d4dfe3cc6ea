package optimizer

import (
	"math/rand"

	"qexec/pkg/dberror"
	"qexec/pkg/execution"
	"qexec/pkg/execution/join"
	"qexec/pkg/execution/query"
	"qexec/pkg/execution/setops"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
)

// InitialPlanner builds random left-deep plans for a query. Every call to
// Prepare draws a new join order and new join methods.
type InitialPlanner struct {
	ctx        *registry.ExecContext
	query      *Query
	numBuffers int
	rng        *rand.Rand
}

// NewInitialPlanner prepares plans for q. numBuffers is the budget recorded
// on sort-based operators until the plan is materialized.
func NewInitialPlanner(ctx *registry.ExecContext, q *Query, numBuffers int, rng *rand.Rand) *InitialPlanner {
	return &InitialPlanner{ctx: ctx, query: q, numBuffers: numBuffers, rng: rng}
}

func (p *InitialPlanner) NumJoins() int { return p.query.NumJoins() }

// Prepare returns a fresh logical plan: filtered scans, a random left-deep
// join tree, then projection, duplicate elimination and ordering.
func (p *InitialPlanner) Prepare() (iterator.Operator, error) {
	if len(p.query.Relations) == 0 {
		return nil, dberror.New(dberror.CategoryPlan, dberror.CodeInvalidPlan, "query has no relations")
	}

	inputs, err := p.filteredScans()
	if err != nil {
		return nil, err
	}
	root, err := p.joinTree(inputs)
	if err != nil {
		return nil, err
	}
	return p.finish(root)
}

// filteredScans clones every relation and stacks its selections on top.
func (p *InitialPlanner) filteredScans() ([]iterator.Operator, error) {
	inputs := make([]iterator.Operator, len(p.query.Relations))
	for i, rel := range p.query.Relations {
		inputs[i] = rel.Clone()
	}

	for _, pred := range p.query.Selections {
		placed := false
		for i, in := range inputs {
			if !in.GetTupleDesc().Contains(pred.Attr) {
				continue
			}
			sel, err := execution.NewSelect(p.ctx, pred, in)
			if err != nil {
				return nil, err
			}
			inputs[i] = sel
			placed = true
			break
		}
		if !placed {
			return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeUnknownAttr,
				"selection %s matches no relation", pred)
		}
	}
	return inputs, nil
}

// joinTree adds one relation at a time, picking uniformly among those
// linked to the current tree by at least one condition.
func (p *InitialPlanner) joinTree(inputs []iterator.Operator) (iterator.Operator, error) {
	remaining := append([]iterator.Operator(nil), inputs...)
	p.rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })

	root := remaining[0]
	remaining = remaining[1:]
	used := make([]bool, len(p.query.JoinConditions))

	for idx := 0; len(remaining) > 0; idx++ {
		var candidates []int
		for i, rel := range remaining {
			if len(p.linking(root, rel, used)) > 0 {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return nil, dberror.New(dberror.CategoryPlan, dberror.CodeInvalidPlan,
				"join graph is disconnected: some relations share no join condition").
				WithHint("cross products are not supported; add an equality between the relations")
		}

		pick := candidates[p.rng.Intn(len(candidates))]
		rel := remaining[pick]
		remaining = append(remaining[:pick], remaining[pick+1:]...)

		var conds []join.Condition
		for _, ci := range p.linking(root, rel, used) {
			used[ci] = true
			conds = append(conds, p.query.JoinConditions[ci])
		}

		method := join.Method(p.rng.Intn(join.NumMethods))
		j, err := join.NewJoin(root, rel, conds, method, idx)
		if err != nil {
			return nil, err
		}
		root = j
	}

	for i, u := range used {
		if !u {
			return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeUnknownAttr,
				"join condition %s does not link two relations", p.query.JoinConditions[i])
		}
	}
	return root, nil
}

func (p *InitialPlanner) linking(tree, rel iterator.Operator, used []bool) []int {
	var out []int
	for i, c := range p.query.JoinConditions {
		if !used[i] && c.Links(tree.GetTupleDesc(), rel.GetTupleDesc()) {
			out = append(out, i)
		}
	}
	return out
}

// finish adds the operators above the joins. ORDER BY goes on top when its
// attributes survive the projection, otherwise below it; with DISTINCT they
// must survive.
func (p *InitialPlanner) finish(root iterator.Operator) (iterator.Operator, error) {
	q := p.query
	var err error

	sortBelow := len(q.OrderBy) > 0 && len(q.Projection) > 0 && !covers(q.Projection, q.OrderBy)
	if sortBelow && q.Distinct {
		return nil, dberror.New(dberror.CategoryPlan, dberror.CodeInvalidPlan,
			"ORDER BY attributes of a DISTINCT query must appear in the select list")
	}

	if sortBelow {
		if root, err = query.NewOrderBy(p.ctx, q.OrderBy, q.Descending, p.numBuffers, root); err != nil {
			return nil, err
		}
	}
	if len(q.Projection) > 0 {
		if root, err = execution.NewProject(p.ctx, q.Projection, root); err != nil {
			return nil, err
		}
	}
	if q.Distinct {
		if root, err = setops.NewDistinct(p.ctx, p.numBuffers, root); err != nil {
			return nil, err
		}
	}
	if len(q.OrderBy) > 0 && !sortBelow {
		if root, err = query.NewOrderBy(p.ctx, q.OrderBy, q.Descending, p.numBuffers, root); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// covers reports whether every attribute in refs matches one in attrs.
func covers(attrs, refs []tuple.Attribute) bool {
	for _, ref := range refs {
		found := false
		for _, a := range attrs {
			if a.Matches(ref) || ref.Matches(a) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
