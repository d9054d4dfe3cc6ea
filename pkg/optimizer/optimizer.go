package optimizer

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"

	"qexec/pkg/dberror"
	"qexec/pkg/iterator"
	"qexec/pkg/logging"
)

// Strategy selects the search algorithm.
type Strategy string

const (
	StrategyII  Strategy = "ii"
	StrategySA  Strategy = "sa"
	Strategy2PO Strategy = "2po"
)

// ParseStrategy accepts "ii", "sa" and "2po" in any case.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(name)); s {
	case StrategyII, StrategySA, Strategy2PO:
		return s, nil
	}
	return "", fmt.Errorf("unknown optimizer strategy %q (want ii, sa or 2po)", name)
}

const (
	// TwoPhaseRestarts is the number of local optimizations in the first
	// phase of two-phase optimization.
	TwoPhaseRestarts = 10

	equilibriumFactor   = 16
	coolingRate         = 0.95
	frozenLevels        = 4
	coldTemperature     = 2.0
	seededTemperature   = 0.1
	minimumTemperature  = 1.0
	neighborsPerJoinMul = 2
)

// Result is the outcome of a search.
type Result struct {
	Plan iterator.Operator
	Cost float64

	// Evaluated counts calls to the cost model.
	Evaluated int

	// FailedIterations counts restarts and annealing steps abandoned
	// because a plan could not be costed.
	FailedIterations int
}

// Optimizer searches the space of join orders and methods with random
// local moves. It is not safe for concurrent use.
type Optimizer struct {
	planner  *InitialPlanner
	cost     CostModel
	rng      *rand.Rand
	numJoins int
	log      *slog.Logger
}

// New creates an optimizer. rng drives every random choice, so a seeded
// source makes the search reproducible.
func New(planner *InitialPlanner, cost CostModel, rng *rand.Rand) *Optimizer {
	return &Optimizer{
		planner:  planner,
		cost:     cost,
		rng:      rng,
		numJoins: planner.NumJoins(),
		log:      logging.WithComponent("optimizer"),
	}
}

// Optimize runs the given strategy.
func (o *Optimizer) Optimize(strategy Strategy) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch strategy {
	case StrategyII:
		res, err = o.IterativeImprovement()
	case StrategySA:
		res, err = o.SimulatedAnnealing(nil)
	case Strategy2PO:
		res, err = o.TwoPhase()
	default:
		return nil, dberror.Newf(dberror.CategoryPlan, dberror.CodeInvalidConfig, "unknown optimizer strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	o.log.Info("plan chosen",
		"strategy", string(strategy),
		"cost", res.Cost,
		"evaluated", res.Evaluated,
		"failed", res.FailedIterations)
	return res, nil
}

// IterativeImprovement restarts from 2*numJoins random plans (one when
// the query has no joins) and returns the best local minimum.
func (o *Optimizer) IterativeImprovement() (*Result, error) {
	restarts := 1
	if o.numJoins > 0 {
		restarts = neighborsPerJoinMul * o.numJoins
	}
	return o.iterativeImprovement(restarts)
}

// TwoPhase runs a short iterative improvement and anneals from its result
// at a low starting temperature.
func (o *Optimizer) TwoPhase() (*Result, error) {
	restarts := 1
	if o.numJoins > 0 {
		restarts = TwoPhaseRestarts
	}
	seed, err := o.iterativeImprovement(restarts)
	if err != nil {
		return nil, err
	}
	return o.SimulatedAnnealing(seed)
}

func (o *Optimizer) iterativeImprovement(restarts int) (*Result, error) {
	res := &Result{Cost: math.Inf(1)}

	for r := 0; r < restarts; r++ {
		plan, err := o.planner.Prepare()
		if err != nil {
			return nil, err
		}
		cost, err := o.evaluate(res, plan)
		if err != nil {
			o.abandon(res, "restart", err)
			continue
		}

		plan, cost = o.descend(res, plan, cost)
		o.log.Debug("local minimum", "restart", r, "cost", cost)
		if cost < res.Cost {
			res.Plan, res.Cost = plan, cost
		}
	}

	if res.Plan == nil {
		return nil, dberror.Newf(dberror.CategoryCost, dberror.CodeCostFailed,
			"none of %d random plans could be costed", restarts)
	}
	return res, nil
}

// descend moves to the best sampled neighbour while it is strictly cheaper.
func (o *Optimizer) descend(res *Result, plan iterator.Operator, cost float64) (iterator.Operator, float64) {
	if o.numJoins == 0 {
		return plan, cost
	}
	for {
		nb, nbCost, err := o.bestNeighbor(res, plan)
		if err != nil {
			o.abandon(res, "descent", err)
			return plan, cost
		}
		if nbCost >= cost {
			return plan, cost
		}
		plan, cost = nb, nbCost
	}
}

// SimulatedAnnealing anneals from seed, or from a random plan when seed is
// nil, and returns the cheapest plan seen at any point.
func (o *Optimizer) SimulatedAnnealing(seed *Result) (*Result, error) {
	res := &Result{}
	var (
		plan        iterator.Operator
		cost        float64
		temperature float64
	)

	if seed == nil {
		p, err := o.planner.Prepare()
		if err != nil {
			return nil, err
		}
		c, err := o.evaluate(res, p)
		if err != nil {
			return nil, err
		}
		plan, cost = p, c
		temperature = coldTemperature * cost
	} else {
		plan, cost = seed.Plan, seed.Cost
		res.Evaluated = seed.Evaluated
		res.FailedIterations = seed.FailedIterations
		temperature = seededTemperature * cost
	}

	best, bestCost := plan, cost
	unchanged := 0
	for level := 0; temperature > minimumTemperature && unchanged < frozenLevels; level++ {
		improved := false
		for x := 0; x < equilibriumFactor*o.numJoins; x++ {
			nb, nbCost, err := o.bestNeighbor(res, plan)
			if err != nil {
				o.abandon(res, "annealing step", err)
				continue
			}
			if nbCost <= cost || o.rng.Float64() < math.Exp((cost-nbCost)/temperature) {
				plan, cost = nb, nbCost
			}
			if cost < bestCost {
				best, bestCost = plan, cost
				improved = true
			}
		}

		if improved {
			unchanged = 0
		} else {
			unchanged++
		}
		o.log.Debug("temperature level", "level", level, "temperature", temperature, "cost", cost, "best", bestCost)
		temperature *= coolingRate
	}

	res.Plan, res.Cost = best, bestCost
	return res, nil
}

// bestNeighbor samples 2*numJoins neighbours of plan and returns the
// cheapest. A costing failure abandons the whole sample.
func (o *Optimizer) bestNeighbor(res *Result, plan iterator.Operator) (iterator.Operator, float64, error) {
	var best iterator.Operator
	bestCost := math.Inf(1)
	for i := 0; i < neighborsPerJoinMul*o.numJoins; i++ {
		nb := o.neighbor(plan)
		c, err := o.evaluate(res, nb)
		if err != nil {
			return nil, 0, err
		}
		if best == nil || c < bestCost {
			best, bestCost = nb, c
		}
	}
	return best, bestCost, nil
}

func (o *Optimizer) evaluate(res *Result, plan iterator.Operator) (float64, error) {
	res.Evaluated++
	return o.cost.Cost(plan)
}

func (o *Optimizer) abandon(res *Result, stage string, err error) {
	res.FailedIterations++
	logging.WithError(err).Warn("plan could not be costed", "component", "optimizer", "stage", stage)
}
