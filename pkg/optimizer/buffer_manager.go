package optimizer

// BufferManager splits the global page budget of one query between the
// joins of its plan. The split is fixed for the lifetime of the plan.
type BufferManager struct {
	total    int
	numJoins int
	perJoin  int
}

// NewBufferManager divides total pages across numJoins joins.
func NewBufferManager(total, numJoins int) *BufferManager {
	return &BufferManager{
		total:    total,
		numJoins: numJoins,
		perJoin:  Allocate(total, numJoins),
	}
}

// Allocate returns the pages each of numJoins joins receives: an equal,
// rounded-down share, or the whole budget when there are no joins.
func Allocate(total, numJoins int) int {
	if numJoins <= 0 {
		return total
	}
	return total / numJoins
}

// PerJoin returns the pages given to each join.
func (bm *BufferManager) PerJoin() int { return bm.perJoin }

// Total returns the whole budget, which sorts and duplicate elimination
// use exclusively.
func (bm *BufferManager) Total() int { return bm.total }

func (bm *BufferManager) NumJoins() int { return bm.numJoins }
