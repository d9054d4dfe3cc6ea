package tuple

// CompareTuples orders left against right column by column, pairing
// leftKeys[i] with rightKeys[i], and returns at the first difference.
func CompareTuples(left, right *Tuple, leftKeys, rightKeys []int) (int, error) {
	for i := range leftKeys {
		c, err := left.fields[leftKeys[i]].Compare(right.fields[rightKeys[i]])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// CheckJoin reports whether the key columns of both tuples are equal.
func CheckJoin(left, right *Tuple, leftKeys, rightKeys []int) (bool, error) {
	c, err := CompareTuples(left, right, leftKeys, rightKeys)
	return c == 0, err
}

// Comparator is a reusable ordering over key columns. Reverse negates the
// result, giving descending order.
type Comparator struct {
	LeftKeys  []int
	RightKeys []int
	Reverse   bool
}

// NewComparator orders tuples of one schema by keys.
func NewComparator(keys []int, reverse bool) *Comparator {
	return &Comparator{LeftKeys: keys, RightKeys: keys, Reverse: reverse}
}

// Compare returns -1, 0 or +1.
func (c *Comparator) Compare(left, right *Tuple) (int, error) {
	r, err := CompareTuples(left, right, c.LeftKeys, c.RightKeys)
	if err != nil {
		return 0, err
	}
	if c.Reverse {
		return -r, nil
	}
	return r, nil
}
