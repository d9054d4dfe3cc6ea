package join

import "qexec/pkg/tuple"

// matchBuffer holds the run of right tuples that share the current join
// key, plus the replay position for the left tuple being joined with them.
type matchBuffer struct {
	tuples []*tuple.Tuple
	cursor int
}

func (m *matchBuffer) add(t *tuple.Tuple) {
	m.tuples = append(m.tuples, t)
}

func (m *matchBuffer) empty() bool { return len(m.tuples) == 0 }

// first returns the tuple that represents the buffered key.
func (m *matchBuffer) first() *tuple.Tuple { return m.tuples[0] }

func (m *matchBuffer) hasNext() bool { return m.cursor < len(m.tuples) }

func (m *matchBuffer) next() *tuple.Tuple {
	t := m.tuples[m.cursor]
	m.cursor++
	return t
}

// rewind restarts the replay for the next left tuple.
func (m *matchBuffer) rewind() { m.cursor = 0 }

func (m *matchBuffer) reset() {
	m.tuples = m.tuples[:0]
	m.cursor = 0
}
