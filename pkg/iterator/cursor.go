package iterator

import "qexec/pkg/tuple"

// Cursor turns a batch-producing operator into a tuple stream. The cursor
// does not open or close the operator.
type Cursor struct {
	src   Operator
	batch *tuple.Batch
	pos   int
	done  bool
}

func NewCursor(src Operator) *Cursor {
	return &Cursor{src: src}
}

// Next returns the next tuple, skipping empty batches, or nil at end of stream.
func (c *Cursor) Next() (*tuple.Tuple, error) {
	for !c.done && (c.batch == nil || c.pos >= c.batch.Len()) {
		b, err := c.src.Next()
		if err != nil {
			return nil, err
		}
		if b == nil {
			c.done = true
			c.batch = nil
			break
		}
		c.batch = b
		c.pos = 0
	}
	if c.done {
		return nil, nil
	}

	t := c.batch.Get(c.pos)
	c.pos++
	return t, nil
}

// Reset forgets buffered state so the cursor can follow a reopened source.
func (c *Cursor) Reset() {
	c.batch = nil
	c.pos = 0
	c.done = false
}
