package iterator

import "qexec/pkg/tuple"

// Drain pulls batches from an open operator until end of stream, handing
// each to fn. Iteration stops at the first error.
func Drain(op Operator, fn func(*tuple.Batch) error) error {
	for {
		b, err := op.Next()
		if err != nil {
			return err
		}
		if b == nil {
			return nil
		}
		if err := fn(b); err != nil {
			return err
		}
	}
}

// Collect reads every remaining tuple of an open operator into memory.
// Intended for tests and small result sets.
func Collect(op Operator) ([]*tuple.Tuple, error) {
	var out []*tuple.Tuple
	err := Drain(op, func(b *tuple.Batch) error {
		out = append(out, b.Tuples()...)
		return nil
	})
	return out, err
}

// CollectAll opens op, collects its output and closes it. The close error
// is reported when collection itself succeeded.
func CollectAll(op Operator) (result []*tuple.Tuple, err error) {
	if err := op.Open(); err != nil {
		_ = op.Close()
		return nil, err
	}
	defer func() {
		if cerr := op.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Collect(op)
}

// Materialize copies the remaining output of an open operator into sink
// and returns the number of tuples written.
func Materialize(op Operator, sink TupleSink) (int64, error) {
	var n int64
	err := Drain(op, func(b *tuple.Batch) error {
		for _, t := range b.Tuples() {
			if err := sink.WriteTuple(t); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// Walk visits the tree rooted at op in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(op Operator, fn func(Operator) bool) {
	if op == nil || !fn(op) {
		return
	}
	switch n := op.(type) {
	case BinaryNode:
		Walk(n.Left(), fn)
		Walk(n.Right(), fn)
	case UnaryNode:
		Walk(n.Child(), fn)
	}
}
