package runfile

import (
	"bufio"
	"encoding/binary"
	"os"

	"qexec/pkg/dberror"
	"qexec/pkg/tuple"
)

// Writer appends tuples to a new run file, one page per full batch.
type Writer struct {
	path     string
	desc     *tuple.TupleDescription
	capacity int

	file  *os.File
	w     *bufio.Writer
	batch *tuple.Batch

	tuples int64
	pages  int
}

// NewWriter prepares a writer for path. Nothing touches the disk until Open.
func NewWriter(path string, desc *tuple.TupleDescription, capacity int) *Writer {
	return &Writer{
		path:     path,
		desc:     desc,
		capacity: capacity,
	}
}

// Open creates (or truncates) the file.
func (w *Writer) Open() error {
	f, err := os.Create(w.path)
	if err != nil {
		return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeTempFileCreate, "Open", "RunWriter")
	}

	w.file = f
	w.w = bufio.NewWriter(f)
	w.batch = tuple.NewBatch(w.capacity)
	return nil
}

// WriteTuple buffers t and flushes the page once it is full.
func (w *Writer) WriteTuple(t *tuple.Tuple) error {
	if w.file == nil {
		return dberror.Newf(dberror.CategoryInternal, dberror.CodeNotOpen, "run writer %s is not open", w.path)
	}
	if err := w.batch.Add(t); err != nil {
		return err
	}
	w.tuples++
	if w.batch.IsFull() {
		return w.flush()
	}
	return nil
}

// WriteBatch writes every tuple of b. Page boundaries follow the writer's
// capacity, not b's.
func (w *Writer) WriteBatch(b *tuple.Batch) error {
	for _, t := range b.Tuples() {
		if err := w.WriteTuple(t); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) flush() error {
	if w.batch.IsEmpty() {
		return nil
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(w.batch.Len()))
	if _, err := w.w.Write(header[:]); err != nil {
		return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeRunWrite, "WriteTuple", "RunWriter")
	}
	for _, t := range w.batch.Tuples() {
		if err := t.Serialize(w.w); err != nil {
			return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeRunWrite, "WriteTuple", "RunWriter")
		}
	}

	w.pages++
	w.batch = tuple.NewBatch(w.capacity)
	return nil
}

// Close flushes the final partial page and closes the file. After Close
// the file is read-only for its lifetime. Calling Close twice is a no-op.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.flush()
	if err == nil {
		if ferr := w.w.Flush(); ferr != nil {
			err = dberror.Wrap(ferr, dberror.CategoryIO, dberror.CodeRunWrite, "Close", "RunWriter")
		}
	}
	if cerr := w.file.Close(); cerr != nil && err == nil {
		err = dberror.Wrap(cerr, dberror.CategoryIO, dberror.CodeRunWrite, "Close", "RunWriter")
	}

	w.file = nil
	w.w = nil
	return err
}

// Path returns the file the writer targets.
func (w *Writer) Path() string { return w.path }

// Count returns the number of tuples accepted so far.
func (w *Writer) Count() int64 { return w.tuples }

// Pages returns the number of pages flushed so far.
func (w *Writer) Pages() int { return w.pages }
