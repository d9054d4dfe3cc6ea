package runfile

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"qexec/pkg/dberror"
	"qexec/pkg/tuple"
)

// Reader streams the tuples of a closed run file.
type Reader struct {
	path     string
	desc     *tuple.TupleDescription
	capacity int

	file *os.File
	r    *bufio.Reader

	page   *tuple.Batch
	cursor int
	eof    bool
}

// NewReader prepares a reader for a file written with the same schema and
// page capacity.
func NewReader(path string, desc *tuple.TupleDescription, capacity int) *Reader {
	return &Reader{
		path:     path,
		desc:     desc,
		capacity: capacity,
	}
}

func (r *Reader) Open() error {
	f, err := os.Open(r.path)
	if err != nil {
		return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeTempFileOpen, "Open", "RunReader")
	}

	r.file = f
	r.r = bufio.NewReader(f)
	r.page = nil
	r.cursor = 0
	r.eof = false
	return nil
}

// Next returns the next tuple, or nil once the file is exhausted.
func (r *Reader) Next() (*tuple.Tuple, error) {
	for r.page == nil || r.cursor >= r.page.Len() {
		page, err := r.readPage()
		if err != nil || page == nil {
			return nil, err
		}
		r.page = page
		r.cursor = 0
	}

	t := r.page.Get(r.cursor)
	r.cursor++
	return t, nil
}

// NextBatch returns the unread remainder of the current page, or the next
// page, or nil once the file is exhausted.
func (r *Reader) NextBatch() (*tuple.Batch, error) {
	if r.page != nil && r.cursor < r.page.Len() {
		rest := tuple.NewBatch(r.capacity)
		for _, t := range r.page.Tuples()[r.cursor:] {
			_ = rest.Add(t)
		}
		r.page = nil
		return rest, nil
	}

	r.page = nil
	return r.readPage()
}

func (r *Reader) readPage() (*tuple.Batch, error) {
	if r.eof {
		return nil, nil
	}
	if r.file == nil {
		return nil, dberror.Newf(dberror.CategoryInternal, dberror.CodeNotOpen, "run reader %s is not open", r.path)
	}

	var header [4]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			r.eof = true
			return nil, nil
		}
		return nil, r.readError(err)
	}

	n := int(binary.BigEndian.Uint32(header[:]))
	if n == 0 || n > r.capacity {
		return nil, dberror.Newf(dberror.CategoryFormat, dberror.CodeRunCorrupt,
			"run file %s: page holds %d tuples, capacity is %d", r.path, n, r.capacity)
	}

	page := tuple.NewBatch(r.capacity)
	for i := 0; i < n; i++ {
		t, err := tuple.ReadTuple(r.r, r.desc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, r.readError(err)
		}
		_ = page.Add(t)
	}
	return page, nil
}

func (r *Reader) readError(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return dberror.Wrap(err, dberror.CategoryFormat, dberror.CodeRunCorrupt, "Next", "RunReader")
	}
	return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeRunRead, "Next", "RunReader")
}

// Close releases the file handle. Calling Close twice is a no-op.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.r = nil
	r.page = nil
	if err != nil {
		return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeRunRead, "Close", "RunReader")
	}
	return nil
}

// Path returns the file the reader streams.
func (r *Reader) Path() string { return r.path }

// Remove deletes a run file. A file that does not exist is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return dberror.Wrap(err, dberror.CategoryIO, dberror.CodeTempFileOpen, "Remove", "RunFile")
	}
	return nil
}
