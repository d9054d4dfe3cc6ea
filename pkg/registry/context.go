package registry

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecContext holds the engine-wide settings and shared allocation state
// that every operator of a query needs. One context is built per engine
// and passed to operators at construction.
type ExecContext struct {
	pageSize int
	tempDir  string
	ids      *IDGenerator
}

// NewExecContext creates a context that spills into tempDir. The directory
// is created if it does not exist.
func NewExecContext(pageSize int, tempDir string, ids *IDGenerator) (*ExecContext, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", tempDir, err)
	}
	if ids == nil {
		ids = NewIDGenerator()
	}

	return &ExecContext{
		pageSize: pageSize,
		tempDir:  tempDir,
		ids:      ids,
	}, nil
}

func (ctx *ExecContext) PageSize() int {
	return ctx.pageSize
}

func (ctx *ExecContext) TempDir() string {
	return ctx.tempDir
}

func (ctx *ExecContext) IDs() *IDGenerator {
	return ctx.ids
}

// NextID draws the next instance id for an operator kind.
func (ctx *ExecContext) NextID(kind string) int64 {
	return ctx.ids.Next(kind)
}

// TempFile returns the path of the single materialized input of an
// operator instance: <kind>temp-<id>.
func (ctx *ExecContext) TempFile(kind string, id int64) string {
	return filepath.Join(ctx.tempDir, fmt.Sprintf("%stemp-%d", kind, id))
}

// RunFile returns the path of one sorted run: <kind>tempRun-<id>_<pass>-<run>.
func (ctx *ExecContext) RunFile(kind string, id int64, pass, run int) string {
	return filepath.Join(ctx.tempDir, fmt.Sprintf("%stempRun-%d_%d-%d", kind, id, pass, run))
}
