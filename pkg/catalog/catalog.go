// Package catalog loads CSV files into the table store and hands out scans
// of the stored tables.
package catalog

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"qexec/pkg/dberror"
	"qexec/pkg/execution/scanner"
	"qexec/pkg/iterator"
	"qexec/pkg/logging"
	"qexec/pkg/registry"
	"qexec/pkg/storage/table"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

// insertChunk is the number of rows written per store batch.
const insertChunk = 1024

// Catalog resolves table names against a table store.
type Catalog struct {
	ctx   *registry.ExecContext
	store *table.Store
}

func New(ctx *registry.ExecContext, store *table.Store) *Catalog {
	return &Catalog{ctx: ctx, store: store}
}

// Relation returns a scan of table whose attributes are qualified by alias.
func (c *Catalog) Relation(name, alias string) (iterator.Operator, error) {
	info, err := c.store.Table(name)
	if err != nil {
		return nil, err
	}
	scan, err := scanner.NewTableScan(c.ctx, c.store, info, alias)
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// Tables lists the stored tables.
func (c *Catalog) Tables() ([]*table.TableInfo, error) {
	return c.store.Tables()
}

// LoadAll loads several CSV files concurrently. Each file becomes the
// table named after its base name without extension.
func (c *Catalog) LoadAll(ctx context.Context, paths []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.LoadCSV(path)
			return err
		})
	}
	return g.Wait()
}

// LoadCSV creates (or replaces) a table from a CSV file. The header row
// names the columns as name:type with type one of int, float or string.
func (c *Catalog) LoadCSV(path string) (*table.TableInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CategoryIO, dberror.CodeStoreFailed, "LoadCSV", "Catalog")
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info, err := c.Load(name, f)
	if err != nil {
		return nil, err
	}
	logging.WithTable(name).Info("table loaded", "path", path, "rows", info.RowCount)
	return info, nil
}

// Load reads CSV data from r into table name.
func (c *Catalog) Load(name string, r io.Reader) (*table.TableInfo, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, csvErr(name, err)
	}
	info, colTypes, err := parseHeader(name, header)
	if err != nil {
		return nil, err
	}
	if err := c.store.CreateTable(info); err != nil {
		return nil, err
	}

	batch := make([]*tuple.Tuple, 0, insertChunk)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvErr(name, err)
		}

		fields := make([]types.Field, len(rec))
		for i, text := range rec {
			f, err := types.ParseLiteral(colTypes[i], strings.TrimSpace(text))
			if err != nil {
				return nil, dberror.Newf(dberror.CategoryFormat, dberror.CodeTypeMismatch,
					"%s line %d column %s: %v", name, line, info.Columns[i].Name, err)
			}
			fields[i] = f
		}
		batch = append(batch, tuple.NewTuple(fields...))

		if len(batch) == insertChunk {
			if err := c.store.Insert(name, batch); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := c.store.Insert(name, batch); err != nil {
			return nil, err
		}
	}
	return c.store.Table(name)
}

func parseHeader(name string, header []string) (*table.TableInfo, []types.Type, error) {
	info := &table.TableInfo{Name: name}
	colTypes := make([]types.Type, len(header))
	for i, cell := range header {
		colName, typeName, ok := strings.Cut(strings.TrimSpace(cell), ":")
		if !ok || colName == "" {
			return nil, nil, dberror.Newf(dberror.CategoryFormat, dberror.CodeTypeMismatch,
				"%s: header cell %q must be name:type", name, cell)
		}
		t, err := types.ParseType(typeName)
		if err != nil {
			return nil, nil, dberror.Wrap(err, dberror.CategoryFormat, dberror.CodeTypeMismatch, "parseHeader", "Catalog")
		}
		colTypes[i] = t
		info.Columns = append(info.Columns, table.Column{Name: colName, Type: t.ShortName()})
	}
	return info, colTypes, nil
}

func csvErr(name string, err error) error {
	return dberror.Newf(dberror.CategoryFormat, dberror.CodeStoreFailed, "%s: %v", name, err)
}
