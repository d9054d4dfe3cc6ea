// Command tablereader lists the tables of a qexec data directory and
// prints the rows of one of them.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"qexec/pkg/storage/table"
	"qexec/pkg/tuple"
	"qexec/pkg/ui"
)

func main() {
	dataDir := flag.String("data", "./qexec-data", "data directory")
	name := flag.String("table", "", "table to print; lists all tables when empty")
	limit := flag.Int("limit", 100, "maximum rows to print")
	flag.Parse()

	if err := run(*dataDir, *name, *limit); err != nil {
		ui.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(dataDir, name string, limit int) error {
	store, err := table.Open(filepath.Join(dataDir, "tables"))
	if err != nil {
		return err
	}
	defer store.Close()

	if name == "" {
		tables, err := store.Tables()
		if err != nil {
			return err
		}
		for _, info := range tables {
			fmt.Printf("%-20s %6d rows  %v\n", info.Name, info.RowCount, info.Columns)
		}
		return nil
	}

	info, err := store.Table(name)
	if err != nil {
		return err
	}
	desc, err := info.Desc()
	if err != nil {
		return err
	}
	it, err := store.Rows(info)
	if err != nil {
		return err
	}
	defer it.Close()

	var rows []*tuple.Tuple
	for len(rows) < limit {
		row, err := it.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	fmt.Println(ui.ResultTable(desc, rows))
	fmt.Printf("%d of %d rows\n", len(rows), info.RowCount)
	return nil
}
