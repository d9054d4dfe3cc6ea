// Command runreader prints the pages of a spilled run file.
//
//	runreader -schema "e.id:int,e.name:string" -page 4096 /tmp/OrderBytempRun-3_0-1
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"qexec/pkg/storage/runfile"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
	"qexec/pkg/ui"
)

func main() {
	schema := flag.String("schema", "", "comma separated attr:type list describing the tuples")
	pageSize := flag.Int("page", 4096, "page size the file was written with")
	limit := flag.Int("pages", 0, "stop after this many pages (0 = all)")
	flag.Parse()

	if flag.NArg() != 1 || *schema == "" {
		fmt.Fprintln(os.Stderr, "usage: runreader -schema a.x:int,... [-page n] [-pages n] FILE")
		os.Exit(2)
	}
	if err := dump(flag.Arg(0), *schema, *pageSize, *limit); err != nil {
		ui.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(path, schema string, pageSize, limit int) error {
	desc, err := parseSchema(schema)
	if err != nil {
		return err
	}
	capacity, err := tuple.BatchCapacity(pageSize, desc.GetSize())
	if err != nil {
		return err
	}

	r := runfile.NewReader(path, desc, capacity)
	if err := r.Open(); err != nil {
		return err
	}
	defer r.Close()

	var total int
	for page := 0; limit == 0 || page < limit; page++ {
		b, err := r.NextBatch()
		if err != nil {
			return err
		}
		if b == nil {
			break
		}
		total += b.Len()
		fmt.Printf("page %d (%d/%d tuples)\n", page, b.Len(), capacity)
		fmt.Println(ui.ResultTable(desc, b.Tuples()))
	}
	fmt.Printf("%d tuples\n", total)
	return nil
}

func parseSchema(s string) (*tuple.TupleDescription, error) {
	var (
		attrs []tuple.Attribute
		typs  []types.Type
	)
	for _, part := range strings.Split(s, ",") {
		name, typeName, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("schema entry %q must be attr:type", part)
		}
		t, err := types.ParseType(typeName)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, tuple.NewAttribute(name))
		typs = append(typs, t)
	}
	return tuple.NewTupleDesc(typs, attrs)
}
