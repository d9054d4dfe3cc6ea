package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"qexec/pkg/catalog"
	"qexec/pkg/config"
	"qexec/pkg/iterator"
	"qexec/pkg/logging"
	"qexec/pkg/optimizer"
	"qexec/pkg/parser"
	"qexec/pkg/registry"
	"qexec/pkg/storage/table"
	"qexec/pkg/ui"
)

type options struct {
	ConfigPath string
	Load       string
	Query      string
	Explain    bool
	Strategy   string
	Buffers    int
}

func main() {
	opts := parseArguments()
	if err := run(opts); err != nil {
		ui.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

func parseArguments() options {
	var opts options

	flag.StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	flag.StringVar(&opts.Load, "load", "", "comma separated CSV files to load as tables")
	flag.StringVar(&opts.Query, "query", "", "SELECT statement to run")
	flag.BoolVar(&opts.Explain, "explain", false, "print the chosen plan instead of running it")
	flag.StringVar(&opts.Strategy, "strategy", "", "override the optimizer strategy (ii, sa, 2po)")
	flag.IntVar(&opts.Buffers, "buffers", 0, "override the buffer page budget")

	flag.Parse()
	return opts
}

func run(opts options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Strategy != "" {
		cfg.Optimizer.Strategy = opts.Strategy
	}
	if opts.Buffers != 0 {
		cfg.NumBuffers = opts.Buffers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Init(cfg.LogConfig()); err != nil {
		return err
	}
	defer logging.Close()

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return err
	}
	store, err := table.Open(filepath.Join(cfg.DataDir, "tables"))
	if err != nil {
		return err
	}
	defer store.Close()

	tempDir, cleanup, err := cfg.RunTempDir()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, err := registry.NewExecContext(cfg.PageSize, tempDir, registry.NewIDGenerator())
	if err != nil {
		return err
	}
	cat := catalog.New(ctx, store)

	if opts.Load != "" {
		if err := cat.LoadAll(context.Background(), splitList(opts.Load)); err != nil {
			return err
		}
	}
	if opts.Query == "" {
		return listTables(cat)
	}
	return runQuery(ctx, cat, cfg, opts)
}

func runQuery(ctx *registry.ExecContext, cat *catalog.Catalog, cfg *config.Config, opts options) error {
	logging.WithQuery(opts.Query).Debug("query received")

	q, err := parser.ParseQuery(opts.Query, cat)
	if err != nil {
		return err
	}

	bm := optimizer.NewBufferManager(cfg.NumBuffers, q.NumJoins())
	rng := rand.New(rand.NewSource(cfg.Seed()))
	planner := optimizer.NewInitialPlanner(ctx, q, cfg.NumBuffers, rng)
	opt := optimizer.New(planner, optimizer.NewPlanCost(cfg.PageSize, bm), rng)

	res, err := opt.Optimize(cfg.Strategy())
	if err != nil {
		return err
	}
	ui.Summary(os.Stderr, string(cfg.Strategy()), res.Cost, res.Evaluated, res.FailedIterations)

	plan, err := optimizer.MakeExecPlan(ctx, res.Plan, bm)
	if err != nil {
		return err
	}
	if opts.Explain {
		fmt.Println(ui.PlanBox("plan", optimizer.Explain(plan)))
		return nil
	}

	rows, err := iterator.CollectAll(plan)
	if err != nil {
		return err
	}
	return ui.WriteResult(os.Stdout, plan.GetTupleDesc(), rows)
}

func listTables(cat *catalog.Catalog) error {
	tables, err := cat.Tables()
	if err != nil {
		return err
	}
	for _, info := range tables {
		cols := make([]string, len(info.Columns))
		for i, c := range info.Columns {
			cols[i] = c.Name + ":" + c.Type
		}
		fmt.Printf("%s (%s) %d rows\n", info.Name, strings.Join(cols, ", "), info.RowCount)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
