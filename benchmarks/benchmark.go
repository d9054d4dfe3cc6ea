package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"qexec/pkg/execution/extsort"
	"qexec/pkg/execution/join"
	"qexec/pkg/execution/scanner"
	"qexec/pkg/iterator"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

// BenchmarkResult captures timing statistics for one operator configuration.
type BenchmarkResult struct {
	Name           string        `json:"name"`
	Buffers        int           `json:"buffers"`
	Iterations     int           `json:"iterations"`
	Concurrency    int           `json:"concurrency"`
	OutputRows     int           `json:"output_rows"`
	TotalDuration  time.Duration `json:"total_duration_ns"`
	AvgDuration    time.Duration `json:"avg_duration_ns"`
	MinDuration    time.Duration `json:"min_duration_ns"`
	MaxDuration    time.Duration `json:"max_duration_ns"`
	MedianDuration time.Duration `json:"median_duration_ns"`
	P95Duration    time.Duration `json:"p95_duration_ns"`
	RunsPerSecond  float64       `json:"runs_per_second"`
	ErrorCount     int           `json:"error_count"`
	ErrorSamples   []string      `json:"error_samples"`
}

// BenchmarkReport aggregates all results of one suite run.
type BenchmarkReport struct {
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	TotalDuration time.Duration     `json:"total_duration"`
	PageSize      int               `json:"page_size"`
	LeftRows      int               `json:"left_rows"`
	RightRows     int               `json:"right_rows"`
	Results       []BenchmarkResult `json:"results"`
}

// main runs every join method and the external sort over synthetic inputs
// at several buffer budgets and writes a JSON report.
//
// Environment variables:
//   - BENCHMARK_OUTPUT: directory for the report (default ./benchmark-results)
//   - BENCHMARK_ITERATIONS: runs per configuration (default 20)
//   - BENCHMARK_CONCURRENCY: parallel runs (default 4)
//   - BENCHMARK_ROWS: rows in the left input; the right input has twice as many (default 2000)
func main() {
	outputDir := filepath.Clean(os.Getenv("BENCHMARK_OUTPUT"))
	if outputDir == "." {
		outputDir = "./benchmark-results"
	}
	iterations := envInt("BENCHMARK_ITERATIONS", 20)
	concurrency := envInt("BENCHMARK_CONCURRENCY", 4)
	leftRows := envInt("BENCHMARK_ROWS", 2000)
	pageSize := 4096

	tempDir, err := os.MkdirTemp("", "qexec-bench-")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	ctx, err := registry.NewExecContext(pageSize, tempDir, registry.NewIDGenerator())
	if err != nil {
		log.Fatalf("exec context: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	left := relation(ctx, "l", leftRows, leftRows/4, rng)
	right := relation(ctx, "r", leftRows*2, leftRows/4, rng)

	report := BenchmarkReport{
		StartTime: time.Now(),
		PageSize:  pageSize,
		LeftRows:  leftRows,
		RightRows: leftRows * 2,
	}

	log.Printf("Starting benchmark suite: %d iterations, concurrency %d", iterations, concurrency)
	for _, buffers := range []int{3, 10, 50} {
		for m := join.Method(0); m < join.NumMethods; m++ {
			name := fmt.Sprintf("join/%s", m)
			res := runBenchmark(name, buffers, iterations, concurrency, func() (iterator.Operator, error) {
				return joinPlan(ctx, left, right, m, buffers)
			})
			report.Results = append(report.Results, res)
			printBenchmarkResult(res)
		}

		res := runBenchmark("sort", buffers, iterations, concurrency, func() (iterator.Operator, error) {
			s, err := extsort.New(ctx, "Bench", right.Clone(), []int{0, 1}, false, buffers)
			if err != nil {
				return nil, err
			}
			return s, nil
		})
		report.Results = append(report.Results, res)
		printBenchmarkResult(res)
	}

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		log.Fatalf("output dir: %v", err)
	}
	jsonFile := filepath.Join(outputDir, fmt.Sprintf("benchmark_report_%s.json", time.Now().Format("20060102_150405")))
	if err := saveJSONReport(report, jsonFile); err != nil {
		log.Fatalf("save report: %v", err)
	}
	log.Printf("Report saved to %s (%s total)", jsonFile, report.TotalDuration.Round(time.Millisecond))
}

// relation builds an in-memory table name(k int, v string) whose keys are
// drawn from [0, distinct).
func relation(ctx *registry.ExecContext, name string, rows, distinct int, rng *rand.Rand) *scanner.MemoryScan {
	desc, err := tuple.NewTableDesc(name, []string{"k", "v"}, []types.Type{types.IntType, types.StringType})
	if err != nil {
		log.Fatalf("schema: %v", err)
	}
	data := make([]*tuple.Tuple, rows)
	for i := range data {
		data[i] = tuple.NewTuple(
			types.NewIntField(int64(rng.Intn(distinct))),
			types.NewStringField(fmt.Sprintf("%s%d", name, i)))
	}
	scan, err := scanner.NewMemoryScan(ctx, name, desc, data)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}
	return scan
}

func joinPlan(ctx *registry.ExecContext, left, right iterator.Operator, m join.Method, buffers int) (iterator.Operator, error) {
	j, err := join.NewJoin(left.Clone(), right.Clone(), []join.Condition{join.NewCondition("l.k", "r.k")}, m, 0)
	if err != nil {
		return nil, err
	}
	p, err := join.NewPhysical(ctx, j, buffers)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// runBenchmark builds and drains a fresh operator per iteration, at most
// concurrent at a time, and summarizes the timings.
func runBenchmark(name string, buffers, iterations, concurrent int, build func() (iterator.Operator, error)) BenchmarkResult {
	durations := make([]time.Duration, 0, iterations)
	var mu sync.Mutex
	errorSamples := make([]string, 0, 5)
	errorCount := 0
	outputRows := 0

	var g errgroup.Group
	g.SetLimit(concurrent)
	start := time.Now()

	for i := 0; i < iterations; i++ {
		g.Go(func() error {
			runStart := time.Now()
			n, err := drain(build)
			d := time.Since(runStart)

			mu.Lock()
			defer mu.Unlock()
			durations = append(durations, d)
			if err != nil {
				errorCount++
				if len(errorSamples) < 5 {
					errorSamples = append(errorSamples, err.Error())
				}
				return nil
			}
			outputRows = n
			return nil
		})
	}
	_ = g.Wait()
	total := time.Since(start)

	slices.Sort(durations)
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return BenchmarkResult{
		Name:           name,
		Buffers:        buffers,
		Iterations:     iterations,
		Concurrency:    concurrent,
		OutputRows:     outputRows,
		TotalDuration:  total,
		AvgDuration:    sum / time.Duration(len(durations)),
		MinDuration:    durations[0],
		MaxDuration:    durations[len(durations)-1],
		MedianDuration: durations[len(durations)/2],
		P95Duration:    durations[int(float64(len(durations))*0.95)],
		RunsPerSecond:  float64(iterations) / total.Seconds(),
		ErrorCount:     errorCount,
		ErrorSamples:   errorSamples,
	}
}

func drain(build func() (iterator.Operator, error)) (int, error) {
	op, err := build()
	if err != nil {
		return 0, err
	}
	rows, err := iterator.CollectAll(op)
	return len(rows), err
}

func printBenchmarkResult(r BenchmarkResult) {
	log.Printf("%-18s buffers=%-3d rows=%-7d avg=%-10s p95=%-10s errors=%d",
		r.Name, r.Buffers, r.OutputRows,
		r.AvgDuration.Round(time.Microsecond), r.P95Duration.Round(time.Microsecond), r.ErrorCount)
	for _, s := range r.ErrorSamples {
		log.Printf("  %s", strings.TrimSpace(s))
	}
}

func saveJSONReport(report BenchmarkReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n <= 0 {
		return def
	}
	return n
}
