// Package main measures read latency of the storage manager for each tier a
// read can be served from: the query cache, the structured tier and the
// fallback file. Results are written as CSV.
//
// Usage: go run benchmark/main.go [records]
//
//	records: Number of book lists to seed (default 500)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/huangsam/tiercache/core"
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/internal/iocache"
	"github.com/huangsam/tiercache/schema"
)

// BenchmarkResult holds the average latency of one read path.
type BenchmarkResult struct {
	Path    string
	Records int
	Reads   int
	Average time.Duration
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Dir     string
	Records int
	Rounds  int
}

func main() {
	records := 500
	if len(os.Args) == 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			fmt.Printf("Usage: %s [records]\n", os.Args[0])
			os.Exit(1)
		}
		records = n
	}

	dir, err := os.MkdirTemp("", "tiercache-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	config := BenchmarkConfig{Dir: dir, Records: records, Rounds: 3}
	results, err := runBenchmarks(context.Background(), config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// newManager builds a manager over files in dir. structured selects whether
// the SQLite tier is enabled.
func newManager(dir string, structured bool) (*core.StorageManager, error) {
	fallback, err := iocache.NewKVStore(filepath.Join(dir, "fallback.json"), 256*1024*1024)
	if err != nil {
		return nil, err
	}
	opts := core.Options{
		Fallback: fallback,
		Logger:   contract.NewLogger(io.Discard, "error"),
	}
	if structured {
		dbPath := filepath.Join(dir, "structured.db")
		opts.OpenStructured = func(ctx context.Context) (contract.StructuredStore, error) {
			return iocache.NewRecordStore(ctx, iocache.ContentTable, schema.SQLiteBackend, dbPath)
		}
	}
	return core.NewStorageManager(opts), nil
}

func levelKey(i int) schema.CompositeKey {
	return schema.Key(fmt.Sprintf("level-%d", i))
}

// runBenchmarks seeds both local tiers and times reads on each path.
func runBenchmarks(ctx context.Context, config BenchmarkConfig) ([]BenchmarkResult, error) {
	fmt.Printf("Starting benchmark: %d records, %d rounds\n", config.Records, config.Rounds)

	m, err := newManager(config.Dir, true)
	if err != nil {
		return nil, err
	}
	books := []schema.Book{{ID: "b1", Title: "Genki I"}, {ID: "b2", Title: "Genki II"}}
	for i := range config.Records {
		if !m.Books().Save(ctx, levelKey(i), books) {
			return nil, fmt.Errorf("failed to seed record %d", i)
		}
	}

	var results []BenchmarkResult
	results = append(results, timeReads(ctx, config, "query", m, nil))
	results = append(results, timeReads(ctx, config, "structured", m, m.ClearQueryCache))
	if err := m.Close(); err != nil {
		return nil, err
	}

	// The fallback file was written by the seeding manager.
	fallbackOnly, err := newManager(config.Dir, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fallbackOnly.Close() }()
	results = append(results, timeReads(ctx, config, "fallback", fallbackOnly, fallbackOnly.ClearQueryCache))

	return results, nil
}

// timeReads reads every record Rounds times. reset runs before each read when set.
func timeReads(ctx context.Context, config BenchmarkConfig, path string, m *core.StorageManager, reset func()) BenchmarkResult {
	fmt.Printf("Benchmarking %s reads\n", path)
	var total time.Duration
	reads := 0
	for range config.Rounds {
		for i := range config.Records {
			if reset != nil {
				reset()
			}
			start := time.Now()
			if _, ok := m.Books().Get(ctx, levelKey(i)); ok {
				total += time.Since(start)
				reads++
			}
		}
	}
	result := BenchmarkResult{Path: path, Records: config.Records, Reads: reads}
	if reads > 0 {
		result.Average = total / time.Duration(reads)
	}
	return result
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("tiercache_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"path", "records", "reads", "avg_us"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		row := []string{
			result.Path,
			strconv.Itoa(result.Records),
			strconv.Itoa(result.Reads),
			strconv.FormatFloat(float64(result.Average.Nanoseconds())/1000, 'f', 2, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-10s: %d reads, avg %s\n", result.Path, result.Reads, result.Average)
	}
}
