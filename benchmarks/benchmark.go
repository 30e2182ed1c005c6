// Command benchmark drives internal/bench's lock-scenario suite and writes
// JSON and HTML reports, mirroring the teacher's benchmark entrypoint shape
// (env-var configuration, sequential-then-concurrent passes, printed
// summary) against arwlock instead of a SQL database.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"arwl/internal/bench"
)

// main orchestrates the entire benchmark suite execution, reading
// configuration from environment variables and generating both JSON and
// HTML reports.
//
// Environment variables:
//   - BENCHMARK_OUTPUT: Directory for output reports (default: ./benchmark-results)
//   - BENCHMARK_ITERATIONS: Number of iterations per scenario (default: 1000)
//   - BENCHMARK_CONCURRENCY: Number of concurrent actors for contended scenarios (default: 10)
func main() {
	outputDir := filepath.Clean(os.Getenv("BENCHMARK_OUTPUT"))
	if outputDir == "." {
		outputDir = "./benchmark-results"
	}

	iterations := 1000
	if iter := os.Getenv("BENCHMARK_ITERATIONS"); iter != "" {
		_, _ = fmt.Sscanf(iter, "%d", &iterations)
	}

	concurrency := 10
	if conc := os.Getenv("BENCHMARK_CONCURRENCY"); conc != "" {
		_, _ = fmt.Sscanf(conc, "%d", &concurrency)
	}

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	log.Printf("Starting arwlock benchmark suite...")
	log.Printf("Iterations: %d, Concurrency: %d", iterations, concurrency)
	log.Printf("%s", strings.Repeat("=", 80))

	report := bench.RunSuite(iterations, concurrency)

	for _, r := range report.Results {
		log.Printf("%s", "\n"+strings.Repeat("-", 80))
		log.Printf("SCENARIO: %s", r.Scenario)
		printResult(r)
	}

	jsonPath := filepath.Join(outputDir, "report.json")
	if err := bench.SaveJSONReport(report, jsonPath); err != nil {
		log.Fatalf("failed to save JSON report: %v", err)
	}
	log.Printf("JSON report written to %s", jsonPath)

	htmlPath := filepath.Join(outputDir, "report.html")
	if err := bench.SaveHTMLReport(report, htmlPath); err != nil {
		log.Fatalf("failed to save HTML report: %v", err)
	}
	log.Printf("HTML report written to %s", htmlPath)

	log.Printf("Total suite duration: %s", bench.FormatDuration(report.TotalDuration))
}

func printResult(r bench.Result) {
	log.Printf("  iterations=%d concurrency=%d success=%d errors=%d",
		r.Iterations, r.ConcurrentActors, r.SuccessCount, r.ErrorCount)
	log.Printf("  avg=%s median=%s p95=%s p99=%s min=%s max=%s",
		bench.FormatDuration(r.AvgDuration), bench.FormatDuration(r.MedianDuration),
		bench.FormatDuration(r.P95Duration), bench.FormatDuration(r.P99Duration),
		bench.FormatDuration(r.MinDuration), bench.FormatDuration(r.MaxDuration))
	log.Printf("  ops/sec=%.0f allocs/iter=%.2f", r.OpsPerSecond, r.AllocsPerIter)
	for _, sample := range r.ErrorSamples {
		log.Printf("    error sample: %s", sample)
	}
}
