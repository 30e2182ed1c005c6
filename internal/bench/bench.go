// Package bench drives the allocation and latency scenarios spec.md's §8
// hot-path property names — uncontested top-level acquire/release and
// three-deep nested acquire/release — plus a contended scenario, against a
// live arwlock.LockCore. It mirrors the teacher's benchmarks/benchmark.go
// report shape (BenchmarkResult/BenchmarkReport, JSON+HTML output) with the
// SQL query benchmarked replaced by a lock scenario.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"arwl/pkg/concurrency/ambient"
	"arwl/pkg/concurrency/arwlock"
)

// Result captures detailed performance metrics for a single benchmark
// scenario: timing statistics, throughput, and success/error counts.
type Result struct {
	Scenario          string        `json:"scenario"`
	Iterations        int           `json:"iterations"`
	TotalDuration      time.Duration `json:"total_duration_ns"`
	AvgDuration       time.Duration `json:"avg_duration_ns"`
	MinDuration       time.Duration `json:"min_duration_ns"`
	MaxDuration       time.Duration `json:"max_duration_ns"`
	MedianDuration    time.Duration `json:"median_duration_ns"`
	P95Duration       time.Duration `json:"p95_duration_ns"`
	P99Duration       time.Duration `json:"p99_duration_ns"`
	OpsPerSecond      float64       `json:"ops_per_second"`
	ConcurrentActors  int           `json:"concurrent_actors"`
	SuccessCount      int           `json:"success_count"`
	ErrorCount        int           `json:"error_count"`
	ErrorSamples      []string      `json:"error_samples"`
	AllocsPerIter     float64       `json:"allocs_per_iter"`
	Timestamp         time.Time     `json:"timestamp"`
}

// Report aggregates results from every scenario into a single report.
type Report struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TotalDuration time.Duration `json:"total_duration"`
	Results       []Result  `json:"results"`
}

// scenario is one named lock-usage pattern driven by the bench runner.
// run executes a single iteration against core/task and is timed by the
// caller; for the sequential pass run is also executed under
// testing.AllocsPerRun to report steady-state heap growth per iteration.
type scenario struct {
	name string
	run  func(ctx context.Context, core *arwlock.LockCore, task *ambient.Task) error
}

var scenarios = []scenario{
	{
		name: "Uncontested top-level read",
		run: func(ctx context.Context, core *arwlock.LockCore, task *ambient.Task) error {
			r, err := core.ReadLock(ctx, task)
			if err != nil {
				return err
			}
			return r.Release()
		},
	},
	{
		name: "Uncontested top-level write",
		run: func(ctx context.Context, core *arwlock.LockCore, task *ambient.Task) error {
			w, err := core.WriteLock(ctx, task)
			if err != nil {
				return err
			}
			return w.Release()
		},
	},
	{
		name: "Three-deep nested read under a held write",
		run: func(ctx context.Context, core *arwlock.LockCore, task *ambient.Task) error {
			w, err := core.WriteLock(ctx, task)
			if err != nil {
				return err
			}
			defer w.Release()

			r1, err := core.ReadLock(ctx, task)
			if err != nil {
				return err
			}
			defer r1.Release()

			r2, err := core.ReadLock(ctx, task)
			if err != nil {
				return err
			}
			defer r2.Release()

			r3, err := core.ReadLock(ctx, task)
			if err != nil {
				return err
			}
			return r3.Release()
		},
	},
	{
		name: "Sticky upgrade and nested write",
		run: func(ctx context.Context, core *arwlock.LockCore, task *ambient.Task) error {
			u, err := core.UpgradeableReadLock(ctx, task, arwlock.StickyWrite)
			if err != nil {
				return err
			}
			defer u.Release()

			w, err := core.WriteLock(ctx, task)
			if err != nil {
				return err
			}
			return w.Release()
		},
	},
}

// RunSuite runs every scenario sequentially with the given iteration count,
// then once more at the given concurrency level for the scenarios that
// meaningfully exercise contention, collecting a Report of the results.
func RunSuite(iterations, concurrency int) Report {
	report := Report{StartTime: time.Now()}

	for _, sc := range scenarios {
		report.Results = append(report.Results, runScenario(sc, iterations, 1))
		if sc.name != "Uncontested top-level read" {
			report.Results = append(report.Results, runScenario(sc, iterations, concurrency))
		}
	}

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)
	return report
}

func runScenario(sc scenario, iterations, concurrent int) Result {
	core := arwlock.NewLockCore()

	durations := make([]time.Duration, 0, iterations)
	var mu sync.Mutex
	var wg sync.WaitGroup

	successCount := 0
	errorCount := 0
	errorSamples := make([]string, 0, 5)
	startTime := time.Now()

	sem := make(chan struct{}, concurrent)

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			task := ambient.NewTask()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			opStart := time.Now()
			err := sc.run(ctx, core, task)
			duration := time.Since(opStart)

			mu.Lock()
			durations = append(durations, duration)
			if err != nil {
				errorCount++
				if len(errorSamples) < 5 {
					errorSamples = append(errorSamples, err.Error())
				}
			} else {
				successCount++
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	totalDuration := time.Since(startTime)

	slices.Sort(durations)

	var sum time.Duration
	minDur, maxDur := durations[0], durations[0]
	for _, d := range durations {
		sum += d
		if d < minDur {
			minDur = d
		}
		if d > maxDur {
			maxDur = d
		}
	}

	avgDur := sum / time.Duration(len(durations))
	medianDur := durations[len(durations)/2]
	p95Dur := durations[int(float64(len(durations))*0.95)]
	p99Dur := durations[min(int(float64(len(durations))*0.99), len(durations)-1)]
	ops := float64(iterations) / totalDuration.Seconds()

	name := sc.name
	if concurrent > 1 {
		name = fmt.Sprintf("%s (concurrency=%d)", name, concurrent)
	}

	allocs := float64(0)
	if concurrent == 1 {
		allocTask := ambient.NewTask()
		allocs = testing.AllocsPerRun(1000, func() {
			_ = sc.run(context.Background(), core, allocTask)
		})
	}

	return Result{
		Scenario:         name,
		Iterations:       iterations,
		TotalDuration:     totalDuration,
		AvgDuration:      avgDur,
		MinDuration:      minDur,
		MaxDuration:      maxDur,
		MedianDuration:   medianDur,
		P95Duration:      p95Dur,
		P99Duration:      p99Dur,
		OpsPerSecond:     ops,
		ConcurrentActors: concurrent,
		SuccessCount:     successCount,
		ErrorCount:       errorCount,
		ErrorSamples:     errorSamples,
		AllocsPerIter:    allocs,
		Timestamp:        time.Now(),
	}
}

// FormatDuration formats a duration in a human-readable way with
// appropriate units, e.g. "1.23ms", "456.78µs", "12.34s".
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

// SaveJSONReport serializes report to filename as JSON.
func SaveJSONReport(report Report, filename string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(filename, data, 0o600)
}

// SaveHTMLReport renders report as a styled HTML table to filename.
func SaveHTMLReport(report Report, filename string) error {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>arwlock Benchmark Report</title>
	<script src="https://cdn.tailwindcss.com"></script>
	<style>body { font-family: monospace; }</style>
</head>
<body class="bg-gray-100 p-6">
	<div class="max-w-7xl mx-auto bg-white rounded-lg shadow-lg p-8">
		<h1 class="text-4xl font-bold text-gray-800 border-b-4 border-purple-500 pb-3 mb-6">arwlock Benchmark Report</h1>
		<div class="bg-purple-50 rounded-lg p-6 mb-8 grid grid-cols-2 md:grid-cols-3 gap-4">
			<div><div class="text-sm font-semibold text-gray-600">Start Time</div><div class="text-lg text-purple-600 font-bold">%s</div></div>
			<div><div class="text-sm font-semibold text-gray-600">End Time</div><div class="text-lg text-purple-600 font-bold">%s</div></div>
			<div><div class="text-sm font-semibold text-gray-600">Total Duration</div><div class="text-lg text-purple-600 font-bold">%v</div></div>
		</div>
		<table class="min-w-full border-collapse">
			<thead><tr class="bg-purple-500 text-white">
				<th class="px-4 py-3 text-left font-bold">Scenario</th>
				<th class="px-4 py-3 text-left font-bold">Concurrency</th>
				<th class="px-4 py-3 text-left font-bold">Avg</th>
				<th class="px-4 py-3 text-left font-bold">P95</th>
				<th class="px-4 py-3 text-left font-bold">P99</th>
				<th class="px-4 py-3 text-left font-bold">Ops/sec</th>
				<th class="px-4 py-3 text-left font-bold">Allocs/iter</th>
			</tr></thead>
			<tbody class="divide-y divide-gray-200">
`,
		report.StartTime.Format("2006-01-02 15:04:05"),
		report.EndTime.Format("2006-01-02 15:04:05"),
		report.TotalDuration,
	)

	for _, r := range report.Results {
		html += fmt.Sprintf(`				<tr class="hover:bg-gray-50">
					<td class="px-4 py-3 font-bold text-gray-800">%s</td>
					<td class="px-4 py-3 text-gray-700">%d</td>
					<td class="px-4 py-3 text-gray-700">%s</td>
					<td class="px-4 py-3 text-gray-700">%s</td>
					<td class="px-4 py-3 text-gray-700">%s</td>
					<td class="px-4 py-3 text-purple-600 font-semibold">%.0f</td>
					<td class="px-4 py-3 text-gray-700">%.1f</td>
				</tr>
`,
			r.Scenario, r.ConcurrentActors, FormatDuration(r.AvgDuration), FormatDuration(r.P95Duration), FormatDuration(r.P99Duration), r.OpsPerSecond, r.AllocsPerIter)
	}

	html += `			</tbody>
		</table>
	</div>
</body>
</html>
`
	return os.WriteFile(filename, []byte(html), 0o600)
}
