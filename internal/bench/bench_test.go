package bench

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunSuiteProducesResultsForEveryScenario(t *testing.T) {
	report := RunSuite(20, 4)

	require.NotEmpty(t, report.Results)
	require.True(t, report.EndTime.After(report.StartTime) || report.EndTime.Equal(report.StartTime))

	for _, r := range report.Results {
		require.Equal(t, 20, r.Iterations)
		require.Equal(t, r.SuccessCount+r.ErrorCount, r.Iterations)
		require.GreaterOrEqual(t, r.MinDuration, time.Duration(0))
	}
}

func TestRunSuiteUncontestedScenariosHaveNoErrors(t *testing.T) {
	report := RunSuite(50, 1)

	for _, r := range report.Results {
		if r.ConcurrentActors == 1 {
			require.Zero(t, r.ErrorCount, "scenario %q should never fail uncontested", r.Scenario)
		}
	}
}

func TestFormatDurationUnits(t *testing.T) {
	require.Equal(t, "500ns", FormatDuration(500))
	require.Contains(t, FormatDuration(1500), "µs")
	require.Contains(t, FormatDuration(1500000), "ms")
	require.Contains(t, FormatDuration(1500000000), "s")
}

func TestSaveReportsWriteFiles(t *testing.T) {
	dir := t.TempDir()
	report := RunSuite(5, 2)

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, SaveJSONReport(report, jsonPath))
	info, err := os.Stat(jsonPath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	htmlPath := filepath.Join(dir, "report.html")
	require.NoError(t, SaveHTMLReport(report, htmlPath))
	info, err = os.Stat(htmlPath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
