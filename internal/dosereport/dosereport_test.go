package dosereport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const depositSample = `[T-Deposit]
    title = Dose Map for Route Planning
     mesh = reg
#   no. reg        dose        r.err
      1  9001  4.5000E-08  0.0123
  sum over          4.5000E-08  0.0123
`

func TestSumOverDose_ReadsSecondToLastField(t *testing.T) {
	v, err := SumOverDose(strings.NewReader(depositSample))
	require.NoError(t, err)
	assert.InDelta(t, 4.5e-08, v, 1e-20)
}

func TestSumOverDose_NoSumLine(t *testing.T) {
	_, err := SumOverDose(strings.NewReader("header only\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sum over line")
}

func TestSumOverDose_MalformedValue(t *testing.T) {
	_, err := SumOverDose(strings.NewReader("  sum over  oops  0.01\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse sum over value")
}

func writeRun(t *testing.T, dir string, index int, dose string) {
	t.Helper()
	runDir := filepath.Join(dir, fmt.Sprintf("run_%04d", index))
	require.NoError(t, os.MkdirAll(runDir, 0o755))
	content := "header\n  sum over          " + dose + "  0.0123\n"
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "deposit.out"), []byte(content), 0o644))
}

func TestScanRoute_AggregatesRuns(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, 0, "1.0E-08")
	writeRun(t, dir, 1, "3.0E-08")
	writeRun(t, dir, 2, "2.0E-08")

	rd, err := ScanRoute(dir, "survey", "deposit.out")
	require.NoError(t, err)

	require.Len(t, rd.Points, 3)
	assert.Equal(t, 0, rd.Points[0].Index)
	assert.Equal(t, 2, rd.Points[2].Index)
	assert.InDelta(t, 6.0e-08, rd.Total, 1e-20)
	assert.InDelta(t, 3.0e-08, rd.Max, 1e-20)
	assert.InDelta(t, 2.0e-08, rd.Mean, 1e-20)
}

func TestScanRoute_SkipsUnfinishedRuns(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, 0, "1.0E-08")
	// run_0001 exists but has produced no deposit file yet.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "run_0001"), 0o755))

	rd, err := ScanRoute(dir, "survey", "deposit.out")
	require.NoError(t, err)
	assert.Len(t, rd.Points, 1)
}

func TestScanRoute_IgnoresForeignEntries(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, 0, "1.0E-08")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input_0000.inp"), []byte("x"), 0o644))

	rd, err := ScanRoute(dir, "survey", "deposit.out")
	require.NoError(t, err)
	assert.Len(t, rd.Points, 1)
}

func TestScanRoute_NoCompletedRuns(t *testing.T) {
	_, err := ScanRoute(t.TempDir(), "survey", "deposit.out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completed runs")
}
