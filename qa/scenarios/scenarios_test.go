package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, f)
		t.Run(sc.Name, func(t *testing.T) {
			rep := Run(sc)
			for _, msg := range rep.Failures {
				t.Error(msg)
			}
		})
	}
}

func TestLoadRepeat(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "flat_actual_72h.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ModeEvaluate, sc.Mode)
	assert.Len(t, sc.Actual, 72)
	assert.Len(t, sc.Forecast, 72)
	assert.Empty(t, sc.Prices)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load("no-file.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	mode := filepath.Join(dir, "mode.yaml")
	require.NoError(t, os.WriteFile(mode, []byte("name: x\nmode: backtest\n"), 0o644))
	_, err = Load(mode)
	assert.Error(t, err)
}

func TestVerifyReportsMismatches(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "overflow.yaml"))
	require.NoError(t, err)
	sc.Expected.Error = "solver_failure"
	rep := Run(sc)
	assert.False(t, rep.Passed())

	sc, err = Load(filepath.Join("testdata", "reference_day.yaml"))
	require.NoError(t, err)
	sc.Expected.Method = "greedy"
	sc.Expected.PeakHours = []int{0}
	rep = Run(sc)
	assert.Len(t, rep.Failures, 2)

	sc.Strategy = "simplex"
	rep = Run(sc)
	assert.False(t, rep.Passed())
}
