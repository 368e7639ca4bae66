package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hydrodispatch/core/dispatch"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/performance"
)

var plant = model.Plant{PMin: 1, PMax: 10, SMin: 0, SMax: 500, S0: 250, Kappa: 2, Inflow: 6}

func TestWriteScheduleCSV(t *testing.T) {
	s := model.Simulate(plant, []float64{1, 5, 10})
	var buf bytes.Buffer
	require.NoError(t, WriteScheduleCSV(&buf, s, model.PriceSeries{10, 20, 30}, plant.Kappa))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"hour", "price", "power_mw", "discharge", "storage"}, rows[0])
	assert.Equal(t, []string{"2", "30", "10", "20", "236"}, rows[3])
}

func TestWritePerformanceCSV(t *testing.T) {
	actual := model.PriceSeries{10, 50, 20, 80}
	res, err := (&performance.Evaluator{
		Primary:  dispatch.NewLPSolver(dispatch.Options{}),
		DayHours: 2,
	}).Evaluate(plant, actual, actual)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePerformanceCSV(&buf, res))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, len(actual)+1)
	assert.Equal(t, "true", rows[1][7])

	buf.Reset()
	require.NoError(t, WriteDailyCSV(&buf, res))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, res))
	assert.Contains(t, buf.String(), `"daily_performance"`)
}

func TestReadPricesCSV(t *testing.T) {
	cases := map[string]struct {
		in   string
		want model.PriceSeries
	}{
		"bare":         {"10\n20.5\n30\n", model.PriceSeries{10, 20.5, 30}},
		"header":       {"hour,price\n0,10\n1,20\n", model.PriceSeries{10, 20}},
		"named column": {"price,volume\n10,1\n20,2\n", model.PriceSeries{10, 20}},
		"blank lines":  {"1\n\n2\n", model.PriceSeries{1, 2}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ReadPricesCSV(strings.NewReader(c.in))
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}

	_, err := ReadPricesCSV(strings.NewReader("price\n1\nabc\n"))
	assert.Error(t, err)
	_, err = ReadPricesCSV(strings.NewReader("price\n"))
	assert.Error(t, err)
}

func TestReadPricesFile(t *testing.T) {
	dir := t.TempDir()
	arr := filepath.Join(dir, "a.json")
	obj := filepath.Join(dir, "b.json")
	xls := filepath.Join(dir, "c.xlsx")
	require.NoError(t, os.WriteFile(arr, []byte(`[1, 2, 3]`), 0o644))
	require.NoError(t, os.WriteFile(obj, []byte(`{"prices": [4, 5]}`), 0o644))
	require.NoError(t, os.WriteFile(xls, []byte(`x`), 0o644))

	got, err := ReadPricesFile(arr)
	require.NoError(t, err)
	assert.Equal(t, model.PriceSeries{1, 2, 3}, got)

	got, err = ReadPricesFile(obj)
	require.NoError(t, err)
	assert.Equal(t, model.PriceSeries{4, 5}, got)

	_, err = ReadPricesFile(xls)
	assert.Error(t, err)
	_, err = ReadPricesFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
