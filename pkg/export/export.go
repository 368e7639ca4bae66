// Package export writes schedules and performance results as JSON or CSV
// and reads hourly price series from files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/performance"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteScheduleCSV writes one row per hour: price, power, discharge and the
// storage at the end of the hour.
func WriteScheduleCSV(w io.Writer, s model.Schedule, prices model.PriceSeries, kappa float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hour", "price", "power_mw", "discharge", "storage"}); err != nil {
		return err
	}
	q := s.Discharge(kappa)
	for t, p := range s.Power {
		price := ""
		if t < len(prices) {
			price = formatFloat(prices[t])
		}
		storage := ""
		if t+1 < len(s.Storage) {
			storage = formatFloat(s.Storage[t+1])
		}
		rec := []string{strconv.Itoa(t), price, formatFloat(p), formatFloat(q[t]), storage}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePerformanceCSV writes the hourly data of an evaluation.
func WritePerformanceCSV(w io.Writer, res performance.Result) error {
	cw := csv.NewWriter(w)
	header := []string{"hour", "historical_price", "programmed_price", "power_stable",
		"power_programmed", "power_hindsight", "storage_programmed", "included"}
	if err := cw.Write(header); err != nil {
		return err
	}
	h := res.Hourly
	for t := range h.Actual {
		rec := []string{
			strconv.Itoa(t),
			formatFloat(h.Actual[t]),
			formatFloat(h.Forecast[t]),
			formatFloat(h.Stable[t]),
			formatFloat(h.Programmed[t]),
			formatFloat(h.Hindsight[t]),
			formatFloat(h.Storage[t+1]),
			strconv.FormatBool(h.Included[t]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDailyCSV writes the per-day breakdown of an evaluation.
func WriteDailyCSV(w io.Writer, res performance.Result) error {
	cw := csv.NewWriter(w)
	header := []string{"day", "hours", "revenue_stable", "revenue_programmed",
		"revenue_hindsight", "efficiency", "excluded", "reason"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range res.Daily {
		rec := []string{
			strconv.Itoa(d.Day),
			strconv.Itoa(d.Hours),
			formatFloat(d.RevenueStable),
			formatFloat(d.RevenueProgrammed),
			formatFloat(d.RevenueHindsight),
			formatFloat(d.Efficiency),
			strconv.FormatBool(d.Excluded),
			d.Reason,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
