package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// ReadPricesCSV reads one price per row. A header row is optional; when
// present the column named "price" (or the last column) is used. Without a
// header the last column is used.
func ReadPricesCSV(r io.Reader) (model.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read prices csv: %w", err)
	}
	col := -1
	var out model.PriceSeries
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		idx := col
		if idx < 0 {
			idx = len(row) - 1
		}
		if idx >= len(row) {
			return nil, fmt.Errorf("row %d: missing price column", i+1)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			if i == 0 {
				col = priceColumn(row)
				continue
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no prices found")
	}
	return out, nil
}

func priceColumn(header []string) int {
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "price") {
			return i
		}
	}
	return len(header) - 1
}

// ReadPricesJSON accepts a bare array of numbers or an object with a
// "prices" array.
func ReadPricesJSON(r io.Reader) (model.PriceSeries, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var arr model.PriceSeries
	if err := json.Unmarshal(data, &arr); err == nil {
		return arr, nil
	}
	var obj struct {
		Prices model.PriceSeries `json:"prices"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("read prices json: %w", err)
	}
	return obj.Prices, nil
}

// ReadPricesFile reads prices from a .csv or .json file.
func ReadPricesFile(path string) (model.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadPricesJSON(f)
	case ".csv", ".txt":
		return ReadPricesCSV(f)
	default:
		return nil, fmt.Errorf("unsupported price file %s", path)
	}
}
