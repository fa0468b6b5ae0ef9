package morningstar

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"FinValue/internal/domain/models"
	"FinValue/pkg/util"
)

// ErrNoTable is returned when a payload holds no key-ratio period header.
var ErrNoTable = errors.New("morningstar: no key-ratio table in payload")

// ParseKeyRatios reshapes a key-ratio CSV export into per-metric rows keyed
// by metric name. The first row whose label cell is blank and whose other
// cells are fiscal periods is the header. Section titles and repeated
// period rows are skipped. Only the first occurrence of a metric name is
// kept.
func ParseKeyRatios(data []byte) (*models.Fundamentals, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		periods []string
		f       = &models.Fundamentals{Rows: make(map[string][]float64)}
	)

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("morningstar: read csv: %w", err)
		}
		if allEmpty(rec) {
			continue
		}

		if periods == nil {
			if p, ok := headerPeriods(rec); ok {
				periods = p
				f.Periods = p
			}
			continue
		}
		if _, ok := headerPeriods(rec); ok {
			continue
		}
		if isPeriodRow(rec) {
			continue
		}

		// section titles such as "Profitability" are single-cell lines
		name := strings.TrimSpace(rec[0])
		if name == "" || len(rec) < 2 {
			continue
		}
		if _, dup := f.Rows[name]; dup {
			continue
		}

		values := make([]float64, len(periods))
		for i := range values {
			values[i] = math.NaN()
			if i+1 < len(rec) {
				values[i] = util.ParseNumber(rec[i+1])
			}
		}
		f.Rows[name] = values
		f.Columns = append(f.Columns, name)
	}

	if periods == nil {
		return nil, ErrNoTable
	}
	return f, nil
}

func headerPeriods(rec []string) ([]string, bool) {
	if len(rec) < 2 || strings.TrimSpace(rec[0]) != "" {
		return nil, false
	}
	out := make([]string, 0, len(rec)-1)
	for _, c := range rec[1:] {
		c = strings.TrimSpace(c)
		if !isPeriodLabel(c) {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}

// isPeriodRow matches the sub-table headers ("Margins % of Sales,2014-12,...").
func isPeriodRow(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	for _, c := range rec[1:] {
		if !isPeriodLabel(strings.TrimSpace(c)) {
			return false
		}
	}
	return true
}

func isPeriodLabel(s string) bool {
	if s == models.PeriodTTM || s == "Latest Qtr" {
		return true
	}
	_, ok := util.ParsePeriod(s)
	return ok
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
