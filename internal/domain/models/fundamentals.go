package models

import (
	"math"
	"time"
)

// PeriodTTM labels the trailing-twelve-months column of a key-ratio table.
const PeriodTTM = "TTM"

// Series is an ordered sequence of observations, oldest first, with a
// period label per observation.
type Series struct {
	Name    string
	Periods []string
	Values  []float64
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Values) }

// Latest returns the most recent observation and its period.
func (s Series) Latest() (float64, string, bool) {
	if len(s.Values) == 0 {
		return 0, "", false
	}
	i := len(s.Values) - 1
	return s.Values[i], s.Periods[i], true
}

// WithoutTTM returns a copy of s without a trailing TTM observation.
func (s Series) WithoutTTM() Series {
	n := len(s.Periods)
	if n == 0 || s.Periods[n-1] != PeriodTTM {
		return s
	}
	return Series{Name: s.Name, Periods: s.Periods[:n-1], Values: s.Values[:n-1]}
}

// Compact returns a copy of s without missing (NaN) observations.
func (s Series) Compact() Series {
	out := Series{Name: s.Name, Periods: make([]string, 0, len(s.Periods)), Values: make([]float64, 0, len(s.Values))}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.Periods = append(out.Periods, s.Periods[i])
		out.Values = append(out.Values, v)
	}
	return out
}

// Fundamentals is a key-ratio table: one row per metric, one column per
// fiscal period. Missing cells are NaN.
type Fundamentals struct {
	Ticker    string
	Exchange  string
	Periods   []string
	Columns   []string
	Rows      map[string][]float64
	FetchedAt time.Time
}

// Series extracts the named metric as a time series.
func (f *Fundamentals) Series(column string) (Series, bool) {
	vals, ok := f.Rows[column]
	if !ok {
		return Series{}, false
	}
	periods := make([]string, len(f.Periods))
	copy(periods, f.Periods)
	values := make([]float64, len(vals))
	copy(values, vals)
	return Series{Name: column, Periods: periods, Values: values}, true
}

// Profile holds company-level inputs that the key-ratio table lacks.
type Profile struct {
	Ticker      string
	CompanyName string
	Beta        float64
	Shares      float64 // millions
}

// Quote is the last traded price of a symbol.
type Quote struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// Overview groups the headline series of a ticker.
type Overview struct {
	Ticker   string
	Exchange string
	Series   []Series
	Missing  []string
}
