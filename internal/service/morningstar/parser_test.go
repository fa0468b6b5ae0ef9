package morningstar

import (
	"errors"
	"math"
	"testing"
)

const sampleCSV = "Growth Profitability and Financial Ratios for Example Corp\n" +
	"Financials\n" +
	",2014-12,2015-12,2016-12,TTM\n" +
	"Revenue USD Mil,\"1,000\",\"1,200\",\"1,500\",\"1,600\"\n" +
	"Earnings Per Share USD,1.10,1.25,,1.60\n" +
	"Dividends USD,0.20,0.22,0.25,0.26\n" +
	"Free Cash Flow USD Mil,300,-50,420,450\n" +
	"\n" +
	"Key Ratios -> Profitability\n" +
	"Margins % of Sales,2014-12,2015-12,2016-12,TTM\n" +
	"Revenue,100.00,100.00,100.00,100.00\n" +
	"Net Margin %,12.5,13.1,14.0,14.2\n" +
	"Key Ratios -> Financial Health\n" +
	"Liquidity/Financial Health,2014-12,2015-12,2016-12,Latest Qtr\n" +
	"Debt/Equity,0.40,0.35,0.30,0.31\n" +
	"Earnings Per Share USD,9,9,9,9\n"

func TestParseKeyRatios(t *testing.T) {
	f, err := ParseKeyRatios([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(f.Periods) != 4 || f.Periods[0] != "2014-12" || f.Periods[3] != "TTM" {
		t.Fatalf("unexpected periods %v", f.Periods)
	}

	rev := f.Rows["Revenue USD Mil"]
	if rev[0] != 1000 || rev[3] != 1600 {
		t.Fatalf("thousands separators not stripped: %v", rev)
	}

	eps := f.Rows["Earnings Per Share USD"]
	if eps[0] != 1.10 || !math.IsNaN(eps[2]) {
		t.Fatalf("unexpected eps row %v", eps)
	}

	if fcf := f.Rows["Free Cash Flow USD Mil"]; fcf[1] != -50 {
		t.Fatalf("negative values must parse, got %v", fcf)
	}
	if nm := f.Rows["Net Margin %"]; nm[3] != 14.2 {
		t.Fatalf("unexpected net margin %v", nm)
	}
	if de := f.Rows["Debt/Equity"]; de[0] != 0.40 {
		t.Fatalf("unexpected debt/equity %v", de)
	}
	if _, ok := f.Rows["Margins % of Sales"]; ok {
		t.Fatalf("sub-table header must be skipped")
	}
	if _, ok := f.Rows["Key Ratios -> Profitability"]; ok {
		t.Fatalf("section title must be skipped")
	}
}

func TestParseKeyRatiosSeries(t *testing.T) {
	f, err := ParseKeyRatios([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, ok := f.Series("Dividends USD")
	if !ok {
		t.Fatalf("expected dividends series")
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 observations, got %d", s.Len())
	}
	trimmed := s.WithoutTTM()
	v, period, ok := trimmed.Latest()
	if !ok || period != "2016-12" || v != 0.25 {
		t.Fatalf("unexpected latest after dropping TTM: %v %q", v, period)
	}
}

func TestParseKeyRatiosNoTable(t *testing.T) {
	if _, err := ParseKeyRatios([]byte("We're sorry.\n")); !errors.Is(err, ErrNoTable) {
		t.Fatalf("expected ErrNoTable, got %v", err)
	}
}
