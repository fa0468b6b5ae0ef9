package repository

import "strings"

// Canonical key-ratio row names used by the valuation report.
const (
	ColumnEPS           = "Earnings Per Share USD"
	ColumnDividends     = "Dividends USD"
	ColumnFreeCashFlow  = "Free Cash Flow USD Mil"
	ColumnShares        = "Shares Mil"
	ColumnDebtEquity    = "Debt/Equity"
	ColumnNetMargin     = "Net Margin %"
	ColumnRevenue       = "Revenue USD Mil"
	ColumnBookValue     = "Book Value Per Share * USD"
	ColumnOperatingCash = "Operating Cash Flow USD Mil"
)

// OverviewColumns are the series shown on the fundamentals overview.
var OverviewColumns = []string{ColumnEPS, ColumnDebtEquity, ColumnNetMargin, ColumnFreeCashFlow}

var columnAliases = map[string]string{
	"eps":            ColumnEPS,
	"dividends":      ColumnDividends,
	"dividend":       ColumnDividends,
	"fcf":            ColumnFreeCashFlow,
	"free_cash_flow": ColumnFreeCashFlow,
	"shares":         ColumnShares,
	"debt_equity":    ColumnDebtEquity,
	"net_margin":     ColumnNetMargin,
	"revenue":        ColumnRevenue,
	"book_value":     ColumnBookValue,
	"operating_cash": ColumnOperatingCash,
}

// NormalizeColumn maps a short alias ("eps", "fcf") to its key-ratio row
// name. Unknown values are returned trimmed so exact row names still work.
func NormalizeColumn(s string) string {
	s = strings.TrimSpace(s)
	if c, ok := columnAliases[strings.ToLower(s)]; ok {
		return c
	}
	return s
}
