// Command valuate prints a valuation report for one ticker as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"FinValue/internal/di"
	"FinValue/internal/domain/models"
	"FinValue/internal/usecase"
	"FinValue/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "config file path")
		ticker     = flag.String("ticker", "", "ticker symbol, e.g. AAPL")
		seed       = flag.Uint64("seed", 0, "random seed for the DCF trials (0 draws one)")
		dropTTM    = flag.Bool("drop-ttm", false, "ignore the trailing-twelve-months column")
		withQuote  = flag.Bool("quote", true, "fetch the last traded price when Finnhub is configured")
		publish    = flag.Bool("publish", false, "publish the report to Kafka when configured")
		trials     = flag.Bool("trials", false, "include the raw DCF trials")
		timeout    = flag.Duration("timeout", time.Minute, "overall deadline")
	)
	flag.Parse()
	if *ticker == "" {
		fmt.Fprintln(os.Stderr, "usage: valuate -ticker SYMBOL [-config path] [-seed n]")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the report
	cfg.Log.Output = "stderr"
	if !*publish {
		cfg.Kafka.Enabled = false
	}

	uc, cleanup, err := di.InitializeValuation(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}

	code := run(uc, *ticker, *seed, *dropTTM, !*withQuote, *trials, *timeout)
	cleanup()
	os.Exit(code)
}

func run(uc *usecase.ValuationUseCase, ticker string, seed uint64, dropTTM, skipQuote, trials bool, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := uc.Report(ctx, usecase.ReportParams{
		Ticker:    ticker,
		Seed:      seed,
		DropTTM:   dropTTM,
		SkipQuote: skipQuote,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "valuation failed: %v\n", err)
		return 1
	}

	out := models.NewReportResponse(report)
	if trials {
		out.DCF = models.NewDCFResponse(report.DCF, true)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
		return 1
	}
	return 0
}
