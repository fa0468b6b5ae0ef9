package usecase

import (
	"context"
	"fmt"
	"strings"

	"FinValue/internal/domain/models"
	domrepo "FinValue/internal/domain/repository"
)

// FundamentalsUseCase exposes raw key-ratio series.
type FundamentalsUseCase struct {
	source domrepo.FundamentalsSource
}

func NewFundamentalsUseCase(source domrepo.FundamentalsSource) *FundamentalsUseCase {
	return &FundamentalsUseCase{source: source}
}

// Series returns one metric of a ticker's key-ratio table. column accepts
// the aliases understood by NormalizeColumn. Missing cells are kept as NaN.
func (u *FundamentalsUseCase) Series(ctx context.Context, ticker, column string, dropTTM bool) (*models.Series, error) {
	f, err := u.source.KeyRatios(ctx, normalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	name := domrepo.NormalizeColumn(column)
	s, ok := f.Series(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, column)
	}
	if dropTTM {
		s = s.WithoutTTM()
	}
	return &s, nil
}

// Overview returns the headline series of a ticker. Columns the table lacks
// are listed in Missing rather than failing the call.
func (u *FundamentalsUseCase) Overview(ctx context.Context, ticker string) (*models.Overview, error) {
	f, err := u.source.KeyRatios(ctx, normalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	out := &models.Overview{Ticker: f.Ticker, Exchange: f.Exchange}
	for _, col := range domrepo.OverviewColumns {
		s, ok := f.Series(col)
		if !ok {
			out.Missing = append(out.Missing, col)
			continue
		}
		out.Series = append(out.Series, s)
	}
	return out, nil
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
