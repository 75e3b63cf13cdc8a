package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmanzanog/stonk/internal/domain"
)

// AddHoldingRequest is one lot in a batch.
type AddHoldingRequest struct {
	Ticker       string         `json:"ticker"`
	NumShares    domain.Decimal `json:"num_shares"`
	AveragePrice domain.Decimal `json:"average_price"`
}

// AddHoldingResult is the outcome of a single lot.
type AddHoldingResult struct {
	Ticker   string                  `json:"ticker"`
	Merged   bool                    `json:"merged"`
	Holding  *domain.HoldingSnapshot `json:"holding,omitempty"`
	Error    string                  `json:"error,omitempty"`
	resident *domain.Holding
}

// AddHoldingsResult is the outcome of a batch. Refresh is set when at least
// one lot opened a new holding.
type AddHoldingsResult struct {
	Successful []AddHoldingResult `json:"successful"`
	Failed     []AddHoldingResult `json:"failed"`
	Refresh    *RefreshSummary    `json:"refresh,omitempty"`
}

// AddHoldings applies several lots to one portfolio in order. Each lot merges
// or appends on its own; invalid lots are reported and skipped. A single price
// refresh runs after all lots when any of them appended.
func (s *PortfolioService) AddHoldings(ctx context.Context, portfolioName string, requests []AddHoldingRequest) (*AddHoldingsResult, error) {
	result := &AddHoldingsResult{
		Successful: make([]AddHoldingResult, 0),
		Failed:     make([]AddHoldingResult, 0),
	}

	p, err := s.GetPortfolio(ctx, portfolioName)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return result, nil
	}

	anyAppended := false
	for _, req := range requests {
		lot, err := domain.NewHolding(req.Ticker, req.NumShares, req.AveragePrice)
		if err != nil {
			result.Failed = append(result.Failed, AddHoldingResult{Ticker: req.Ticker, Error: err.Error()})
			continue
		}
		resident, appended, err := p.AddHolding(lot)
		if err != nil {
			result.Failed = append(result.Failed, AddHoldingResult{
				Ticker: lot.Ticker(),
				Error:  fmt.Sprintf("failed to add to portfolio: %v", err),
			})
			continue
		}
		anyAppended = anyAppended || appended
		result.Successful = append(result.Successful, AddHoldingResult{
			Ticker:   resident.Ticker(),
			Merged:   !appended,
			resident: resident,
		})
	}

	if len(result.Successful) == 0 {
		return result, nil
	}

	if anyAppended {
		summary := s.UpdatePrices(ctx, p)
		result.Refresh = &summary
	}

	if err := s.repo.Save(ctx, p); err != nil {
		slog.ErrorContext(ctx, "Failed to save portfolio after batch add", "portfolio", p.Name, "error", err)
		for _, r := range result.Successful {
			result.Failed = append(result.Failed, AddHoldingResult{
				Ticker: r.Ticker,
				Error:  fmt.Sprintf("failed to save portfolio: %v", err),
			})
		}
		result.Successful = make([]AddHoldingResult, 0)
		return result, nil
	}

	for i := range result.Successful {
		snap := result.Successful[i].resident.Snapshot()
		result.Successful[i].Holding = &snap
	}
	return result, nil
}
