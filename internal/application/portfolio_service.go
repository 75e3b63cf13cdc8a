package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata"
)

// ErrHistoryUnavailable is returned when the quote source could not produce a
// price series. An empty series is not an error.
var ErrHistoryUnavailable = errors.New("price history unavailable")

// PortfolioService owns every mutation of portfolios and holdings and drives
// the quote refreshes.
type PortfolioService struct {
	repo           domain.PortfolioRepository
	quotes         marketdata.QuoteProvider
	maxConcurrency int
}

type ServiceOption func(*PortfolioService)

// WithMaxConcurrency bounds the number of in-flight quote requests during one
// portfolio refresh. Zero or less means one request per holding at once.
func WithMaxConcurrency(n int) ServiceOption {
	return func(s *PortfolioService) {
		s.maxConcurrency = n
	}
}

func NewPortfolioService(repo domain.PortfolioRepository, quotes marketdata.QuoteProvider, opts ...ServiceOption) *PortfolioService {
	s := &PortfolioService{repo: repo, quotes: quotes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshSummary reports the outcome of one price fan-out. Failed lists the
// tickers whose quote came back as zero.
type RefreshSummary struct {
	Attempted int      `json:"attempted"`
	Updated   int      `json:"updated"`
	Failed    []string `json:"failed"`
}

func (s *PortfolioService) AddPortfolio(ctx context.Context, name string) (*domain.Portfolio, error) {
	p, err := domain.NewPortfolio(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to add portfolio %q: %w", p.Name, err)
	}
	slog.InfoContext(ctx, "Portfolio created", "portfolio", p.Name, "id", p.ID)
	return p, nil
}

func (s *PortfolioService) ListPortfolios(ctx context.Context) (domain.Portfolios, error) {
	portfolios, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

func (s *PortfolioService) GetPortfolio(ctx context.Context, name string) (*domain.Portfolio, error) {
	p, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %q: %w", name, err)
	}
	return p, nil
}

func (s *PortfolioService) DeletePortfolio(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete portfolio %q: %w", name, err)
	}
	slog.InfoContext(ctx, "Portfolio deleted", "portfolio", name)
	return nil
}

// AddHolding merges a lot into the portfolio. A brand-new ticker triggers a
// price refresh of the whole portfolio before saving; a merge does not.
func (s *PortfolioService) AddHolding(ctx context.Context, portfolioName, ticker string, numShares, averagePrice domain.Decimal) (*domain.Holding, bool, error) {
	p, err := s.GetPortfolio(ctx, portfolioName)
	if err != nil {
		return nil, false, err
	}

	lot, err := domain.NewHolding(ticker, numShares, averagePrice)
	if err != nil {
		return nil, false, err
	}

	holding, appended, err := p.AddHolding(lot)
	if err != nil {
		return nil, false, fmt.Errorf("failed to add holding: %w", err)
	}

	if appended {
		s.UpdatePrices(ctx, p)
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, false, fmt.Errorf("failed to save portfolio: %w", err)
	}
	return holding, appended, nil
}

func (s *PortfolioService) RemoveHolding(ctx context.Context, portfolioName, ticker string) error {
	p, err := s.GetPortfolio(ctx, portfolioName)
	if err != nil {
		return err
	}
	if err := p.RemoveHolding(ticker); err != nil {
		return fmt.Errorf("failed to remove holding %q: %w", ticker, err)
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}

func (s *PortfolioService) GetHolding(ctx context.Context, portfolioName, ticker string) (*domain.Holding, error) {
	p, err := s.GetPortfolio(ctx, portfolioName)
	if err != nil {
		return nil, err
	}
	h, err := p.Holding(ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to get holding %q: %w", ticker, err)
	}
	return h, nil
}

// UpdatePrices fetches every holding's price concurrently and returns once all
// requests have finished. Each task writes to the holding it captured, so a
// holding removed mid-refresh is updated off to the side and never
// reattached. It does not persist the portfolio.
func (s *PortfolioService) UpdatePrices(ctx context.Context, p *domain.Portfolio) RefreshSummary {
	holdings := p.Holdings()
	summary := RefreshSummary{Attempted: len(holdings), Failed: make([]string, 0)}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	for _, h := range holdings {
		g.Go(func() error {
			price := s.quotes.GetSharePrice(ctx, h.Ticker())
			h.SetLastPrice(price)

			mu.Lock()
			defer mu.Unlock()
			if price.IsZero() {
				summary.Failed = append(summary.Failed, h.Ticker())
			} else {
				summary.Updated++
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(summary.Failed)
	p.Touch()

	slog.DebugContext(ctx, "Portfolio prices refreshed",
		"portfolio", p.Name, "attempted", summary.Attempted, "updated", summary.Updated, "failed", len(summary.Failed))
	return summary
}

// RefreshPortfolio runs UpdatePrices on a stored portfolio and saves the result.
func (s *PortfolioService) RefreshPortfolio(ctx context.Context, name string) (*domain.Portfolio, RefreshSummary, error) {
	p, err := s.GetPortfolio(ctx, name)
	if err != nil {
		return nil, RefreshSummary{}, err
	}
	summary := s.UpdatePrices(ctx, p)
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, summary, fmt.Errorf("failed to save portfolio: %w", err)
	}
	return p, summary, nil
}

// RefreshPrices refreshes and saves every stored portfolio. A save failure for
// one portfolio does not stop the others, and a portfolio deleted while its
// quotes were in flight is dropped.
func (s *PortfolioService) RefreshPrices(ctx context.Context) error {
	portfolios, err := s.ListPortfolios(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range portfolios {
		if p.IsEmpty() {
			continue
		}
		s.UpdatePrices(ctx, p)
		err := s.repo.Save(ctx, p)
		switch {
		case errors.Is(err, domain.ErrPortfolioNotFound):
			slog.DebugContext(ctx, "Portfolio deleted during refresh", "portfolio", p.Name)
		case err != nil:
			errs = append(errs, fmt.Errorf("failed to save portfolio %q: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

// UpdateHoldingDetails replaces the holding's descriptive fields with a fresh
// fetch. On failure the holding is left untouched and false is returned.
func (s *PortfolioService) UpdateHoldingDetails(ctx context.Context, h *domain.Holding) bool {
	details, ok := s.quotes.GetHoldingDetails(ctx, h.Ticker())
	if !ok {
		return false
	}
	h.ApplyDetails(details)
	return true
}

// RefreshHoldingDetails runs UpdateHoldingDetails on a stored holding and saves
// the portfolio when the fetch succeeded.
func (s *PortfolioService) RefreshHoldingDetails(ctx context.Context, portfolioName, ticker string) (*domain.Holding, bool, error) {
	p, err := s.GetPortfolio(ctx, portfolioName)
	if err != nil {
		return nil, false, err
	}
	h, err := p.Holding(ticker)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get holding %q: %w", ticker, err)
	}

	if !s.UpdateHoldingDetails(ctx, h) {
		return h, false, nil
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, false, fmt.Errorf("failed to save portfolio: %w", err)
	}
	return h, true, nil
}

func (s *PortfolioService) GetPriceHistory(ctx context.Context, ticker string, period domain.ChartPeriod) (domain.PriceHistory, error) {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", domain.ErrInvalidHolding)
	}
	history, ok := s.quotes.GetPriceHistory(ctx, ticker, period)
	if !ok {
		return nil, fmt.Errorf("%w for %s (%s)", ErrHistoryUnavailable, ticker, period)
	}
	return history, nil
}

// LogoURL returns the provider's logo location for ticker, or "".
func (s *PortfolioService) LogoURL(ticker string) string {
	if ls, ok := s.quotes.(marketdata.LogoSource); ok {
		return ls.LogoURL(ticker)
	}
	return ""
}
