package marketdata

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/jmanzanog/stonk/internal/domain"
)

// ErrEmptyTicker is returned by sources when asked for a blank symbol.
var ErrEmptyTicker = errors.New("ticker is required")

// Source is a market-data backend. Implementations report failures as errors;
// QuoteClient is the only place those errors are collapsed.
type Source interface {
	Price(ctx context.Context, ticker string) (domain.Decimal, error)
	Details(ctx context.Context, ticker string) (domain.HoldingDetails, error)
	History(ctx context.Context, ticker string, period domain.ChartPeriod) ([]domain.RawPricePoint, error)
}

// LogoSource is implemented by sources that serve company logos.
type LogoSource interface {
	LogoURL(ticker string) string
}

// QuoteProvider never fails. A failed price is zero, and failed details or
// history report false. An empty history with true means the fetch succeeded
// with no points.
type QuoteProvider interface {
	GetSharePrice(ctx context.Context, ticker string) domain.Decimal
	GetHoldingDetails(ctx context.Context, ticker string) (domain.HoldingDetails, bool)
	GetPriceHistory(ctx context.Context, ticker string, period domain.ChartPeriod) (domain.PriceHistory, bool)
}

// QuoteClient adapts a Source to QuoteProvider.
type QuoteClient struct {
	source  Source
	limiter *rate.Limiter
}

type Option func(*QuoteClient)

// WithRateLimit caps outbound requests per second across all callers.
// A non-positive limit disables limiting.
func WithRateLimit(perSecond int) Option {
	return func(c *QuoteClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

func NewQuoteClient(source Source, opts ...Option) *QuoteClient {
	c := &QuoteClient{source: source}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *QuoteClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *QuoteClient) GetSharePrice(ctx context.Context, ticker string) domain.Decimal {
	if err := c.wait(ctx); err != nil {
		logFailure(ctx, "price", ticker, err)
		return domain.Zero
	}
	price, err := c.source.Price(ctx, ticker)
	if err != nil {
		logFailure(ctx, "price", ticker, err)
		return domain.Zero
	}
	if price.IsNegative() {
		logFailure(ctx, "price", ticker, errors.New("negative price"))
		return domain.Zero
	}
	return price
}

func (c *QuoteClient) GetHoldingDetails(ctx context.Context, ticker string) (domain.HoldingDetails, bool) {
	if err := c.wait(ctx); err != nil {
		logFailure(ctx, "details", ticker, err)
		return domain.HoldingDetails{}, false
	}
	details, err := c.source.Details(ctx, ticker)
	if err != nil {
		logFailure(ctx, "details", ticker, err)
		return domain.HoldingDetails{}, false
	}
	return details, true
}

func (c *QuoteClient) GetPriceHistory(ctx context.Context, ticker string, period domain.ChartPeriod) (domain.PriceHistory, bool) {
	if err := c.wait(ctx); err != nil {
		logFailure(ctx, "history", ticker, err)
		return nil, false
	}
	raw, err := c.source.History(ctx, ticker, period)
	if err != nil {
		logFailure(ctx, "history", ticker, err)
		return nil, false
	}
	history := domain.ReducePriceHistory(raw)
	if dropped := len(raw) - len(history); dropped > 0 {
		slog.DebugContext(ctx, "dropped history points with unparseable dates",
			"ticker", ticker, "period", period, "dropped", dropped)
	}
	return history, true
}

// LogoURL returns the logo location when the source serves logos, or "".
func (c *QuoteClient) LogoURL(ticker string) string {
	if ls, ok := c.source.(LogoSource); ok {
		return ls.LogoURL(ticker)
	}
	return ""
}

func logFailure(ctx context.Context, operation, ticker string, err error) {
	slog.WarnContext(ctx, "quote request failed", "operation", operation, "ticker", ticker, "error", err)
}

var _ QuoteProvider = (*QuoteClient)(nil)
