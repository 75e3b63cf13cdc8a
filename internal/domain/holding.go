package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidHolding  = errors.New("invalid holding")
	ErrHoldingNotFound = errors.New("holding not found")
)

// Holding is one position in one ticker. It is shared by reference between a
// Portfolio and any in-flight refresh, so every field is guarded by mu.
type Holding struct {
	mu           sync.RWMutex
	ticker       string
	numShares    Decimal
	averagePrice Decimal
	lastPrice    Decimal
	details      HoldingDetails
	lastUpdated  time.Time
}

// HoldingSnapshot is a consistent, immutable copy of a Holding's state.
type HoldingSnapshot struct {
	Ticker       string         `json:"ticker"`
	NumShares    Decimal        `json:"num_shares"`
	AveragePrice Decimal        `json:"average_price"`
	LastPrice    Decimal        `json:"last_price"`
	Details      HoldingDetails `json:"details"`
	LastUpdated  time.Time      `json:"last_updated"`
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// NewHolding creates a holding for a single lot. The last price starts at zero
// until the first refresh.
func NewHolding(ticker string, numShares, averagePrice Decimal) (*Holding, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidHolding)
	}
	if !numShares.IsFinite() || !averagePrice.IsFinite() {
		return nil, fmt.Errorf("%w: shares and average price must be finite numbers", ErrInvalidHolding)
	}
	if numShares.Sign() <= 0 {
		return nil, fmt.Errorf("%w: number of shares must be positive", ErrInvalidHolding)
	}
	if averagePrice.IsNegative() {
		return nil, fmt.Errorf("%w: average price must not be negative", ErrInvalidHolding)
	}
	return &Holding{
		ticker:       ticker,
		numShares:    numShares,
		averagePrice: averagePrice,
		lastPrice:    Zero,
		lastUpdated:  time.Now(),
	}, nil
}

// RestoreHolding rebuilds a holding from stored state.
func RestoreHolding(s HoldingSnapshot) *Holding {
	return &Holding{
		ticker:       NormalizeTicker(s.Ticker),
		numShares:    s.NumShares,
		averagePrice: s.AveragePrice,
		lastPrice:    s.LastPrice,
		details:      s.Details,
		lastUpdated:  s.LastUpdated,
	}
}

func (h *Holding) Ticker() string {
	// ticker never changes after construction
	return h.ticker
}

func (h *Holding) NumShares() Decimal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.numShares
}

func (h *Holding) AveragePrice() Decimal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.averagePrice
}

func (h *Holding) LastPrice() Decimal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastPrice
}

func (h *Holding) Details() HoldingDetails {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.details
}

// SetLastPrice records a fetched quote. Zero means the fetch failed.
func (h *Holding) SetLastPrice(price Decimal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastPrice = price
	h.lastUpdated = time.Now()
}

// ApplyDetails replaces every descriptive field, clearing the ones absent in d.
func (h *Holding) ApplyDetails(d HoldingDetails) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.details = d
	h.lastUpdated = time.Now()
}

// mergeLot folds a new lot into the position using a share-weighted average
// cost. The average is computed against the share count before the merge.
func (h *Holding) mergeLot(numShares, averagePrice Decimal) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	heldCost, err := h.numShares.Mul(h.averagePrice)
	if err != nil {
		return err
	}
	lotCost, err := numShares.Mul(averagePrice)
	if err != nil {
		return err
	}
	totalCost, err := heldCost.Add(lotCost)
	if err != nil {
		return err
	}
	totalShares, err := h.numShares.Add(numShares)
	if err != nil {
		return err
	}
	newAverage, err := totalCost.Div(totalShares)
	if err != nil {
		return fmt.Errorf("failed to merge lot into %s: %w", h.ticker, err)
	}

	h.averagePrice = newAverage
	h.numShares = totalShares
	h.lastUpdated = time.Now()
	return nil
}

// Snapshot copies the holding's state under a single read lock.
func (h *Holding) Snapshot() HoldingSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HoldingSnapshot{
		Ticker:       h.ticker,
		NumShares:    h.numShares,
		AveragePrice: h.averagePrice,
		LastPrice:    h.lastPrice,
		Details:      h.details,
		LastUpdated:  h.lastUpdated,
	}
}

func (h *Holding) TotalValue() (Decimal, error)         { return h.Snapshot().TotalValue() }
func (h *Holding) CostBasis() (Decimal, error)          { return h.Snapshot().CostBasis() }
func (h *Holding) Gains() (Gains, error)                { return h.Snapshot().Gains() }
func (h *Holding) DailyChange() (Decimal, error)        { return h.Snapshot().DailyChange() }
func (h *Holding) DailyChangePercent() (Decimal, error) { return h.Snapshot().DailyChangePercent() }
func (h *Holding) DailyGains() (Gains, error)           { return h.Snapshot().DailyGains() }

// TotalValue is numShares * lastPrice.
func (s HoldingSnapshot) TotalValue() (Decimal, error) {
	return s.NumShares.Mul(s.LastPrice)
}

// CostBasis is numShares * averagePrice.
func (s HoldingSnapshot) CostBasis() (Decimal, error) {
	return s.NumShares.Mul(s.AveragePrice)
}

// Gains is the unrealized gain against cost basis. The percentage is nil when
// the cost basis is zero.
func (s HoldingSnapshot) Gains() (Gains, error) {
	value, err := s.TotalValue()
	if err != nil {
		return Gains{}, err
	}
	cost, err := s.CostBasis()
	if err != nil {
		return Gains{}, err
	}
	dollar, err := value.Sub(cost)
	if err != nil {
		return Gains{}, err
	}
	return gainsOver(value, dollar)
}

// DailyChange is lastPrice - previousClose, or zero without a previous close.
func (s HoldingSnapshot) DailyChange() (Decimal, error) {
	if s.Details.PreviousClose == nil {
		return Zero, nil
	}
	return s.LastPrice.Sub(*s.Details.PreviousClose)
}

// DailyChangePercent is zero unless the previous close is known and positive.
func (s HoldingSnapshot) DailyChangePercent() (Decimal, error) {
	prev := s.Details.PreviousClose
	if prev == nil || prev.Sign() <= 0 {
		return Zero, nil
	}
	change, err := s.DailyChange()
	if err != nil {
		return Zero, err
	}
	pct, err := Percent(change, *prev)
	if err != nil || pct == nil {
		return Zero, err
	}
	return *pct, nil
}

// DailyGains reports today's dollar move for the whole position. It is always
// fully defined: {0, 0} when the previous close is unknown.
func (s HoldingSnapshot) DailyGains() (Gains, error) {
	change, err := s.DailyChange()
	if err != nil {
		return Gains{}, err
	}
	dollar, err := change.Mul(s.NumShares)
	if err != nil {
		return Gains{}, err
	}
	pct, err := s.DailyChangePercent()
	if err != nil {
		return Gains{}, err
	}
	return Gains{DollarAmount: dollar, PercentAmount: &pct}, nil
}
