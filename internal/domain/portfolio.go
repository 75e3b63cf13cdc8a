package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPortfolio   = errors.New("invalid portfolio")
	ErrPortfolioNotFound  = errors.New("portfolio not found")
	ErrDuplicatePortfolio = errors.New("portfolio with same name already exists")
)

// Portfolio is a named, ordered set of holdings keyed by ticker.
// The name is its identity; ID is a surrogate key for SQL stores.
type Portfolio struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu          sync.RWMutex
	holdings    []*Holding
	lastUpdated time.Time
}

func NewPortfolio(name string) (*Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPortfolio)
	}
	now := time.Now()
	return &Portfolio{
		ID:          uuid.New().String(),
		Name:        name,
		CreatedAt:   now,
		holdings:    make([]*Holding, 0),
		lastUpdated: now,
	}, nil
}

// RestorePortfolio rebuilds a portfolio from stored state.
func RestorePortfolio(id, name string, createdAt, lastUpdated time.Time, holdings []*Holding) *Portfolio {
	if holdings == nil {
		holdings = make([]*Holding, 0)
	}
	return &Portfolio{
		ID:          id,
		Name:        name,
		CreatedAt:   createdAt,
		holdings:    holdings,
		lastUpdated: lastUpdated,
	}
}

// AddHolding merges h into the existing holding with the same ticker, or
// appends it when the ticker is new. It returns the holding that now carries
// the position and whether it was appended.
func (p *Portfolio) AddHolding(h *Holding) (*Holding, bool, error) {
	if h == nil {
		return nil, false, ErrInvalidHolding
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.holdings {
		if existing.Ticker() == h.Ticker() {
			lot := h.Snapshot()
			if err := existing.mergeLot(lot.NumShares, lot.AveragePrice); err != nil {
				return nil, false, err
			}
			p.lastUpdated = time.Now()
			return existing, false, nil
		}
	}

	p.holdings = append(p.holdings, h)
	p.lastUpdated = time.Now()
	return h, true, nil
}

func (p *Portfolio) RemoveHolding(ticker string) error {
	ticker = NormalizeTicker(ticker)
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, h := range p.holdings {
		if h.Ticker() == ticker {
			p.holdings = append(p.holdings[:i:i], p.holdings[i+1:]...)
			p.lastUpdated = time.Now()
			return nil
		}
	}
	return ErrHoldingNotFound
}

func (p *Portfolio) Holding(ticker string) (*Holding, error) {
	ticker = NormalizeTicker(ticker)
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, h := range p.holdings {
		if h.Ticker() == ticker {
			return h, nil
		}
	}
	return nil, ErrHoldingNotFound
}

// Holdings returns the holdings in display order. The slice is a copy; the
// holdings are shared.
func (p *Portfolio) Holdings() []*Holding {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Holding, len(p.holdings))
	copy(out, p.holdings)
	return out
}

func (p *Portfolio) NumHoldings() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.holdings)
}

func (p *Portfolio) IsEmpty() bool {
	return p.NumHoldings() == 0
}

func (p *Portfolio) LastUpdated() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastUpdated
}

// Touch marks the portfolio as refreshed now.
func (p *Portfolio) Touch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastUpdated = time.Now()
}

func (p *Portfolio) TotalValue() (Decimal, error) {
	return sumHoldings(p.Holdings(), HoldingSnapshot.TotalValue)
}

func (p *Portfolio) CostBasis() (Decimal, error) {
	return sumHoldings(p.Holdings(), HoldingSnapshot.CostBasis)
}

// Gains sums the holdings' dollar gains and expresses them against the
// portfolio's value less those gains.
func (p *Portfolio) Gains() (Gains, error) {
	return p.aggregate(HoldingSnapshot.Gains)
}

// DailyGains sums today's dollar moves and expresses them against the value at
// the previous close.
func (p *Portfolio) DailyGains() (Gains, error) {
	return p.aggregate(HoldingSnapshot.DailyGains)
}

func (p *Portfolio) aggregate(gainsOf func(HoldingSnapshot) (Gains, error)) (Gains, error) {
	value, dollar := Zero, Zero
	for _, h := range p.Holdings() {
		s := h.Snapshot()
		v, err := s.TotalValue()
		if err != nil {
			return Gains{}, err
		}
		g, err := gainsOf(s)
		if err != nil {
			return Gains{}, err
		}
		if value, err = value.Add(v); err != nil {
			return Gains{}, err
		}
		if dollar, err = dollar.Add(g.DollarAmount); err != nil {
			return Gains{}, err
		}
	}
	return gainsOver(value, dollar)
}

func sumHoldings(holdings []*Holding, metric func(HoldingSnapshot) (Decimal, error)) (Decimal, error) {
	total := Zero
	for _, h := range holdings {
		v, err := metric(h.Snapshot())
		if err != nil {
			return Zero, err
		}
		if total, err = total.Add(v); err != nil {
			return Zero, err
		}
	}
	return total, nil
}

// Portfolios is the full collection shown on the overview screen.
type Portfolios []*Portfolio

func (ps Portfolios) TotalValue() (Decimal, error) {
	total := Zero
	for _, p := range ps {
		v, err := p.TotalValue()
		if err != nil {
			return Zero, err
		}
		if total, err = total.Add(v); err != nil {
			return Zero, err
		}
	}
	return total, nil
}

func (ps Portfolios) Gains() (Gains, error) {
	value, dollar := Zero, Zero
	for _, p := range ps {
		v, err := p.TotalValue()
		if err != nil {
			return Gains{}, err
		}
		g, err := p.Gains()
		if err != nil {
			return Gains{}, err
		}
		if value, err = value.Add(v); err != nil {
			return Gains{}, err
		}
		if dollar, err = dollar.Add(g.DollarAmount); err != nil {
			return Gains{}, err
		}
	}
	return gainsOver(value, dollar)
}
