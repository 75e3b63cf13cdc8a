// Package view turns domain objects into read-only projections with their
// derived metrics computed once and display strings attached.
package view

import (
	"time"

	"github.com/jmanzanog/stonk/internal/domain"
)

// LogoResolver maps a ticker to a logo URL; "" when none is available.
type LogoResolver func(ticker string) string

type HoldingView struct {
	Ticker             string                `json:"ticker"`
	LogoURL            string                `json:"logo_url,omitempty"`
	NumShares          domain.Decimal        `json:"num_shares"`
	AveragePrice       domain.Decimal        `json:"average_price"`
	LastPrice          domain.Decimal        `json:"last_price"`
	TotalValue         domain.Decimal        `json:"total_value"`
	CostBasis          domain.Decimal        `json:"cost_basis"`
	Gains              domain.Gains          `json:"gains"`
	DailyChange        domain.Decimal        `json:"daily_change"`
	DailyChangePercent domain.Decimal        `json:"daily_change_percent"`
	DailyGains         domain.Gains          `json:"daily_gains"`
	Details            domain.HoldingDetails `json:"details"`
	LastUpdated        time.Time             `json:"last_updated"`
	Display            HoldingDisplay        `json:"display"`
}

type HoldingDisplay struct {
	Name              string `json:"name"`
	Shares            string `json:"shares"`
	AveragePrice      string `json:"average_price"`
	LastPrice         string `json:"last_price"`
	TotalValue        string `json:"total_value"`
	CostBasis         string `json:"cost_basis"`
	Gains             string `json:"gains"`
	GainsPercent      string `json:"gains_percent"`
	DailyGains        string `json:"daily_gains"`
	DailyGainsPercent string `json:"daily_gains_percent"`
	MarketCap         string `json:"market_cap"`
	PERatio           string `json:"pe_ratio"`
	DividendYield     string `json:"dividend_yield"`
	Beta              string `json:"beta"`
	FiftyTwoWeekHigh  string `json:"fifty_two_week_high"`
	FiftyTwoWeekLow   string `json:"fifty_two_week_low"`
	PreviousClose     string `json:"previous_close"`
	AverageVolume     string `json:"average_volume"`
	Employees         string `json:"employees"`
}

func NewHoldingView(h *domain.Holding, logo LogoResolver) (HoldingView, error) {
	s := h.Snapshot()

	value, err := s.TotalValue()
	if err != nil {
		return HoldingView{}, err
	}
	cost, err := s.CostBasis()
	if err != nil {
		return HoldingView{}, err
	}
	gains, err := s.Gains()
	if err != nil {
		return HoldingView{}, err
	}
	change, err := s.DailyChange()
	if err != nil {
		return HoldingView{}, err
	}
	changePct, err := s.DailyChangePercent()
	if err != nil {
		return HoldingView{}, err
	}
	daily, err := s.DailyGains()
	if err != nil {
		return HoldingView{}, err
	}

	v := HoldingView{
		Ticker:             s.Ticker,
		NumShares:          s.NumShares,
		AveragePrice:       s.AveragePrice,
		LastPrice:          s.LastPrice,
		TotalValue:         value,
		CostBasis:          cost,
		Gains:              gains,
		DailyChange:        change,
		DailyChangePercent: changePct,
		DailyGains:         daily,
		Details:            s.Details,
		LastUpdated:        s.LastUpdated,
	}
	if logo != nil {
		v.LogoURL = logo(s.Ticker)
	}

	d := s.Details
	v.Display = HoldingDisplay{
		Name:              Text(d.Name),
		Shares:            Number(&s.NumShares, 2),
		AveragePrice:      Currency(s.AveragePrice),
		LastPrice:         Currency(s.LastPrice),
		TotalValue:        Currency(value),
		CostBasis:         Currency(cost),
		Gains:             GainsAmount(gains),
		GainsPercent:      GainsPercent(gains),
		DailyGains:        GainsAmount(daily),
		DailyGainsPercent: GainsPercent(daily),
		MarketCap:         MarketCap(d.MarketCap),
		PERatio:           Number(d.PERatio, 2),
		DividendYield:     Percent(d.DividendYield),
		Beta:              Number(d.Beta, 2),
		FiftyTwoWeekHigh:  OptionalCurrency(d.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:   OptionalCurrency(d.FiftyTwoWeekLow),
		PreviousClose:     OptionalCurrency(d.PreviousClose),
		AverageVolume:     Volume(d.AverageVolume),
		Employees:         Employees(d.Employees),
	}
	return v, nil
}

type PortfolioView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	CreatedAt   time.Time        `json:"created_at"`
	LastUpdated time.Time        `json:"last_updated"`
	NumHoldings int              `json:"num_holdings"`
	IsEmpty     bool             `json:"is_empty"`
	TotalValue  domain.Decimal   `json:"total_value"`
	CostBasis   domain.Decimal   `json:"cost_basis"`
	Gains       domain.Gains     `json:"gains"`
	DailyGains  domain.Gains     `json:"daily_gains"`
	Holdings    []HoldingView    `json:"holdings"`
	Display     PortfolioDisplay `json:"display"`
}

type PortfolioDisplay struct {
	TotalValue        string `json:"total_value"`
	Gains             string `json:"gains"`
	GainsPercent      string `json:"gains_percent"`
	DailyGains        string `json:"daily_gains"`
	DailyGainsPercent string `json:"daily_gains_percent"`
}

func NewPortfolioView(p *domain.Portfolio, logo LogoResolver) (PortfolioView, error) {
	holdings := p.Holdings()
	views := make([]HoldingView, 0, len(holdings))
	for _, h := range holdings {
		hv, err := NewHoldingView(h, logo)
		if err != nil {
			return PortfolioView{}, err
		}
		views = append(views, hv)
	}

	value, err := p.TotalValue()
	if err != nil {
		return PortfolioView{}, err
	}
	cost, err := p.CostBasis()
	if err != nil {
		return PortfolioView{}, err
	}
	gains, err := p.Gains()
	if err != nil {
		return PortfolioView{}, err
	}
	daily, err := p.DailyGains()
	if err != nil {
		return PortfolioView{}, err
	}

	empty := len(holdings) == 0
	total := Currency(value)
	if empty {
		total = EmptyTotal
	}

	return PortfolioView{
		ID:          p.ID,
		Name:        p.Name,
		CreatedAt:   p.CreatedAt,
		LastUpdated: p.LastUpdated(),
		NumHoldings: len(holdings),
		IsEmpty:     empty,
		TotalValue:  value,
		CostBasis:   cost,
		Gains:       gains,
		DailyGains:  daily,
		Holdings:    views,
		Display: PortfolioDisplay{
			TotalValue:        total,
			Gains:             GainsAmount(gains),
			GainsPercent:      GainsPercent(gains),
			DailyGains:        GainsAmount(daily),
			DailyGainsPercent: GainsPercent(daily),
		},
	}, nil
}

type PortfoliosView struct {
	Portfolios []PortfolioView   `json:"portfolios"`
	TotalValue domain.Decimal    `json:"total_value"`
	Gains      domain.Gains      `json:"gains"`
	Display    PortfoliosDisplay `json:"display"`
}

type PortfoliosDisplay struct {
	TotalValue   string `json:"total_value"`
	Gains        string `json:"gains"`
	GainsPercent string `json:"gains_percent"`
}

func NewPortfoliosView(ps domain.Portfolios, logo LogoResolver) (PortfoliosView, error) {
	views := make([]PortfolioView, 0, len(ps))
	for _, p := range ps {
		pv, err := NewPortfolioView(p, logo)
		if err != nil {
			return PortfoliosView{}, err
		}
		views = append(views, pv)
	}

	value, err := ps.TotalValue()
	if err != nil {
		return PortfoliosView{}, err
	}
	gains, err := ps.Gains()
	if err != nil {
		return PortfoliosView{}, err
	}

	total := Currency(value)
	if len(ps) == 0 {
		total = EmptyTotal
	}

	return PortfoliosView{
		Portfolios: views,
		TotalValue: value,
		Gains:      gains,
		Display: PortfoliosDisplay{
			TotalValue:   total,
			Gains:        GainsAmount(gains),
			GainsPercent: GainsPercent(gains),
		},
	}, nil
}
