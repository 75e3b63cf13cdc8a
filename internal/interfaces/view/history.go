package view

import (
	"github.com/jmanzanog/stonk/internal/domain"
)

type HistoryView struct {
	Ticker     string               `json:"ticker"`
	Period     domain.ChartPeriod   `json:"period"`
	PeriodName string               `json:"period_name"`
	Points     domain.PriceHistory  `json:"points"`
	Latest     *domain.PricePoint   `json:"latest,omitempty"`
	Change     *domain.PeriodChange `json:"change,omitempty"`
	Low        domain.Decimal       `json:"low"`
	High       domain.Decimal       `json:"high"`
	Display    HistoryDisplay       `json:"display"`
}

type HistoryDisplay struct {
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"change_percent"`
}

// NewHistoryView summarises a series for a price chart header. The change is
// measured from the first close to the latest one.
func NewHistoryView(ticker string, period domain.ChartPeriod, history domain.PriceHistory) HistoryView {
	if history == nil {
		history = domain.PriceHistory{}
	}
	low, high := history.Range()
	v := HistoryView{
		Ticker:     ticker,
		Period:     period,
		PeriodName: period.DisplayName(),
		Points:     history,
		Low:        low,
		High:       high,
		Display:    HistoryDisplay{Price: Absent, Change: Absent, ChangePercent: Absent},
	}

	if latest, ok := history.Latest(); ok {
		v.Latest = &latest
		v.Display.Price = Currency(latest.Close)
	}
	if change, ok := history.Change(nil); ok {
		v.Change = &change
		up := !change.Amount.IsNegative()
		v.Display.Change = SignedCurrency(change.Amount, up)
		v.Display.ChangePercent = SignedPercent(&change.Percent, up)
	}
	return v
}
