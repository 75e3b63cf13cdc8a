package domain

import (
	"fmt"
	"time"
)

// ChartPeriod is the span requested for a historical price series.
type ChartPeriod string

const (
	ChartPeriodDay       ChartPeriod = "1d"
	ChartPeriodWeek      ChartPeriod = "1w"
	ChartPeriodMonth     ChartPeriod = "1mo"
	ChartPeriodYear      ChartPeriod = "1y"
	ChartPeriodFiveYears ChartPeriod = "5y"
)

// ChartPeriods lists every period in display order.
var ChartPeriods = []ChartPeriod{
	ChartPeriodDay,
	ChartPeriodWeek,
	ChartPeriodMonth,
	ChartPeriodYear,
	ChartPeriodFiveYears,
}

var chartPeriodNames = map[ChartPeriod]string{
	ChartPeriodDay:       "1D",
	ChartPeriodWeek:      "1W",
	ChartPeriodMonth:     "1M",
	ChartPeriodYear:      "1Y",
	ChartPeriodFiveYears: "5Y",
}

func ParseChartPeriod(s string) (ChartPeriod, error) {
	p := ChartPeriod(s)
	if _, ok := chartPeriodNames[p]; !ok {
		return "", fmt.Errorf("unknown chart period %q", s)
	}
	return p, nil
}

// DisplayName is the short label used on period pickers, e.g. "1M".
func (p ChartPeriod) DisplayName() string {
	return chartPeriodNames[p]
}

// RawPricePoint is one history sample as it arrives on the wire.
type RawPricePoint struct {
	Date  string  `json:"date"`
	Close Decimal `json:"close"`
}

// PricePoint is one parsed closing price.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close Decimal   `json:"close"`
}

// PriceHistory is a chart-ready series in chronological order.
type PriceHistory []PricePoint

// historyDateLayouts are tried in order: RFC3339 with fractional seconds, then
// without. Sources convert any other wire format before reducing.
var historyDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

func parseHistoryDate(s string) (time.Time, bool) {
	for _, layout := range historyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReducePriceHistory parses every sample's date and keeps the input order.
// Samples whose date matches no known layout are dropped.
func ReducePriceHistory(raw []RawPricePoint) PriceHistory {
	out := make(PriceHistory, 0, len(raw))
	for _, r := range raw {
		t, ok := parseHistoryDate(r.Date)
		if !ok {
			continue
		}
		out = append(out, PricePoint{Date: t, Close: r.Close})
	}
	return out
}

// Latest returns the last point, if any.
func (h PriceHistory) Latest() (PricePoint, bool) {
	if len(h) == 0 {
		return PricePoint{}, false
	}
	return h[len(h)-1], true
}

// PeriodChange is the move from the first close in a series to a chosen point.
type PeriodChange struct {
	Amount  Decimal `json:"amount"`
	Percent Decimal `json:"percent"`
}

// Change measures from the first close to selected, or to the latest close when
// selected is nil. It reports false for an empty series or a zero first close.
func (h PriceHistory) Change(selected *PricePoint) (PeriodChange, bool) {
	if len(h) == 0 {
		return PeriodChange{}, false
	}
	first := h[0].Close
	if first.IsZero() {
		return PeriodChange{}, false
	}
	current := h[len(h)-1].Close
	if selected != nil {
		current = selected.Close
	}
	amount, err := current.Sub(first)
	if err != nil {
		return PeriodChange{}, false
	}
	pct, err := Percent(amount, first)
	if err != nil || pct == nil {
		return PeriodChange{}, false
	}
	return PeriodChange{Amount: amount, Percent: *pct}, true
}

// Range returns the y-axis bounds for a chart: the min and max close padded by
// a tenth of their span on each side, or [0, 100] for an empty series.
func (h PriceHistory) Range() (low, high Decimal) {
	if len(h) == 0 {
		return Zero, NewDecimalFromInt(100)
	}
	low, high = h[0].Close, h[0].Close
	for _, p := range h[1:] {
		if p.Close.Cmp(low) < 0 {
			low = p.Close
		}
		if p.Close.Cmp(high) > 0 {
			high = p.Close
		}
	}
	span, err := high.Sub(low)
	if err != nil {
		return low, high
	}
	padding, err := span.Div(NewDecimalFromInt(10))
	if err != nil {
		return low, high
	}
	paddedLow, err := low.Sub(padding)
	if err != nil {
		return low, high
	}
	paddedHigh, err := high.Add(padding)
	if err != nil {
		return low, high
	}
	return paddedLow, paddedHigh
}
