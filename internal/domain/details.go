package domain

// HoldingDetails is the descriptive and market snapshot for a ticker.
// Every field is optional; nil means the quote service did not provide it.
type HoldingDetails struct {
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Sector           *string  `json:"sector,omitempty"`
	Industry         *string  `json:"industry,omitempty"`
	Country          *string  `json:"country,omitempty"`
	Website          *string  `json:"website,omitempty"`
	Employees        *int64   `json:"employees,omitempty"`
	MarketCap        *Decimal `json:"market_cap,omitempty"`
	PERatio          *Decimal `json:"pe_ratio,omitempty"`
	DividendYield    *Decimal `json:"dividend_yield,omitempty"`
	Beta             *Decimal `json:"beta,omitempty"`
	FiftyTwoWeekHigh *Decimal `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *Decimal `json:"fifty_two_week_low,omitempty"`
	PreviousClose    *Decimal `json:"previous_close,omitempty"`
	AverageVolume    *int64   `json:"average_volume,omitempty"`
}

// IsEmpty reports whether no field is set.
func (d HoldingDetails) IsEmpty() bool {
	return d == HoldingDetails{}
}
