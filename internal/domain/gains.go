package domain

// Gains is a dollar gain paired with its percentage of the base it was earned on.
// PercentAmount is nil when the base is zero; displays render it as "—".
type Gains struct {
	DollarAmount  Decimal  `json:"dollar_amount"`
	PercentAmount *Decimal `json:"percent_amount"`
}

// NewGains builds a Gains whose percentage is dollar / base * 100.
func NewGains(dollar, base Decimal) (Gains, error) {
	pct, err := Percent(dollar, base)
	if err != nil {
		return Gains{}, err
	}
	return Gains{DollarAmount: dollar, PercentAmount: pct}, nil
}

// gainsOver derives gains from a current value and the dollar gain inside it,
// using value - dollar as the base.
func gainsOver(value, dollar Decimal) (Gains, error) {
	base, err := value.Sub(dollar)
	if err != nil {
		return Gains{}, err
	}
	return NewGains(dollar, base)
}

// IsPositive reports whether both amounts are non-negative. An undefined
// percentage does not make a gain negative.
func (g Gains) IsPositive() bool {
	if g.DollarAmount.IsNegative() {
		return false
	}
	return g.PercentAmount == nil || !g.PercentAmount.IsNegative()
}
