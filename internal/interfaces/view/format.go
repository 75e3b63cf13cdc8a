package view

import (
	"strconv"

	"github.com/Rhymond/go-money"

	"github.com/jmanzanog/stonk/internal/domain"
)

// Absent is shown for every missing value and undefined percentage.
const Absent = "—"

// EmptyTotal is shown instead of a total for a portfolio without holdings.
const EmptyTotal = "$ ---"

var (
	trillion = domain.NewDecimalFromInt(1_000_000_000_000)
	billion  = domain.NewDecimalFromInt(1_000_000_000)
	million  = domain.NewDecimalFromInt(1_000_000)
	thousand = domain.NewDecimalFromInt(1_000)
	cents    = domain.NewDecimalFromInt(100)
)

// Currency formats d as US dollars, e.g. "$1,234.56" or "-$3.10".
func Currency(d domain.Decimal) string {
	minor, err := minorUnits(d)
	if err != nil {
		return Absent
	}
	return money.New(minor, money.USD).Display()
}

func OptionalCurrency(d *domain.Decimal) string {
	if d == nil {
		return Absent
	}
	return Currency(*d)
}

// SignedCurrency prefixes "+" when positive is set.
func SignedCurrency(d domain.Decimal, positive bool) string {
	s := Currency(d)
	if positive && s != Absent {
		return "+" + s
	}
	return s
}

// Percent renders a two-decimal percentage, e.g. "12.50%".
func Percent(p *domain.Decimal) string {
	if p == nil {
		return Absent
	}
	s, ok := fixed(*p, 2)
	if !ok {
		return Absent
	}
	return s + "%"
}

func SignedPercent(p *domain.Decimal, positive bool) string {
	s := Percent(p)
	if positive && s != Absent {
		return "+" + s
	}
	return s
}

// GainsAmount renders the dollar side of g with its sign.
func GainsAmount(g domain.Gains) string {
	return SignedCurrency(g.DollarAmount, g.IsPositive())
}

// GainsPercent renders the percent side of g, or Absent when undefined.
func GainsPercent(g domain.Gains) string {
	return SignedPercent(g.PercentAmount, g.IsPositive())
}

// Number renders d with a fixed number of decimals.
func Number(d *domain.Decimal, places int32) string {
	if d == nil {
		return Absent
	}
	s, ok := fixed(*d, places)
	if !ok {
		return Absent
	}
	return s
}

// MarketCap abbreviates with T, B or M, e.g. "$2.85T".
func MarketCap(d *domain.Decimal) string {
	if d == nil {
		return Absent
	}
	for _, unit := range []struct {
		size   domain.Decimal
		suffix string
	}{
		{trillion, "T"},
		{billion, "B"},
		{million, "M"},
	} {
		if d.Cmp(unit.size) >= 0 {
			return "$" + scaled(*d, unit.size, 2) + unit.suffix
		}
	}
	return Currency(*d)
}

// Volume abbreviates with M (two decimals) or K (one decimal).
func Volume(v *int64) string {
	if v == nil {
		return Absent
	}
	d := domain.NewDecimalFromInt(*v)
	switch {
	case d.Cmp(million) >= 0:
		return scaled(d, million, 2) + "M"
	case d.Cmp(thousand) >= 0:
		return scaled(d, thousand, 1) + "K"
	default:
		return strconv.FormatInt(*v, 10)
	}
}

func Employees(v *int64) string {
	if v == nil {
		return Absent
	}
	return strconv.FormatInt(*v, 10)
}

func Text(s *string) string {
	if s == nil || *s == "" {
		return Absent
	}
	return *s
}

func scaled(d, unit domain.Decimal, places int32) string {
	q, err := d.Div(unit)
	if err != nil {
		return Absent
	}
	s, ok := fixed(q, places)
	if !ok {
		return Absent
	}
	return s
}

func fixed(d domain.Decimal, places int32) (string, bool) {
	r, err := d.Round(places)
	if err != nil {
		return "", false
	}
	if r.IsZero() {
		r.Negative = false
	}
	return r.String(), true
}

func minorUnits(d domain.Decimal) (int64, error) {
	r, err := d.Round(2)
	if err != nil {
		return 0, err
	}
	m, err := r.Mul(cents)
	if err != nil {
		return 0, err
	}
	return m.Int64()
}
