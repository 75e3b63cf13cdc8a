package domain

import (
	"errors"
	"testing"
)

func newTestPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	p, err := NewPortfolio("Retirement")
	if err != nil {
		t.Fatalf("NewPortfolio failed: %v", err)
	}
	return p
}

func TestNewPortfolio_RequiresName(t *testing.T) {
	if _, err := NewPortfolio("   "); !errors.Is(err, ErrInvalidPortfolio) {
		t.Errorf("expected ErrInvalidPortfolio, got %v", err)
	}
}

func TestPortfolio_AddHolding_Appends(t *testing.T) {
	portfolio := newTestPortfolio(t)
	h := newTestHolding(t, "AAPL", 10, 100)

	resident, appended, err := portfolio.AddHolding(h)
	if err != nil {
		t.Fatalf("Failed to add holding: %v", err)
	}
	if !appended || resident != h {
		t.Error("expected new holding to be appended as-is")
	}
	if portfolio.NumHoldings() != 1 || portfolio.IsEmpty() {
		t.Errorf("Expected 1 holding, got %d", portfolio.NumHoldings())
	}
}

func TestPortfolio_AddHolding_MergesWeightedAverage(t *testing.T) {
	tests := []struct {
		name      string
		first     [2]int64
		second    [2]int64
		wantShare int64
		wantAvg   int64
	}{
		{"equal lots", [2]int64{10, 100}, [2]int64{10, 200}, 20, 150},
		{"unequal lots", [2]int64{5, 100}, [2]int64{15, 300}, 20, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			portfolio := newTestPortfolio(t)
			first := newTestHolding(t, "AAPL", tt.first[0], tt.first[1])
			if _, _, err := portfolio.AddHolding(first); err != nil {
				t.Fatal(err)
			}

			resident, appended, err := portfolio.AddHolding(newTestHolding(t, "aapl", tt.second[0], tt.second[1]))
			if err != nil {
				t.Fatal(err)
			}
			if appended {
				t.Error("expected merge, got append")
			}
			if resident != first {
				t.Error("expected the existing holding to carry the merged position")
			}
			if portfolio.NumHoldings() != 1 {
				t.Fatalf("Expected 1 holding, got %d", portfolio.NumHoldings())
			}
			if !resident.NumShares().Equal(NewDecimalFromInt(tt.wantShare)) {
				t.Errorf("expected %d shares, got %s", tt.wantShare, resident.NumShares())
			}
			if !resident.AveragePrice().Equal(NewDecimalFromInt(tt.wantAvg)) {
				t.Errorf("expected average %d, got %s", tt.wantAvg, resident.AveragePrice())
			}
		})
	}
}

func TestPortfolio_AddHolding_MergeKeepsLastPrice(t *testing.T) {
	portfolio := newTestPortfolio(t)
	first := newTestHolding(t, "AAPL", 10, 100)
	first.SetLastPrice(NewDecimalFromInt(180))
	portfolio.AddHolding(first)

	resident, _, _ := portfolio.AddHolding(newTestHolding(t, "AAPL", 1, 100))
	if !resident.LastPrice().Equal(NewDecimalFromInt(180)) {
		t.Errorf("expected last price to be kept, got %s", resident.LastPrice())
	}
}

func TestPortfolio_AddHolding_Nil(t *testing.T) {
	portfolio := newTestPortfolio(t)
	if _, _, err := portfolio.AddHolding(nil); !errors.Is(err, ErrInvalidHolding) {
		t.Errorf("expected ErrInvalidHolding, got %v", err)
	}
}

func TestPortfolio_RemoveHolding(t *testing.T) {
	portfolio := newTestPortfolio(t)
	portfolio.AddHolding(newTestHolding(t, "AAPL", 1, 100))
	portfolio.AddHolding(newTestHolding(t, "MSFT", 1, 100))
	portfolio.AddHolding(newTestHolding(t, "GOOG", 1, 100))

	if err := portfolio.RemoveHolding("msft"); err != nil {
		t.Fatalf("Failed to remove holding: %v", err)
	}

	holdings := portfolio.Holdings()
	if len(holdings) != 2 || holdings[0].Ticker() != "AAPL" || holdings[1].Ticker() != "GOOG" {
		t.Errorf("unexpected holdings after removal: %v", holdings)
	}

	if err := portfolio.RemoveHolding("MSFT"); !errors.Is(err, ErrHoldingNotFound) {
		t.Errorf("expected ErrHoldingNotFound, got %v", err)
	}
}

func TestPortfolio_Holding(t *testing.T) {
	portfolio := newTestPortfolio(t)
	h := newTestHolding(t, "AAPL", 1, 100)
	portfolio.AddHolding(h)

	got, err := portfolio.Holding("aapl")
	if err != nil || got != h {
		t.Errorf("expected to find AAPL, got %v (%v)", got, err)
	}
	if _, err := portfolio.Holding("TSLA"); !errors.Is(err, ErrHoldingNotFound) {
		t.Errorf("expected ErrHoldingNotFound, got %v", err)
	}
}

func TestPortfolio_TotalsAndGains(t *testing.T) {
	portfolio := newTestPortfolio(t)

	aapl := newTestHolding(t, "AAPL", 10, 100)
	aapl.SetLastPrice(NewDecimalFromInt(150))
	msft := newTestHolding(t, "MSFT", 5, 200)
	msft.SetLastPrice(NewDecimalFromInt(100))
	portfolio.AddHolding(aapl)
	portfolio.AddHolding(msft)

	value, err := portfolio.TotalValue()
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(NewDecimalFromInt(2000)) {
		t.Errorf("Expected total value 2000, got %s", value)
	}

	cost, err := portfolio.CostBasis()
	if err != nil {
		t.Fatal(err)
	}
	if !cost.Equal(NewDecimalFromInt(2000)) {
		t.Errorf("Expected cost basis 2000, got %s", cost)
	}

	// +500 on AAPL, -500 on MSFT
	g, err := portfolio.Gains()
	if err != nil {
		t.Fatal(err)
	}
	if !g.DollarAmount.IsZero() {
		t.Errorf("Expected zero dollar gains, got %s", g.DollarAmount)
	}
	if g.PercentAmount == nil || !g.PercentAmount.IsZero() {
		t.Errorf("Expected zero percent, got %v", g.PercentAmount)
	}
}

func TestPortfolio_DailyGains(t *testing.T) {
	portfolio := newTestPortfolio(t)
	h := newTestHolding(t, "AAPL", 10, 100)
	h.SetLastPrice(NewDecimalFromInt(110))
	h.ApplyDetails(HoldingDetails{PreviousClose: decPtr("100")})
	portfolio.AddHolding(h)
	portfolio.AddHolding(newTestHolding(t, "MSFT", 1, 100)) // unpriced, no previous close

	g, err := portfolio.DailyGains()
	if err != nil {
		t.Fatal(err)
	}
	if !g.DollarAmount.Equal(NewDecimalFromInt(100)) {
		t.Errorf("expected daily dollar 100, got %s", g.DollarAmount)
	}
	if g.PercentAmount == nil || !g.PercentAmount.Equal(NewDecimalFromInt(10)) {
		t.Errorf("expected daily percent 10, got %v", g.PercentAmount)
	}
}

func TestPortfolio_Empty(t *testing.T) {
	portfolio := newTestPortfolio(t)

	if !portfolio.IsEmpty() {
		t.Error("expected empty portfolio")
	}
	value, err := portfolio.TotalValue()
	if err != nil || !value.IsZero() {
		t.Errorf("expected zero total value, got %s (%v)", value, err)
	}
	g, err := portfolio.Gains()
	if err != nil {
		t.Fatalf("expected no error for empty gains, got %v", err)
	}
	if g.PercentAmount != nil {
		t.Errorf("expected undefined percent, got %s", g.PercentAmount)
	}
}

func TestPortfolios_Aggregate(t *testing.T) {
	a := newTestPortfolio(t)
	ah := newTestHolding(t, "AAPL", 10, 100)
	ah.SetLastPrice(NewDecimalFromInt(120))
	a.AddHolding(ah)

	b, _ := NewPortfolio("Brokerage")
	bh := newTestHolding(t, "MSFT", 10, 100)
	bh.SetLastPrice(NewDecimalFromInt(130))
	b.AddHolding(bh)

	all := Portfolios{a, b}
	value, err := all.TotalValue()
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(NewDecimalFromInt(2500)) {
		t.Errorf("expected 2500, got %s", value)
	}

	g, err := all.Gains()
	if err != nil {
		t.Fatal(err)
	}
	if !g.DollarAmount.Equal(NewDecimalFromInt(500)) {
		t.Errorf("expected 500, got %s", g.DollarAmount)
	}
	if !g.PercentAmount.Equal(NewDecimalFromInt(25)) {
		t.Errorf("expected 25, got %s", g.PercentAmount)
	}
}
