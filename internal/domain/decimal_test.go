package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestNewDecimalFromString(t *testing.T) {
	testCases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"185.50", "185.50", false},
		{"-3.1", "-3.1", false},
		{"0", "0", false},
		{"1e3", "1E+3", false},
		{"", "", true},
		{"$12", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			d, err := NewDecimalFromString(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.String() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, d)
			}
		})
	}
}

func TestDecimal_Arithmetic(t *testing.T) {
	testCases := []struct {
		name string
		op   func(a, b Decimal) (Decimal, error)
		a, b string
		want string
	}{
		{"add lots", Decimal.Add, "10", "15", "25"},
		{"add cents", Decimal.Add, "0.10", "0.20", "0.30"},
		{"sub below zero", Decimal.Sub, "150", "185.50", "-35.50"},
		{"mul value", Decimal.Mul, "10", "185.50", "1855.00"},
		{"mul fractional shares", Decimal.Mul, "0.5", "410.10", "205.050"},
		{"div average", Decimal.Div, "3000", "20", "150"},
		{"div repeating", Decimal.Div, "1", "3", "0.33333333333333333333"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op(MustDecimal(tc.a), MustDecimal(tc.b))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(MustDecimal(tc.want)) {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDecimal_Div_ByZero(t *testing.T) {
	_, err := NewDecimalFromInt(10).Div(Zero)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestDecimal_Compare(t *testing.T) {
	a, b := MustDecimal("100.0"), MustDecimal("100")
	if !a.Equal(b) || a.Cmp(b) != 0 {
		t.Error("expected 100.0 to equal 100")
	}
	if MustDecimal("99.99").Cmp(b) != -1 || MustDecimal("100.01").Cmp(b) != 1 {
		t.Error("unexpected ordering around 100")
	}
	if !MustDecimal("0.00").IsZero() || MustDecimal("0.01").IsZero() {
		t.Error("unexpected IsZero result")
	}
}

func TestDecimal_JSON(t *testing.T) {
	type lot struct {
		Shares Decimal `json:"shares"`
		Price  Decimal `json:"price"`
	}

	data, err := json.Marshal(lot{Shares: NewDecimalFromInt(10), Price: MustDecimal("185.50")})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"shares":10,"price":185.50}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var parsed lot
	if err := json.Unmarshal([]byte(`{"shares":"2.5","price":null}`), &parsed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !parsed.Shares.Equal(MustDecimal("2.5")) || !parsed.Price.IsZero() {
		t.Errorf("unexpected lot %+v", parsed)
	}

	if err := json.Unmarshal([]byte(`{"shares":"lots"}`), &parsed); err == nil {
		t.Error("expected error for non-numeric shares")
	}

	for _, raw := range []string{`"NaN"`, `"Infinity"`, `"-Infinity"`, `"inf"`} {
		var d Decimal
		if err := json.Unmarshal([]byte(raw), &d); err == nil {
			t.Errorf("expected error for %s, got %s", raw, d)
		}
	}
}

func TestDecimal_IsFinite(t *testing.T) {
	if !MustDecimal("185.50").IsFinite() || !Zero.IsFinite() {
		t.Error("expected ordinary numbers to be finite")
	}
	for _, s := range []string{"NaN", "Infinity", "-Infinity"} {
		if MustDecimal(s).IsFinite() {
			t.Errorf("expected %s to be non-finite", s)
		}
	}
}

func TestDecimal_SQL(t *testing.T) {
	v, err := MustDecimal("185.50").Value()
	if err != nil || v != "185.50" {
		t.Errorf("expected driver value 185.50, got %v (%v)", v, err)
	}

	testCases := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{"nil", nil, "0", false},
		{"bytes", []byte("123.45"), "123.45", false},
		{"string", "678.90", "678.90", false},
		{"int64", int64(100), "100", false},
		{"float64", float64(123.45), "123.45", false},
		{"bool", true, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d Decimal
			err := d.Scan(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if d.String() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, d)
			}
		})
	}
}

func TestDecimal_Round(t *testing.T) {
	testCases := []struct {
		value  string
		places int32
		want   string
	}{
		{"123.456", 2, "123.46"},
		{"2.345", 2, "2.35"},
		{"-1.005", 2, "-1.01"},
		{"100.5", 0, "101"},
		{"150", 2, "150.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			got, err := MustDecimal(tc.value).Round(tc.places)
			if err != nil {
				t.Fatalf("Round failed: %v", err)
			}
			if got.String() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNewDecimalFromFloat(t *testing.T) {
	d, err := NewDecimalFromFloat(185.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(MustDecimal("185.5")) {
		t.Errorf("expected 185.5, got %s", d)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := NewDecimalFromFloat(bad); err == nil {
			t.Errorf("expected error for %v", bad)
		}
	}
}

func TestDecimal_Float64(t *testing.T) {
	if got := MustDecimal("123.25").Float64(); got != 123.25 {
		t.Errorf("expected 123.25, got %v", got)
	}
}

func TestDecimal_IsNegative(t *testing.T) {
	if !NewDecimalFromInt(-1).IsNegative() {
		t.Error("expected -1 to be negative")
	}
	if Zero.IsNegative() || NewDecimalFromInt(1).IsNegative() {
		t.Error("expected 0 and 1 to be non-negative")
	}
}

// --- Percent Tests ---

func TestPercent(t *testing.T) {
	pct, err := Percent(NewDecimalFromInt(25), NewDecimalFromInt(200))
	if err != nil {
		t.Fatalf("Percent failed: %v", err)
	}
	if pct == nil || !pct.Equal(MustDecimal("12.5")) {
		t.Errorf("expected 12.5, got %v", pct)
	}

	pct, err = Percent(NewDecimalFromInt(25), Zero)
	if err != nil {
		t.Fatalf("Percent failed: %v", err)
	}
	if pct != nil {
		t.Errorf("expected nil percent for zero base, got %s", pct)
	}
}

// --- NullDecimal Tests ---

func TestNullDecimal_ScanAndValue(t *testing.T) {
	var n NullDecimal
	if err := n.Scan(nil); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if n.Valid || n.Ptr() != nil {
		t.Error("expected NULL to scan as invalid")
	}
	v, err := n.Value()
	if err != nil || v != nil {
		t.Errorf("expected nil driver value, got %v (%v)", v, err)
	}

	if err := n.Scan("42.10"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !n.Valid || !n.Ptr().Equal(MustDecimal("42.10")) {
		t.Errorf("expected 42.10, got %v", n.Ptr())
	}

	d := MustDecimal("7")
	if got := NewNullDecimal(&d); !got.Valid || !got.Decimal.Equal(d) {
		t.Errorf("expected valid 7, got %+v", got)
	}
	if got := NewNullDecimal(nil); got.Valid {
		t.Error("expected nil pointer to map to NULL")
	}
}
