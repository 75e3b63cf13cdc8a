package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// ErrDivisionByZero is returned by Decimal.Div when the divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

// Decimal wraps apd.Decimal so share counts and prices keep exact arithmetic
// and serialize cleanly to JSON and SQL.
type Decimal struct {
	apd.Decimal
}

// DefaultContext is used for arithmetic operations.
var DefaultContext = apd.BaseContext.WithPrecision(20)

// Zero constant for convenience
var Zero = NewDecimalFromInt(0)

var hundred = NewDecimalFromInt(100)

// NewDecimalFromInt creates a Decimal from an int64
func NewDecimalFromInt(v int64) Decimal {
	d := Decimal{}
	d.SetInt64(v)
	return d
}

// NewDecimalFromString creates a Decimal from a string
func NewDecimalFromString(v string) (Decimal, error) {
	d := Decimal{}
	if _, _, err := d.SetString(v); err != nil {
		return d, fmt.Errorf("invalid decimal string %s: %w", v, err)
	}
	return d, nil
}

// NewDecimalFromFloat creates a Decimal from a float64. NaN and infinities are rejected.
func NewDecimalFromFloat(v float64) (Decimal, error) {
	d := Decimal{}
	if _, err := d.SetFloat64(v); err != nil {
		return d, fmt.Errorf("invalid decimal float %v: %w", v, err)
	}
	if d.Form != apd.Finite {
		return Zero, fmt.Errorf("invalid decimal float %v: not finite", v)
	}
	return d, nil
}

// MustDecimal parses s and panics on failure. Intended for constants and tests.
func MustDecimal(s string) Decimal {
	d, err := NewDecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String implements the fmt.Stringer interface.
func (d Decimal) String() string {
	return d.Decimal.String()
}

// Value implements the driver.Valuer interface for database serialization.
func (d Decimal) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (d *Decimal) Scan(value interface{}) error {
	if value == nil {
		d.SetInt64(0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		_, _, err := d.SetString(string(v))
		return err
	case string:
		_, _, err := d.SetString(v)
		return err
	case int64:
		d.SetInt64(v)
		return nil
	case float64:
		_, err := d.SetFloat64(v)
		return err
	default:
		return fmt.Errorf("unsupported type for Decimal scan: %T", value)
	}
}

// Arithmetic Helpers

func (d Decimal) Add(other Decimal) (Decimal, error) {
	res := Decimal{}
	if _, err := DefaultContext.Add(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("add operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) Sub(other Decimal) (Decimal, error) {
	res := Decimal{}
	if _, err := DefaultContext.Sub(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("sub operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) Mul(other Decimal) (Decimal, error) {
	res := Decimal{}
	if _, err := DefaultContext.Mul(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("mul operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) Div(other Decimal) (Decimal, error) {
	if other.IsZero() {
		return Zero, ErrDivisionByZero
	}
	res := Decimal{}
	if _, err := DefaultContext.Quo(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("div operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) IsZero() bool {
	return d.Decimal.IsZero()
}

// IsFinite reports whether d is an ordinary number rather than NaN or an infinity.
func (d Decimal) IsFinite() bool {
	return d.Form == apd.Finite
}

// IsNegative reports whether d < 0. Negative zero is not negative.
func (d Decimal) IsNegative() bool {
	return d.Sign() < 0
}

func (d Decimal) Equal(other Decimal) bool {
	return d.Decimal.Cmp(&other.Decimal) == 0
}

func (d Decimal) Cmp(other Decimal) int {
	return d.Decimal.Cmp(&other.Decimal)
}

// Float64 returns the nearest float64. Used for charting and display only.
func (d Decimal) Float64() float64 {
	f, err := d.Decimal.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Percent returns part / base * 100, or nil when base is zero.
func Percent(part, base Decimal) (*Decimal, error) {
	if base.IsZero() {
		return nil, nil
	}
	ratio, err := part.Div(base)
	if err != nil {
		return nil, err
	}
	pct, err := ratio.Mul(hundred)
	if err != nil {
		return nil, err
	}
	return &pct, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. Both bare and quoted
// numbers are accepted; null leaves the value untouched. NaN and infinities are
// rejected.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	var parsed Decimal
	if _, _, err := parsed.SetString(s); err != nil {
		return err
	}
	if !parsed.IsFinite() {
		return fmt.Errorf("invalid decimal %s: not finite", s)
	}
	*d = parsed
	return nil
}

// Round rounds the decimal half-up to the specified number of places.
func (d Decimal) Round(places int32) (Decimal, error) {
	res := Decimal{}
	ctx := apd.BaseContext.WithPrecision(20)
	ctx.Rounding = apd.RoundHalfUp

	// Quantize takes the target exponent: 10^-places.
	if _, err := ctx.Quantize(&res.Decimal, &d.Decimal, -places); err != nil {
		return res, fmt.Errorf("quantize operation failed: %w", err)
	}
	return res, nil
}

// NullDecimal is a Decimal that may be SQL NULL.
type NullDecimal struct {
	Decimal Decimal
	Valid   bool
}

// NewNullDecimal converts an optional Decimal into its nullable column form.
func NewNullDecimal(d *Decimal) NullDecimal {
	if d == nil {
		return NullDecimal{}
	}
	return NullDecimal{Decimal: *d, Valid: true}
}

// Ptr returns nil for NULL.
func (n NullDecimal) Ptr() *Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

// Scan implements the sql.Scanner interface.
func (n *NullDecimal) Scan(value interface{}) error {
	if value == nil {
		n.Decimal, n.Valid = Zero, false
		return nil
	}
	n.Valid = true
	return n.Decimal.Scan(value)
}

// Value implements the driver.Valuer interface.
func (n NullDecimal) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Decimal.Value()
}
