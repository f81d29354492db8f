package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

// BDT is the only settlement currency of the system (Bangladeshi Taka)
const BDT Currency = "BDT"

// MinorUnitPlaces is the number of minor-unit digits kept for every amount (poisha)
const MinorUnitPlaces int32 = 2

// Money is a fixed-point monetary amount in BDT.
// It is immutable - all operations return new Money instances. Amounts are
// normalised to MinorUnitPlaces so sums and differences never drift.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount, rounded to minor units
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount.Round(MinorUnitPlaces)}
}

// NewMoneyFromInt creates Money from whole taka
func NewMoneyFromInt(amount int64) Money {
	return NewMoney(decimal.NewFromInt(amount))
}

// NewMoneyFromMinor creates Money from an amount expressed in minor units
func NewMoneyFromMinor(minor int64) Money {
	return Money{amount: decimal.New(minor, -MinorUnitPlaces)}
}

// NewMoneyFromString parses a decimal string such as "1250.50"
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d), nil
}

// MustMoney parses a decimal string and panics on error. Intended for fixtures.
func MustMoney(amount string) Money {
	m, err := NewMoneyFromString(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return BDT
}

// MinorUnits returns the amount in minor units (1 taka = 100 poisha)
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(MinorUnitPlaces).IntPart()
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Subtract returns m - other
func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// ClampZero returns max(m, 0)
func (m Money) ClampZero() Money {
	if m.amount.IsNegative() {
		return Zero()
	}
	return m
}

// Negate returns the negated amount
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg()}
}

// Equals checks if two Money values are equal
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Cmp compares m and other: -1 if m < other, 0 if equal, +1 if m > other
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// LessThan checks if m < other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// GreaterThan checks if m > other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// String returns the amount with exactly two decimal places
func (m Money) String() string {
	return m.amount.StringFixed(MinorUnitPlaces)
}

// Sum adds up all amounts
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MarshalJSON encodes Money as a decimal string to avoid float rounding on clients
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string ("100.50") or a JSON number (100.5)
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Zero()
		return nil
	}
	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*m = NewMoney(d)
	return nil
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	switch v := value.(type) {
	case nil:
		d = decimal.Zero
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid decimal value: %w", err)
		}
		d = parsed
	case []byte:
		parsed, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("invalid decimal value: %w", err)
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	case int64:
		d = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	*m = NewMoney(d)
	return nil
}
