package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date without a time component.
// The zero value represents "no date".
type Date struct {
	t time.Time
}

// NewDate creates a date from its components
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in the timestamp's location
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustDate parses a YYYY-MM-DD string and panics on error. Intended for fixtures.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns the date as UTC midnight
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// AddDays returns a new date n days later (earlier for negative n)
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before other
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly after other
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether both dates denote the same day
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// String returns the YYYY-MM-DD form, or "" for the zero date
func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// DaysRemaining returns the whole days left until end, rounded up and never negative.
// An end date already in the past reports zero.
func DaysRemaining(end Date, now time.Time) int {
	seconds := end.t.Sub(now).Seconds()
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds / secondsPerDay))
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if d.t.IsZero() {
		return nil, nil
	}
	return d.t, nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v.UTC())
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) >= len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
