package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// MaxAmountCents is the exclusive bound imposed by a decimal(10,2) column.
const MaxAmountCents = 100_000_000_00

// DateLayout is the wire and storage layout of a Date.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidAmount is returned for amounts that do not fit decimal(10,2).
	ErrInvalidAmount = errors.New("amount must be a decimal number with at most 2 fraction digits")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
)

// Amount is a money value in cents.
// It encodes to JSON as a two-decimal string ("12.50") and decodes from a number or a string.
type Amount int64

// maxExponent bounds the exponent accepted in forms such as "1.25e1".
const maxExponent = 32

// ParseAmount parses a decimal such as "12", "-3.5", "12.50" or "1.25e1".
// The value must be exact to the cent.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if i := strings.IndexAny(s, "eE"); i >= 0 {
		var ok bool
		if s, ok = expandExponent(s[:i], s[i+1:]); !ok {
			return 0, ErrInvalidAmount
		}
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	if hasDot && frac == "" {
		return 0, ErrInvalidAmount
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > 2 || !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, ErrInvalidAmount
	}
	if len(whole) > 8 {
		whole = strings.TrimLeft(whole, "0")
		if len(whole) > 8 {
			return 0, ErrInvalidAmount
		}
	}
	for len(frac) < 2 {
		frac += "0"
	}

	var w int64
	if whole != "" {
		var err error
		if w, err = strconv.ParseInt(whole, 10, 64); err != nil {
			return 0, ErrInvalidAmount
		}
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := w*100 + f
	if cents >= MaxAmountCents {
		return 0, ErrInvalidAmount
	}
	if neg {
		cents = -cents
	}
	return Amount(cents), nil
}

// expandExponent rewrites mantissa×10^exp as a plain decimal.
func expandExponent(mantissa, exp string) (string, bool) {
	e, err := strconv.Atoi(exp)
	if err != nil || e < -maxExponent || e > maxExponent {
		return "", false
	}
	whole, frac, _ := strings.Cut(mantissa, ".")
	digits := whole + frac
	if digits == "" || !digitsOnly(digits) {
		return "", false
	}

	point := len(whole) + e
	switch {
	case point <= 0:
		return "0." + strings.Repeat("0", -point) + digits, true
	case point >= len(digits):
		return digits + strings.Repeat("0", point-len(digits)), true
	default:
		return digits[:point] + "." + digits[point:], true
	}
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String formats the amount with exactly two fraction digits.
func (a Amount) String() string {
	cents := int64(a)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) < 2 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + frac
}

// Float64 returns the amount in currency units, for binding to numeric columns.
func (a Amount) Float64() float64 {
	return float64(a) / 100
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return ErrInvalidAmount
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidAmount
		}
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Date is a calendar date in YYYY-MM-DD form.
type Date string

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return Date(t.Format(DateLayout)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
