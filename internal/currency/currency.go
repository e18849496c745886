// Package currency converts between paise and rupee display strings and
// computes percentage amounts (GST, percentage coupons) with a single
// rounding rule: half away from zero, to the nearest paisa.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Code is the ISO currency code sent to the payment gateway
	Code           = "INR"
	// Symbol prefixes display strings
	Symbol         = "₹"
	// DefaultGSTRate is the GST percentage applied to taxable items
	DefaultGSTRate = 18

	minorExp = -2
)

var (
	hundred        = decimal.NewFromInt(100)
	displayTrimmer = strings.NewReplacer(Symbol, "", ",", "", " ", "")
)

// ToDisplay formats paise as an en-IN rupee string, e.g. 12345678 -> "₹1,23,456.78"
func ToDisplay(minor int64) string {
	fixed := decimal.New(minor, minorExp).Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	sign := ""
	if minor < 0 {
		sign = "-"
	}
	return sign + Symbol + groupIndian(whole) + "." + frac
}

// ToDecimalString formats paise as a plain two-place rupee amount, e.g. "1234.50"
func ToDecimalString(minor int64) string {
	return decimal.New(minor, minorExp).StringFixed(2)
}

// ToMinorUnits converts a rupee amount to paise, rounding to the nearest paisa
func ToMinorUnits(major decimal.Decimal) int64 {
	return major.Mul(hundred).Round(0).IntPart()
}

// ParseDisplay parses a display or plain decimal rupee string
func ParseDisplay(s string) (decimal.Decimal, error) {
	cleaned := displayTrimmer.Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Percentage returns round(minor * ratePercent / 100)
func Percentage(minor, ratePercent int64) int64 {
	return decimal.NewFromInt(minor).
		Mul(decimal.NewFromInt(ratePercent)).
		Div(hundred).
		Round(0).
		IntPart()
}

// ComputeTax returns the tax on minor at ratePercent
func ComputeTax(minor, ratePercent int64) int64 {
	return Percentage(minor, ratePercent)
}

// groupIndian inserts separators as 12,34,567: the last three digits, then pairs
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)

	return strings.Join(groups, ",") + "," + tail
}
