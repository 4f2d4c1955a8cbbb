package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errMalformedAmount = errors.New("malformed amount")

// ParseAmount converts a positive decimal with at most two fractional digits
// into minor units: "1200.5" -> 120050.
func ParseAmount(s string) (int64, error) {
	whole, frac, err := splitDecimal(s)
	if err != nil {
		return 0, err
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q has more than two decimal places", errMalformedAmount, s)
	}
	minor, err := toMinor(whole, frac)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, fmt.Errorf("%w: %q must be greater than zero", errMalformedAmount, s)
	}
	return minor, nil
}

// ParseDecimal is the lenient variant used for provider prices: extra
// fractional digits are rounded half up and zero is allowed.
func ParseDecimal(s string) (int64, error) {
	whole, frac, err := splitDecimal(s)
	if err != nil {
		return 0, err
	}
	roundUp := false
	if len(frac) > 2 {
		roundUp = frac[2] >= '5'
		frac = frac[:2]
	}
	minor, err := toMinor(whole, frac)
	if err != nil {
		return 0, err
	}
	if roundUp {
		if minor == math.MaxInt64 {
			return 0, fmt.Errorf("%w: %q is out of range", errMalformedAmount, s)
		}
		minor++
	}
	return minor, nil
}

// FormatAmount renders minor units with two decimals.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// SplitTotal derives base and taxes when a provider only reports a total:
// base is 80% of the total, taxes take the remainder.
func SplitTotal(total int64) (base, taxes int64) {
	base = total/100*80 + (total%100*80+50)/100
	return base, total - base
}

func splitDecimal(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("%w: empty", errMalformedAmount)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return "", "", fmt.Errorf("%w: %q", errMalformedAmount, s)
	}
	return whole, frac, nil
}

func toMinor(whole, frac string) (int64, error) {
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errMalformedAmount, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errMalformedAmount, err)
	}
	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("%w: %s.%s is out of range", errMalformedAmount, whole, frac)
	}
	return units*100 + cents, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
