// Package units converts between minimal-denomination integers and the
// decimal strings people type and read.
package units

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/params"
)

// maxIntegerDigits is the length of the largest uint256 in decimal.
const maxIntegerDigits = 78

var amountPattern = regexp.MustCompile(`^([0-9]*)(?:\.([0-9]*))?$`)

// ParseAmount parses a decimal TUR amount such as "1.5" into minimal units.
// The conversion is exact: inputs with more than params.Decimals fractional
// digits are rejected rather than rounded.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: amount is empty", turing.ErrInvalidInput)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: amount %q is negative", turing.ErrInvalidInput, s)
	}
	m := amountPattern.FindStringSubmatch(s)
	if m == nil || m[1]+m[2] == "" {
		return nil, fmt.Errorf("%w: amount %q is not a number", turing.ErrInvalidInput, s)
	}
	if len(strings.TrimLeft(m[1], "0")) > maxIntegerDigits {
		return nil, fmt.Errorf("%w: amount %q overflows uint256", turing.ErrInvalidInput, s)
	}
	if len(strings.TrimRight(m[2], "0")) > params.Decimals {
		return nil, fmt.Errorf("%w: amount %q has more than %d decimal places", turing.ErrInvalidInput, s, params.Decimals)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a number", turing.ErrInvalidInput, s)
	}
	scaled := d.Shift(params.Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: amount %q has more than %d decimal places", turing.ErrInvalidInput, s, params.Decimals)
	}
	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: amount %q overflows uint256", turing.ErrInvalidInput, s)
	}
	return v, nil
}

// FormatAmount renders minimal units as a decimal TUR string with trailing
// zeros trimmed, e.g. 1500000000000000000 -> "1.5". A nil amount renders as "0".
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -params.Decimals).String()
}
