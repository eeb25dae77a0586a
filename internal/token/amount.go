package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not non-negative integers
// fitting in uint256.
var ErrInvalidAmount = errors.New("invalid amount")

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseUint256 parses a base-10 integer string in [0, 2^256).
func ParseUint256(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a base-10 integer", ErrInvalidAmount, s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	if n.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: %q overflows uint256", ErrInvalidAmount, s)
	}
	return n, nil
}

// ToBaseUnits scales a human amount such as "1.5" by 10^decimals. Amounts
// with more fractional digits than decimals are rejected.
func ToBaseUnits(human string, decimals uint8) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(human))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAmount, human, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("%w: %q is negative", ErrInvalidAmount, human)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return "", fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, human, decimals)
	}
	n := scaled.BigInt()
	if n.Cmp(maxUint256) > 0 {
		return "", fmt.Errorf("%w: %q overflows uint256", ErrInvalidAmount, human)
	}
	return n.String(), nil
}

// FormatUnits renders a base-unit integer string in human units. Input that
// does not parse is returned unchanged.
func FormatUnits(base string, decimals uint8) string {
	n, ok := new(big.Int).SetString(base, 10)
	if !ok {
		return base
	}
	return decimal.NewFromBigInt(n, -int32(decimals)).String()
}
