package main

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// parseUnits converts a decimal token amount such as "1.5" into base
// units for a token with the given decimals.
func parseUnits(s string, decimals uint8) (types.Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Amount{}, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return types.Amount{}, fmt.Errorf("negative amount")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return types.Amount{}, fmt.Errorf("too many decimal places (max %d)", decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}

	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return types.Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return types.AmountFromUint256(v)
}

// formatUnits renders base units with the token's decimals, trimming
// trailing zeros of the fraction.
func formatUnits(a types.Amount, decimals uint8) string {
	s := a.String()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
