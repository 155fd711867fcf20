// Package core holds the transaction entity and the parsing rules shared by
// the board, the remote client and the development store.
//
// This file contains the amount parser used on user-entered text.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user-entered text into a float amount.
//
// The whole string must be a number: "12abc" is rejected rather than read as
// 12, and so are NaN and infinities. Sign is not constrained.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount(" 500 ")  -> 500, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}
