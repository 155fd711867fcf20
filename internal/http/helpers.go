package http

import (
	"errors"
	"strings"
	"time"

	"tracker/internal/core"
)

const readHeaderTimeout = 10 * time.Second

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func fieldNotice(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidKind):
		return "Please choose earning or expense"
	case errors.Is(err, core.ErrInvalidCurrency):
		return "Please choose a supported currency"
	default:
		return "Please check the transaction details"
	}
}
