package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/store"
)

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isHeader(cols []string) bool {
	return len(cols) > 0 && strings.EqualFold(cols[0], "ID")
}

func blank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func nextID(values [][]any) int64 {
	var max int64
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 {
			continue
		}
		if id, err := strconv.ParseInt(cols[0], 10, 64); err == nil && id > max {
			max = id
		}
	}
	return max + 1
}

// parseAmount accepts a decimal comma, as sheets in some locales render one.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	return d.InexactFloat64(), nil
}

func parseRow(cols []string) (store.Record, error) {
	if len(cols) < 5 {
		return store.Record{}, fmt.Errorf("expected at least 5 columns, got %d", len(cols))
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	if err != nil {
		return store.Record{}, fmt.Errorf("invalid id %q", cols[0])
	}
	kind, err := core.ParseKind(cols[1])
	if err != nil {
		return store.Record{}, err
	}
	amount, err := parseAmount(cols[3])
	if err != nil {
		return store.Record{}, err
	}
	date, err := core.ParseDate(cols[4])
	if err != nil {
		return store.Record{}, err
	}

	rec := store.Record{
		ID: id,
		Transaction: core.Transaction{
			Type:     kind,
			Title:    cols[2],
			Amount:   amount,
			Date:     date,
			Currency: core.USD,
		},
	}
	if len(cols) > 5 && cols[5] != "" {
		c, err := core.ParseCurrency(cols[5])
		if err != nil {
			return store.Record{}, err
		}
		rec.Currency = c
	}
	if len(cols) > 6 && cols[6] != "" {
		if ts, err := time.Parse(time.RFC3339, cols[6]); err == nil {
			rec.CreatedAt = ts
		}
	}
	return rec, nil
}
