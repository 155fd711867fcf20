// Package aggregate derives the board's display data from a transaction list.
//
// Every function here is pure: inputs are never mutated and no state is kept
// between calls, so the pipeline can run on every render.
package aggregate

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

// Row is one table line as shown to the user.
type Row struct {
	Date   string `json:"date"`
	Title  string `json:"title"`
	Amount string `json:"amount"`
}

// Summary is everything the two tables and their footers need.
type Summary struct {
	Currency      core.Currency      `json:"currency"`
	Sorted        []core.Transaction `json:"-"`
	Earnings      []Row              `json:"earnings"`
	Expenses      []Row              `json:"expenses"`
	TotalEarnings string             `json:"total_earnings"`
	TotalExpenses string             `json:"total_expenses"`
}

// SortByDateDesc returns a copy ordered most recent first. Records sharing a
// date keep their input order.
func SortByDateDesc(list []core.Transaction) []core.Transaction {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})
	return out
}

// Partition splits by type, keeping order within each side. Records of any
// other type land in neither.
func Partition(list []core.Transaction) (earnings, expenses []core.Transaction) {
	for _, t := range list {
		switch t.Type {
		case core.Earning:
			earnings = append(earnings, t)
		case core.Expense:
			expenses = append(expenses, t)
		}
	}
	return earnings, expenses
}

// Sum adds the amounts with Neumaier compensation so the result does not
// drift with the order of the list.
func Sum(list []core.Transaction) float64 {
	var sum, c float64
	for _, t := range list {
		v := t.Amount
		s := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			c += (sum - s) + v
		} else {
			c += (v - s) + sum
		}
		sum = s
	}
	return sum + c
}

// FormatAmount renders a value with exactly two decimals, rounding half away
// from zero on the shortest decimal form of the float (1000.005 -> "1000.01").
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

// Build runs sort, partition and sum and shapes the rows for display.
func Build(list []core.Transaction, currency core.Currency) Summary {
	sorted := SortByDateDesc(list)
	earnings, expenses := Partition(sorted)
	return Summary{
		Currency:      currency,
		Sorted:        sorted,
		Earnings:      rows(earnings),
		Expenses:      rows(expenses),
		TotalEarnings: FormatAmount(Sum(earnings)),
		TotalExpenses: FormatAmount(Sum(expenses)),
	}
}

func rows(list []core.Transaction) []Row {
	out := make([]Row, 0, len(list))
	for _, t := range list {
		out = append(out, Row{
			Date:   t.Date.Display(),
			Title:  t.Title,
			Amount: FormatAmount(t.Amount),
		})
	}
	return out
}
