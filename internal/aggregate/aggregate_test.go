package aggregate

import (
	"slices"
	"testing"

	"tracker/internal/core"
)

func tx(kind core.Kind, title string, amount float64, y, m, d int) core.Transaction {
	return core.Transaction{Type: kind, Title: title, Amount: amount, Date: core.NewDate(y, m, d), Currency: core.USD}
}

func titles(list []core.Transaction) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.Title)
	}
	return out
}

func TestSalaryAndRentScenario(t *testing.T) {
	list := []core.Transaction{
		tx(core.Earning, "Salary", 1000.005, 2024, 1, 1),
		tx(core.Expense, "Rent", 500, 2024, 1, 2),
	}
	s := Build(list, core.EUR)

	if got := titles(s.Sorted); !slices.Equal(got, []string{"Rent", "Salary"}) {
		t.Fatalf("sorted order = %v", got)
	}
	if s.TotalEarnings != "1000.01" {
		t.Fatalf("earnings total = %q, want 1000.01", s.TotalEarnings)
	}
	if s.TotalExpenses != "500.00" {
		t.Fatalf("expenses total = %q, want 500.00", s.TotalExpenses)
	}
	if s.Currency != core.EUR {
		t.Fatalf("currency label = %q", s.Currency)
	}
	if len(s.Earnings) != 1 || s.Earnings[0] != (Row{Date: "01/01/2024", Title: "Salary", Amount: "1000.01"}) {
		t.Fatalf("unexpected earnings rows: %+v", s.Earnings)
	}
	if len(s.Expenses) != 1 || s.Expenses[0] != (Row{Date: "02/01/2024", Title: "Rent", Amount: "500.00"}) {
		t.Fatalf("unexpected expenses rows: %+v", s.Expenses)
	}
}

func TestEmptyList(t *testing.T) {
	s := Build(nil, core.USD)
	if len(s.Earnings) != 0 || len(s.Expenses) != 0 || len(s.Sorted) != 0 {
		t.Fatalf("expected empty partitions: %+v", s)
	}
	if s.TotalEarnings != "0.00" || s.TotalExpenses != "0.00" {
		t.Fatalf("expected 0.00 totals, got %q / %q", s.TotalEarnings, s.TotalExpenses)
	}
	if Sum(nil) != 0 {
		t.Fatalf("Sum(nil) = %v", Sum(nil))
	}
}

func TestSortIsStableAndDoesNotMutate(t *testing.T) {
	list := []core.Transaction{
		tx(core.Expense, "A", 1, 2024, 3, 1),
		tx(core.Earning, "B", 2, 2024, 5, 1),
		tx(core.Expense, "C", 3, 2024, 3, 1),
		tx(core.Earning, "D", 4, 2023, 12, 31),
		tx(core.Expense, "E", 5, 2024, 3, 1),
	}
	before := slices.Clone(list)

	sorted := SortByDateDesc(list)

	if got := titles(sorted); !slices.Equal(got, []string{"B", "A", "C", "E", "D"}) {
		t.Fatalf("sorted = %v", got)
	}
	if !slices.Equal(titles(list), titles(before)) {
		t.Fatalf("input mutated: %v", titles(list))
	}
	if len(sorted) != len(list) {
		t.Fatalf("length changed: %d vs %d", len(sorted), len(list))
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.After(sorted[i-1].Date.Time) {
			t.Fatalf("not date-descending at %d: %v after %v", i, sorted[i].Date, sorted[i-1].Date)
		}
	}
}

func TestPartitionIsDisjointCover(t *testing.T) {
	list := SortByDateDesc([]core.Transaction{
		tx(core.Expense, "Rent", 500, 2024, 1, 2),
		tx(core.Earning, "Salary", 1000, 2024, 1, 1),
		tx(core.Expense, "Food", 20, 2024, 1, 3),
		tx(core.Earning, "Bonus", 50, 2024, 1, 4),
	})
	earnings, expenses := Partition(list)

	if len(earnings)+len(expenses) != len(list) {
		t.Fatalf("partition dropped records: %d + %d != %d", len(earnings), len(expenses), len(list))
	}
	for _, e := range earnings {
		if e.Type != core.Earning {
			t.Fatalf("expense in earnings: %+v", e)
		}
	}
	for _, e := range expenses {
		if e.Type != core.Expense {
			t.Fatalf("earning in expenses: %+v", e)
		}
	}
	if got := titles(earnings); !slices.Equal(got, []string{"Bonus", "Salary"}) {
		t.Fatalf("earnings order = %v", got)
	}
	if got := titles(expenses); !slices.Equal(got, []string{"Food", "Rent"}) {
		t.Fatalf("expenses order = %v", got)
	}
}

func TestSumOrderDoesNotChangeRoundedTotal(t *testing.T) {
	amounts := []float64{0.1, 0.2, 0.3, 0.7, 1.15, 1e6, 19.99}
	var want string
	perms := [][]int{
		{0, 1, 2, 3, 4, 5, 6},
		{6, 5, 4, 3, 2, 1, 0},
		{5, 0, 6, 1, 4, 2, 3},
		{2, 4, 6, 0, 1, 3, 5},
	}
	for i, p := range perms {
		var list []core.Transaction
		for _, idx := range p {
			list = append(list, tx(core.Expense, "x", amounts[idx], 2024, 1, 1))
		}
		got := FormatAmount(Sum(list))
		if i == 0 {
			want = got
			continue
		}
		if got != want {
			t.Fatalf("permutation %d total %q, want %q", i, got, want)
		}
	}
	if want != "1000022.44" {
		t.Fatalf("total = %q, want 1000022.44", want)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{500, "500.00"},
		{1.005, "1.01"},
		{2.675, "2.68"},
		{1.004, "1.00"},
		{-1.005, "-1.01"},
		{-0.001, "0.00"},
		{12.3, "12.30"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	list := []core.Transaction{
		tx(core.Earning, "Salary", 1000.005, 2024, 1, 1),
		tx(core.Expense, "Rent", 500, 2024, 1, 2),
		tx(core.Expense, "Food", 12.5, 2024, 1, 2),
	}
	a := Build(list, core.USD)
	b := Build(list, core.USD)
	if !slices.Equal(titles(a.Sorted), titles(b.Sorted)) {
		t.Fatalf("sorted differs: %v vs %v", titles(a.Sorted), titles(b.Sorted))
	}
	if a.TotalEarnings != b.TotalEarnings || a.TotalExpenses != b.TotalExpenses {
		t.Fatalf("totals differ: %+v vs %+v", a, b)
	}
	if !slices.Equal(a.Expenses, b.Expenses) {
		t.Fatalf("rows differ: %v vs %v", a.Expenses, b.Expenses)
	}
}
