package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tracker/internal/core"
	"tracker/internal/store"
)

func TestCreateAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.Create(ctx, core.Transaction{Type: core.Earning, Title: "Salary", Amount: 1000, Date: core.NewDate(2024, 1, 1), Currency: core.USD})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.Create(ctx, core.Transaction{Type: core.Expense, Title: "Rent", Amount: 500, Date: core.NewDate(2024, 1, 2), Currency: core.USD})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != 1 || second.ID != 2 || first.CreatedAt.IsZero() {
		t.Fatalf("unexpected ids: %d %d", first.ID, second.ID)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Salary" || list[1].Title != "Rent" {
		t.Fatalf("unexpected list: %+v", list)
	}

	list[0].Title = "mutated"
	again, _ := s.List(ctx)
	if again[0].Title != "Salary" {
		t.Fatal("List must return a copy")
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Create(context.Background(), core.Transaction{Type: core.Earning, Amount: 1, Date: core.NewDate(2024, 1, 1), Currency: core.USD})
	if !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestClosed(t *testing.T) {
	s := New()
	_ = s.Close()
	if _, err := s.List(context.Background()); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[
		{"type": "earning", "title": "Salary", "amount": "1000.00", "date": "2024-01-01", "currency": "GBP"},
		{"type": "expense", "title": "Rent", "amount": 500, "date": "2024-01-02"}
	]`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFromFile(path)
	list, _ := s.List(context.Background())
	if len(list) != 2 {
		t.Fatalf("expected 2 seeded records, got %d", len(list))
	}
	if list[1].Currency != core.USD {
		t.Fatalf("missing currency should default to USD, got %q", list[1].Currency)
	}

	if empty, _ := NewFromFile(filepath.Join(t.TempDir(), "missing.json")).List(context.Background()); len(empty) != 0 {
		t.Fatal("missing seed file should give an empty store")
	}
}
