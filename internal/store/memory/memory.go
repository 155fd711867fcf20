package memory

import (
	"context"
	"encoding/json"
	"os"
	"slices"
	"sync"
	"time"

	"tracker/internal/core"
	"tracker/internal/store"
)

// Store keeps records in process memory. Ids start at 1.
type Store struct {
	mu     sync.Mutex
	items  []store.Record
	nextID int64
	now    func() time.Time
	closed bool
}

func New() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// NewFromFile seeds the store from a JSON array of transactions. A missing or
// unreadable file yields an empty store.
func NewFromFile(path string) *Store {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var seed []core.Transaction
	if err := json.Unmarshal(data, &seed); err != nil {
		return s
	}
	for _, t := range seed {
		if t.Currency == "" {
			t.Currency = core.USD
		}
		_, _ = s.Create(context.Background(), t)
	}
	return s
}

// Create stores the transaction and assigns the next id.
func (s *Store) Create(_ context.Context, t core.Transaction) (store.Record, error) {
	if err := t.Validate(); err != nil {
		return store.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Record{}, store.ErrClosed
	}
	rec := store.Record{ID: s.nextID, Transaction: t, CreatedAt: s.now().UTC()}
	s.nextID++
	s.items = append(s.items, rec)
	return rec, nil
}

// List returns a copy of every record in insertion order.
func (s *Store) List(_ context.Context) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return slices.Clone(s.items), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
