// Package store defines the persistence port behind the development
// transaction store. Backends live in the subpackages.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tracker/internal/core"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")

// Record is a persisted transaction with the fields the store assigns.
type Record struct {
	ID int64 `json:"id"`
	core.Transaction
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalJSON decodes the store fields next to the embedded transaction,
// whose own decoder would otherwise take over the whole object.
func (r *Record) UnmarshalJSON(data []byte) error {
	var meta struct {
		ID        int64     `json:"id"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	var t core.Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	*r = Record{ID: meta.ID, Transaction: t, CreatedAt: meta.CreatedAt}
	return nil
}

// Transactions strips the store fields.
func Transactions(records []Record) []core.Transaction {
	out := make([]core.Transaction, len(records))
	for i, r := range records {
		out[i] = r.Transaction
	}
	return out
}

// Ports for outbound adapters.
type (
	// Writer persists one transaction and returns it as stored.
	Writer interface {
		Create(ctx context.Context, t core.Transaction) (Record, error)
	}

	// Lister returns every record in insertion order.
	Lister interface {
		List(ctx context.Context) ([]Record, error)
	}

	Backend interface {
		Writer
		Lister
		Close() error
	}
)
