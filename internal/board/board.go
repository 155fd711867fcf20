// Package board holds the transaction board's state: the list last received
// from the store and the pending input for the next transaction.
//
// Writes follow a round trip: Submit creates the record remotely and then
// re-fetches the full list. Nothing is appended locally, because the store
// may alter the record on the way in.
package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/core"
	"tracker/internal/log"
)

// Store is the remote collection the board reads from and writes to.
type Store interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) error
}

// Form is the pending input. Title, Amount and Date hold raw user text.
type Form struct {
	Type     core.Kind
	Title    string
	Amount   string
	Date     string
	Currency core.Currency
}

// Board is the single owner of the view state. The mutex only guards field
// access; it is never held across a network call, so overlapping refreshes
// simply overwrite each other in arrival order.
type Board struct {
	store  Store
	logger *log.Logger
	now    func() time.Time

	mu           sync.Mutex
	transactions []core.Transaction
	form         Form
	loaded       bool
}

type Option func(*Board)

func WithLogger(l *log.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l.WithComponent(log.ComponentBoard)
		}
	}
}

// WithClock sets the source of "today" for the date field default.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

func New(store Store, opts ...Option) *Board {
	b := &Board{
		store:  store,
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.form = Form{
		Type:     core.Earning,
		Date:     b.today(),
		Currency: core.USD,
	}
	return b
}

// SetField updates exactly one pending field. Type and currency must be one
// of their enumerated values; the text fields accept anything.
func (b *Board) SetField(field Field, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.form.set(field, value)
}

// SetFields applies several values at once. If any value is rejected the
// form is left exactly as it was.
func (b *Board) SetFields(values map[Field]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.form
	for field, value := range values {
		if err := next.set(field, value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	b.form = next
	return nil
}

func (f *Form) set(field Field, value string) error {
	switch field {
	case FieldType:
		k, err := core.ParseKind(value)
		if err != nil {
			return err
		}
		f.Type = k
	case FieldTitle:
		f.Title = value
	case FieldAmount:
		f.Amount = value
	case FieldDate:
		f.Date = value
	case FieldCurrency:
		c, err := core.ParseCurrency(value)
		if err != nil {
			return err
		}
		f.Currency = c
	default:
		return ErrUnknownField
	}
	return nil
}

// Form returns a copy of the pending input.
func (b *Board) Form() Form {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.form
}

// Transactions returns a copy of the list last received from the store.
func (b *Board) Transactions() []core.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.transactions)
}

// Loaded reports whether any refresh has succeeded yet.
func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Summary runs the aggregation pipeline over the current list, labelled with
// the current currency selection.
func (b *Board) Summary() aggregate.Summary {
	b.mu.Lock()
	list := slices.Clone(b.transactions)
	currency := b.form.Currency
	b.mu.Unlock()
	return aggregate.Build(list, currency)
}

// Refresh replaces the held list with the store's current one. On failure
// the previous list stays untouched.
func (b *Board) Refresh(ctx context.Context) error {
	list, err := b.store.ListTransactions(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "Error fetching transactions",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
		return err
	}

	b.mu.Lock()
	b.transactions = list
	b.loaded = true
	b.mu.Unlock()

	b.logger.DebugContext(ctx, "Transactions refreshed", log.FieldCount, len(list))
	return nil
}

// Submit validates the pending input, creates the transaction remotely and
// re-fetches the list.
//
// A *ValidationError means nothing was sent. A create failure leaves the
// form as it was so the entry can be retried, and no refresh happens. After
// a successful create the form is reset except for the currency, which
// persists across submissions; a failing re-fetch at that point is logged
// and does not fail the submission.
//
// Nothing prevents two identical submissions from creating two records.
func (b *Board) Submit(ctx context.Context) error {
	form := b.Form()

	t, err := form.transaction()
	if err != nil {
		b.logger.WarnContext(ctx, "Transaction rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		return err
	}

	if err := b.store.CreateTransaction(ctx, t); err != nil {
		b.logger.ErrorContext(ctx, "Error adding transaction",
			log.NewFields().
				WithOperation(log.OpSubmit).
				WithTransaction(string(t.Type), t.Title, t.Amount, t.Date.String(), string(t.Currency)).
				WithError(err).
				ToSlice()...)
		return err
	}

	b.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().
			WithOperation(log.OpSubmit).
			WithTransaction(string(t.Type), t.Title, t.Amount, t.Date.String(), string(t.Currency)).
			ToSlice()...)

	b.mu.Lock()
	b.form.Title = ""
	b.form.Amount = ""
	b.form.Date = b.today()
	b.form.Type = core.Earning
	b.mu.Unlock()

	_ = b.Refresh(ctx)
	return nil
}

func (b *Board) today() string {
	return core.DateOf(b.now()).String()
}

// transaction checks presence first, then parses. Only the three free-text
// fields can be blank; type and currency always hold a valid value.
func (f Form) transaction() (core.Transaction, error) {
	var missing []Field
	if strings.TrimSpace(f.Title) == "" {
		missing = append(missing, FieldTitle)
	}
	if strings.TrimSpace(f.Amount) == "" {
		missing = append(missing, FieldAmount)
	}
	if strings.TrimSpace(f.Date) == "" {
		missing = append(missing, FieldDate)
	}
	if len(missing) > 0 {
		return core.Transaction{}, &ValidationError{Missing: missing, Err: ErrMissingFields}
	}

	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Transaction{}, &ValidationError{Field: FieldAmount, Err: err}
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Transaction{}, &ValidationError{Field: FieldDate, Err: err}
	}

	t := core.Transaction{
		Type:     f.Type,
		Title:    f.Title,
		Amount:   amount,
		Date:     date,
		Currency: f.Currency,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, &ValidationError{Err: err}
	}
	return t, nil
}

// IsValidation reports whether err should be shown to the user.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
