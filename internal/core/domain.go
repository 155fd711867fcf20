package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Earning Kind = "earning"
	Expense Kind = "expense"
)

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	PKR Currency = "PKR"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// DisplayLayout renders dates in day/month/year order.
const DisplayLayout = "02/01/2006"

type (
	// Kind says which table a transaction belongs to.
	Kind string

	// Currency is a display label. No conversion is ever applied.
	Currency string

	// Date is a calendar date stored as midnight UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		Type     Kind     `json:"type"`
		Title    string   `json:"title"`
		Amount   float64  `json:"amount"`
		Date     Date     `json:"date"`
		Currency Currency `json:"currency"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidKind     = errors.New("invalid transaction type")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrEmptyTitle      = errors.New("empty title")
)

var (
	kinds      = []Kind{Earning, Expense}
	currencies = []Currency{USD, EUR, GBP, JPY, PKR}
)

// Kinds lists the transaction types in form order.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// Currencies lists the selectable currency labels in form order.
func Currencies() []Currency {
	return append([]Currency(nil), currencies...)
}

func (k Kind) Valid() bool {
	return k == Earning || k == Expense
}

// Label returns the capitalised name used in forms.
func (k Kind) Label() string {
	switch k {
	case Earning:
		return "Earning"
	case Expense:
		return "Expense"
	default:
		return string(k)
	}
}

// ParseKind accepts the enumerated values only; surrounding blanks are ignored.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func (c Currency) Valid() bool {
	for _, v := range currencies {
		if c == v {
			return true
		}
	}
	return false
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	return c, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD. An RFC 3339 timestamp is accepted too and
// reduced to its date part, since some stores send datetimes.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String returns the wire representation.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display returns the date as DD/MM/YYYY.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Type)
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Currency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, t.Currency)
	}
	return nil
}
