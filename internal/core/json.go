package core

import (
	"encoding/json"
	"fmt"
)

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidKind, data)
	}
	if !Kind(s).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	*k = Kind(s)
	return nil
}

// UnmarshalJSON accepts the amount either as a JSON number or as a numeric
// string; decimal-backed stores serialise money as strings. Unknown fields
// such as server ids are ignored.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     Kind        `json:"type"`
		Title    string      `json:"title"`
		Amount   json.Number `json:"amount"`
		Date     Date        `json:"date"`
		Currency Currency    `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("%w: missing", ErrInvalidKind)
	}
	amount, err := ParseAmount(raw.Amount.String())
	if err != nil {
		return err
	}
	*t = Transaction{
		Type:     raw.Type,
		Title:    raw.Title,
		Amount:   amount,
		Date:     raw.Date,
		Currency: raw.Currency,
	}
	return nil
}
