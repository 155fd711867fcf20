package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/store"
)

// TransactionCreatedMessage is published once per stored transaction.
// Amount is a decimal string so consumers do not see float artefacts.
type TransactionCreatedMessage struct {
	ID        int64         `json:"id"`
	Type      core.Kind     `json:"type"`
	Amount    string        `json:"amount"`
	Currency  core.Currency `json:"currency"`
	Date      core.Date     `json:"date"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewTransactionCreatedMessage(rec store.Record) *TransactionCreatedMessage {
	ts := rec.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &TransactionCreatedMessage{
		ID:        rec.ID,
		Type:      rec.Type,
		Amount:    decimal.NewFromFloat(rec.Amount).String(),
		Currency:  rec.Currency,
		Date:      rec.Date,
		Timestamp: ts,
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
