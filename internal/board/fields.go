package board

import (
	"errors"
	"fmt"
	"strings"
)

// Field names one pending input. The values match the form's input names.
type Field string

const (
	FieldType     Field = "type"
	FieldTitle    Field = "title"
	FieldAmount   Field = "amount"
	FieldDate     Field = "date"
	FieldCurrency Field = "currency"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrMissingFields = errors.New("please fill in all fields")
)

// Fields lists every editable field.
func Fields() []Field {
	return []Field{FieldType, FieldTitle, FieldAmount, FieldDate, FieldCurrency}
}

// ValidationError is returned by Submit when the pending input cannot be
// turned into a transaction. No network call was made.
type ValidationError struct {
	Field   Field   // set when a single field failed to parse
	Missing []Field // set when required fields were blank
	Err     error
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Missing) > 0:
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		return fmt.Sprintf("%v: missing %s", e.Err, strings.Join(names, ", "))
	case e.Field != "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Notice is the message shown to the user for this error.
func (e *ValidationError) Notice() string {
	if len(e.Missing) > 0 {
		return "Please fill in all fields"
	}
	switch e.Field {
	case FieldAmount:
		return "Please enter a valid amount"
	case FieldDate:
		return "Please enter a valid date"
	}
	return "Please check the transaction details"
}
