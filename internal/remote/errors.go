package remote

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrResponseTooLarge = errors.New("response body too large")
)

// FetchError reports a failed list call: transport failure, non-2xx status
// or a body that could not be decoded.
type FetchError struct {
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("list transactions: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("list transactions: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError reports a failed create call.
type WriteError struct {
	StatusCode int
	Err        error
}

func (e *WriteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("create transaction: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("create transaction: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
