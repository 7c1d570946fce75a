package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownCustomer = errors.New("unknown customer")
	ErrUnknownAction   = errors.New("unknown action")
	ErrOutOfRange      = errors.New("out of range")
)

// RecordError attaches a batch failure to the record that caused it, so one
// malformed record never aborts the rest of the batch.
type RecordError struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %s: %v", e.ID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

func (e RecordError) Reason() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
