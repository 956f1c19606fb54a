package ledger

import (
	"errors"
	"fmt"
	"time"

	"tix-voucher/internal/models"
	"tix-voucher/internal/tickets/validator"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("ticket not found")
	ErrDuplicateScan = errors.New("ticket already scanned")
	ErrDecode        = errors.New("import document rejected")
	ErrNothingToUndo = errors.New("no generation to undo")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type LookupError struct {
	Lookup validator.Lookup
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ticket %s not found", e.Lookup.Reference())
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// ConflictError is a scan of a ticket that was already redeemed at ScannedAt.
type ConflictError struct {
	Ticket    models.Ticket
	ScannedAt time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ticket %s already scanned at %s", e.Ticket.Number, e.ScannedAt.Format(time.RFC3339))
}

func (e *ConflictError) Unwrap() error {
	return ErrDuplicateScan
}

// DecodeError wraps a rejected import document. It matches both ErrDecode and the cause.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("decode failed: %v", e.Err)
	}
	return fmt.Sprintf("decode %s failed: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
