package domain

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInternalServer   = errors.New("internal server error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

// Lifecycle / state machine
var (
	ErrInvalidState = errors.New("action not allowed in current state")
)

// Chart of accounts
var (
	ErrDuplicateCode            = errors.New("account code already exists")
	ErrHeaderAccountNotPostable = errors.New("header accounts cannot be posted to")
	ErrAccountInUse             = errors.New("account is referenced by journal lines")
)

// Journal
var (
	ErrDuplicateNumber = errors.New("document number already exists")
	ErrUnbalancedEntry = errors.New("journal entry is not balanced")
	ErrAmbiguousLine   = errors.New("journal line must have exactly one of debit or credit")
	ErrNoLines         = errors.New("journal entry has no lines")
)

// Invoices / payments
var (
	ErrOverpayment        = errors.New("payment exceeds invoice outstanding amount")
	ErrInvoiceHasPayments = errors.New("invoice has completed payments")
)

// ValidationError marks malformed input with the offending field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + ": " + e.Msg
}

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParsePGErrorCode extracts the Postgres error code, e.g. 23505 for unique_violation.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}
