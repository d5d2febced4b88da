package domain

import "errors"

var (
	// Field validation errors
	ErrAmountRequired      = errors.New("amount is required")
	ErrAmountNegative      = errors.New("amount cannot be negative")
	ErrAmountNotInteger    = errors.New("amount must be an integer")
	ErrAmountTooLarge      = errors.New("amount exceeds maximum allowed")
	ErrCategoryRequired    = errors.New("business category is required")
	ErrCategoryTooLong     = errors.New("business category is too long")
	ErrCounterpartyMissing = errors.New("counterparty name is required")
	ErrCounterpartyTooLong = errors.New("counterparty name is too long")
	ErrDateRequired        = errors.New("transaction date is required")
	ErrDateInFuture        = errors.New("transaction date is in the future")
	ErrDateInvalid         = errors.New("transaction date is not valid")
	ErrUnknownField        = errors.New("unknown field")

	// Remote failure kinds, matched with errors.Is against *Failure
	ErrTransportFailure = errors.New("transport failure")
	ErrServiceFailure   = errors.New("service failure")
	ErrLocalFailure     = errors.New("local failure")

	// Form errors
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrFormClosed       = errors.New("form controller closed")

	// Store errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrClientIDNotFound = errors.New("client id not found")
)
