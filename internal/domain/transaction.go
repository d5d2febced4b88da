package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/jfpDev/bankTransations/internal/format"
)

// Field names an editable attribute of a transaction.
type Field string

const (
	FieldAmount           Field = "amount"
	FieldBusinessCategory Field = "businessCategory"
	FieldCounterpartyName Field = "counterpartyName"
	FieldTransactionDate  Field = "transactionDate"
)

// Fields lists every editable field in form order.
var Fields = []Field{
	FieldAmount,
	FieldBusinessCategory,
	FieldCounterpartyName,
	FieldTransactionDate,
}

// Valid reports whether f is part of the record shape.
func (f Field) Valid() bool {
	switch f {
	case FieldAmount, FieldBusinessCategory, FieldCounterpartyName, FieldTransactionDate:
		return true
	}
	return false
}

// ParseField converts a field name to a Field.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Transaction is a persisted transaction record.
// ID is assigned by the remote service and never changes afterwards.
type Transaction struct {
	ID               int64
	Amount           int64 // minor currency units
	BusinessCategory string
	CounterpartyName string
	TransactionDate  time.Time
}

// Draft holds raw form input for a transaction. Any field may be blank or invalid.
type Draft struct {
	Amount           string
	BusinessCategory string
	CounterpartyName string
	TransactionDate  string
}

// Get returns the raw value of a field.
func (d Draft) Get(f Field) string {
	switch f {
	case FieldAmount:
		return d.Amount
	case FieldBusinessCategory:
		return d.BusinessCategory
	case FieldCounterpartyName:
		return d.CounterpartyName
	case FieldTransactionDate:
		return d.TransactionDate
	}
	return ""
}

// Set replaces the raw value of a field.
func (d *Draft) Set(f Field, value string) error {
	switch f {
	case FieldAmount:
		d.Amount = value
	case FieldBusinessCategory:
		d.BusinessCategory = value
	case FieldCounterpartyName:
		d.CounterpartyName = value
	case FieldTransactionDate:
		d.TransactionDate = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}

// IsBlank reports whether no field holds any input.
func (d Draft) IsBlank() bool {
	return d == Draft{}
}

// DraftFromTransaction clones a persisted record into editable form input.
// The date is rendered in loc with minute precision.
func DraftFromTransaction(t Transaction, loc *time.Location) Draft {
	return Draft{
		Amount:           fmt.Sprintf("%d", t.Amount),
		BusinessCategory: t.BusinessCategory,
		CounterpartyName: t.CounterpartyName,
		TransactionDate:  format.FormatDateForInput(t.TransactionDate, loc),
	}
}

// ToTransaction converts a draft into a record without an ID.
// Callers are expected to have validated the draft first.
func (d Draft) ToTransaction(loc *time.Location) (Transaction, error) {
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, err
	}

	date, err := format.ParseDateInput(strings.TrimSpace(d.TransactionDate), loc)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: %v", ErrDateInvalid, err)
	}

	return Transaction{
		Amount:           amount,
		BusinessCategory: d.BusinessCategory,
		CounterpartyName: d.CounterpartyName,
		TransactionDate:  date,
	}, nil
}
