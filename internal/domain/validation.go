package domain

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/shopspring/decimal"

	"github.com/jfpDev/bankTransations/internal/format"
)

// Validation constants
const (
	MaxTextLength = 255
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// User-facing messages for each validation error.
var fieldMessages = map[error]string{
	ErrAmountRequired:      "El monto es obligatorio",
	ErrAmountNegative:      "El monto no puede ser negativo",
	ErrAmountNotInteger:    "El monto debe ser un número entero",
	ErrAmountTooLarge:      "El monto excede el máximo permitido",
	ErrCategoryRequired:    "El giro o comercio es obligatorio",
	ErrCategoryTooLong:     "El giro no puede exceder 255 caracteres",
	ErrCounterpartyMissing: "El nombre del usuario es obligatorio",
	ErrCounterpartyTooLong: "El nombre no puede exceder 255 caracteres",
	ErrDateRequired:        "La fecha de transacción es obligatoria",
	ErrDateInFuture:        "La fecha de transacción no puede ser futura",
	ErrDateInvalid:         "La fecha de transacción no es válida",
}

// FieldErrors maps every record field to its error message, "" meaning valid.
type FieldErrors map[Field]string

// NewFieldErrors returns a map with an empty entry per field.
func NewFieldErrors() FieldErrors {
	errs := make(FieldErrors, len(Fields))
	for _, f := range Fields {
		errs[f] = ""
	}
	return errs
}

// Get returns the message for f.
func (e FieldErrors) Get(f Field) string {
	return e[f]
}

// Any reports whether at least one field has an error.
func (e FieldErrors) Any() bool {
	for _, msg := range e {
		if msg != "" {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (e FieldErrors) Clone() FieldErrors {
	out := NewFieldErrors()
	for f, msg := range e {
		if f.Valid() {
			out[f] = msg
		}
	}
	return out
}

// ValidationResult is the outcome of validating a draft.
type ValidationResult struct {
	IsValid bool
	Errors  FieldErrors
}

// Validate checks every field of d independently. now is the instant future
// dates are compared against; its location is used for zone-less dates.
func Validate(d Draft, now time.Time) ValidationResult {
	errs := NewFieldErrors()
	for _, f := range Fields {
		errs[f] = ValidateField(d, f, now)
	}

	return ValidationResult{
		IsValid: !errs.Any(),
		Errors:  errs,
	}
}

// ValidateField returns the message for a single field, "" when valid.
func ValidateField(d Draft, f Field, now time.Time) string {
	var err error
	switch f {
	case FieldAmount:
		err = ValidateAmount(d.Amount)
	case FieldBusinessCategory:
		err = ValidateBusinessCategory(d.BusinessCategory)
	case FieldCounterpartyName:
		err = ValidateCounterpartyName(d.CounterpartyName)
	case FieldTransactionDate:
		err = ValidateTransactionDate(d.TransactionDate, now)
	default:
		return ""
	}
	return Message(err)
}

// Message returns the user-facing text for a validation error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for sentinel, msg := range fieldMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

// ParseAmount coerces raw input into minor currency units.
// Blank input is absent; anything non-numeric is "not an integer".
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrAmountRequired
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, ErrAmountNotInteger
	}

	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	if !amount.IsInteger() {
		return 0, ErrAmountNotInteger
	}

	if amount.GreaterThan(maxAmount) {
		return 0, ErrAmountTooLarge
	}

	return amount.IntPart(), nil
}

// ValidateAmount validates raw amount input. Zero is valid.
func ValidateAmount(raw string) error {
	_, err := ParseAmount(raw)
	return err
}

// ValidateBusinessCategory validates the business category.
func ValidateBusinessCategory(value string) error {
	return validateText(value, ErrCategoryRequired, ErrCategoryTooLong)
}

// ValidateCounterpartyName validates the counterparty name.
func ValidateCounterpartyName(value string) error {
	return validateText(value, ErrCounterpartyMissing, ErrCounterpartyTooLong)
}

// validateText rejects blank values, then values longer than MaxTextLength
// UTF-16 code units. The length check uses the untrimmed value.
func validateText(value string, required, tooLong error) error {
	if strings.TrimSpace(value) == "" {
		return required
	}

	if codeUnits(value) > MaxTextLength {
		return tooLong
	}

	return nil
}

// ValidateTransactionDate validates the date input against now.
// A date equal to now is accepted.
func ValidateTransactionDate(raw string, now time.Time) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrDateRequired
	}

	date, err := format.ParseDateInput(raw, now.Location())
	if err != nil {
		return ErrDateInvalid
	}

	if date.After(now) {
		return ErrDateInFuture
	}

	return nil
}

func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}
