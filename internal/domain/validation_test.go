package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var evalNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func validDraft() Draft {
	return Draft{
		Amount:           "15000",
		BusinessCategory: "Farmacia",
		CounterpartyName: "Juan Pérez",
		TransactionDate:  "2024-01-01T10:00",
	}
}

func TestValidateValidDraft(t *testing.T) {
	t.Parallel()

	result := Validate(validDraft(), evalNow)
	if !result.IsValid {
		t.Fatalf("expected draft to be valid, got errors %+v", result.Errors)
	}

	if len(result.Errors) != len(Fields) {
		t.Fatalf("expected one entry per field, got %d", len(result.Errors))
	}

	for f, msg := range result.Errors {
		if msg != "" {
			t.Fatalf("expected no error for %s, got %q", f, msg)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"absent", "", ErrAmountRequired},
		{"whitespace is absent", "   ", ErrAmountRequired},
		{"zero is valid", "0", nil},
		{"positive integer", "15000", nil},
		{"numeric string with spaces", " 42 ", nil},
		{"integral decimal notation", "10.0", nil},
		{"negative", "-1", ErrAmountNegative},
		{"negative fraction", "-1.5", ErrAmountNegative},
		{"fraction", "10.5", ErrAmountNotInteger},
		{"non numeric", "abc", ErrAmountNotInteger},
		{"overflow", "92233720368547758070", ErrAmountTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.raw)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateAbsentAmountIsInvalid(t *testing.T) {
	t.Parallel()

	d := validDraft()
	d.Amount = ""

	result := Validate(d, evalNow)
	if result.IsValid {
		t.Fatalf("expected invalid draft for absent amount")
	}
	if result.Errors[FieldAmount] != "El monto es obligatorio" {
		t.Fatalf("unexpected amount message %q", result.Errors[FieldAmount])
	}
}

func TestValidateZeroAmountHasNoError(t *testing.T) {
	t.Parallel()

	d := validDraft()
	d.Amount = "0"

	result := Validate(d, evalNow)
	if !result.IsValid || result.Errors[FieldAmount] != "" {
		t.Fatalf("expected zero amount to be valid, got %+v", result.Errors)
	}
}

func TestValidateText(t *testing.T) {
	t.Parallel()

	if err := ValidateBusinessCategory("   "); !errors.Is(err, ErrCategoryRequired) {
		t.Fatalf("expected ErrCategoryRequired, got %v", err)
	}

	if err := ValidateBusinessCategory(strings.Repeat("a", MaxTextLength)); err != nil {
		t.Fatalf("expected 255 characters to be accepted, got %v", err)
	}

	if err := ValidateBusinessCategory(strings.Repeat("a", MaxTextLength+1)); !errors.Is(err, ErrCategoryTooLong) {
		t.Fatalf("expected ErrCategoryTooLong, got %v", err)
	}

	if err := ValidateCounterpartyName(""); !errors.Is(err, ErrCounterpartyMissing) {
		t.Fatalf("expected ErrCounterpartyMissing, got %v", err)
	}

	// length is measured on the raw value, padding included
	padded := " " + strings.Repeat("b", MaxTextLength)
	if err := ValidateCounterpartyName(padded); !errors.Is(err, ErrCounterpartyTooLong) {
		t.Fatalf("expected ErrCounterpartyTooLong, got %v", err)
	}

	// characters outside the BMP count as two code units
	emoji := strings.Repeat("😀", 128)
	if err := ValidateCounterpartyName(emoji); !errors.Is(err, ErrCounterpartyTooLong) {
		t.Fatalf("expected astral characters to count double, got %v", err)
	}
}

func TestValidateTransactionDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"absent", "", ErrDateRequired},
		{"past", "2024-01-01T10:00", nil},
		{"exactly now", "2024-06-01T12:30", nil},
		{"one minute ahead", "2024-06-01T12:31", ErrDateInFuture},
		{"zoned future", "2024-06-01T12:30:01Z", ErrDateInFuture},
		{"distant past", "1900-01-01T00:00", nil},
		{"garbage", "yesterday", ErrDateInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransactionDate(tt.raw, now)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateFieldOnlyTouchesOneField(t *testing.T) {
	t.Parallel()

	d := Draft{Amount: "-3"}
	if msg := ValidateField(d, FieldAmount, evalNow); msg != "El monto no puede ser negativo" {
		t.Fatalf("unexpected amount message %q", msg)
	}

	if msg := ValidateField(d, Field("unknown"), evalNow); msg != "" {
		t.Fatalf("expected unknown field to yield no message, got %q", msg)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Parallel()

	result := Validate(Draft{}, evalNow)
	if result.IsValid {
		t.Fatalf("expected blank draft to be invalid")
	}

	for _, f := range Fields {
		if result.Errors[f] == "" {
			t.Fatalf("expected error for %s", f)
		}
	}
}

func TestFieldErrorsClone(t *testing.T) {
	t.Parallel()

	errs := NewFieldErrors()
	errs[FieldAmount] = "x"
	errs[Field("bogus")] = "y"

	clone := errs.Clone()
	if _, ok := clone[Field("bogus")]; ok {
		t.Fatalf("expected clone to drop fields outside the record shape")
	}

	clone[FieldAmount] = ""
	if errs[FieldAmount] != "x" {
		t.Fatalf("expected clone to be independent")
	}
}
