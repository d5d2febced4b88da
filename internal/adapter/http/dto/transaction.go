package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// WireLayout is the layout used when sending instants: RFC3339 UTC with milliseconds.
const WireLayout = "2006-01-02T15:04:05.000Z07:00"

// zone-less layouts the service may answer with; read as UTC
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Instant is a timestamp on the wire.
type Instant time.Time

// Time returns the instant as time.Time.
func (i Instant) Time() time.Time {
	return time.Time(i)
}

// MarshalJSON encodes the instant in UTC with millisecond precision.
func (i Instant) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(i).UTC().Format(WireLayout))
}

// UnmarshalJSON accepts RFC3339 or a zone-less local date time.
func (i *Instant) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*i = Instant(time.Time{})
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("instant: %w", err)
	}

	t, err := ParseInstant(s)
	if err != nil {
		return err
	}

	*i = Instant(t)
	return nil
}

// ParseInstant parses a wire timestamp. Zone-less values are read as UTC.
func ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("instant: cannot parse %q", s)
}

// TransactionRequest is the body of create and update calls.
type TransactionRequest struct {
	Amount          int64   `json:"amount"`
	BusinessName    string  `json:"businessName"`
	Name            string  `json:"name"`
	TransactionDate Instant `json:"transactionDate"`
}

// TransactionRequestFromDomain converts a domain transaction to a request body.
func TransactionRequestFromDomain(t domain.Transaction) TransactionRequest {
	return TransactionRequest{
		Amount:          t.Amount,
		BusinessName:    t.BusinessCategory,
		Name:            t.CounterpartyName,
		TransactionDate: Instant(t.TransactionDate),
	}
}

// ToDomain converts the request body into a transaction without an ID.
func (r TransactionRequest) ToDomain() domain.Transaction {
	return domain.Transaction{
		Amount:           r.Amount,
		BusinessCategory: r.BusinessName,
		CounterpartyName: r.Name,
		TransactionDate:  r.TransactionDate.Time(),
	}
}

// TransactionResponse represents a transaction in service responses.
type TransactionResponse struct {
	ID              int64   `json:"id"`
	Amount          int64   `json:"amount"`
	BusinessName    string  `json:"businessName"`
	Name            string  `json:"name"`
	TransactionDate Instant `json:"transactionDate"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		Amount:          t.Amount,
		BusinessName:    t.BusinessCategory,
		Name:            t.CounterpartyName,
		TransactionDate: Instant(t.TransactionDate),
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(ts []domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(ts))
	for i, t := range ts {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ToDomain converts the response to a domain transaction.
func (r TransactionResponse) ToDomain() domain.Transaction {
	return domain.Transaction{
		ID:               r.ID,
		Amount:           r.Amount,
		BusinessCategory: r.BusinessName,
		CounterpartyName: r.Name,
		TransactionDate:  r.TransactionDate.Time(),
	}
}

// TransactionsToDomain converts responses to domain transactions.
func TransactionsToDomain(rs []TransactionResponse) []domain.Transaction {
	result := make([]domain.Transaction, len(rs))
	for i, r := range rs {
		result[i] = r.ToDomain()
	}
	return result
}

// ErrorResponse is the body the service sends with a failure status.
type ErrorResponse struct {
	Status    int      `json:"status"`
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Path      string   `json:"path,omitempty"`
}
