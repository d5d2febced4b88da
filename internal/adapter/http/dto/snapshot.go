package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// SnapshotDocument is the stored form of a cached read. Records use the
// service's wire shape so a snapshot decodes the same way a response does.
type SnapshotDocument struct {
	Key         string                `json:"key"`
	Records     []TransactionResponse `json:"records"`
	FetchedAt   time.Time             `json:"fetchedAt"`
	Invalidated bool                  `json:"invalidated"`
}

// SnapshotFromDomain converts a domain.Snapshot to its stored form.
func SnapshotFromDomain(s *domain.Snapshot) SnapshotDocument {
	return SnapshotDocument{
		Key:         s.Key,
		Records:     TransactionsFromDomain(s.Records),
		FetchedAt:   s.FetchedAt.UTC(),
		Invalidated: s.Invalidated,
	}
}

// ToDomain converts the stored form back to a domain.Snapshot.
func (d SnapshotDocument) ToDomain() *domain.Snapshot {
	return &domain.Snapshot{
		Key:         d.Key,
		Records:     TransactionsToDomain(d.Records),
		FetchedAt:   d.FetchedAt,
		Invalidated: d.Invalidated,
	}
}

// EncodeRecords marshals records in wire shape.
func EncodeRecords(records []domain.Transaction) ([]byte, error) {
	data, err := json.Marshal(TransactionsFromDomain(records))
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

// DecodeRecords is the inverse of EncodeRecords.
func DecodeRecords(data []byte) ([]domain.Transaction, error) {
	var out []TransactionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return TransactionsToDomain(out), nil
}
