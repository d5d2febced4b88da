package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

// ClientIDStore keeps the client identifier as a named row of client_settings.
type ClientIDStore struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

var _ usecase.ClientIDStore = (*ClientIDStore)(nil)

// NewClientIDStore creates a store keeping the identifier under name.
func NewClientIDStore(db *sql.DB, name string) *ClientIDStore {
	return &ClientIDStore{db: db, name: name, now: time.Now}
}

func (s *ClientIDStore) Load(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_settings WHERE name = ?`, s.name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrClientIDNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load client id: %w", err)
	}
	return id, nil
}

func (s *ClientIDStore) Save(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_settings (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.name, id, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save client id: %w", err)
	}
	return nil
}
