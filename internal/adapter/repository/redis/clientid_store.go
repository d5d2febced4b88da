package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

// ClientIDStore implements usecase.ClientIDStore using a single Redis key.
type ClientIDStore struct {
	client *redis.Client
	key    string
}

var _ usecase.ClientIDStore = (*ClientIDStore)(nil)

// NewClientIDStore creates a store keeping the identifier under name.
func NewClientIDStore(client *redis.Client, name string) *ClientIDStore {
	return &ClientIDStore{
		client: client,
		key:    "client:" + name,
	}
}

// Load returns the saved identifier.
func (s *ClientIDStore) Load(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrClientIDNotFound
	}
	return id, err
}

// Save stores id without expiry.
func (s *ClientIDStore) Save(ctx context.Context, id string) error {
	return s.client.Set(ctx, s.key, id, 0).Err()
}
