package memory

import (
	"context"
	"sync"

	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

// ClientIDStore keeps the client identifier for the life of the process.
type ClientIDStore struct {
	mu sync.Mutex
	id string
}

var _ usecase.ClientIDStore = (*ClientIDStore)(nil)

// NewClientIDStore creates an empty ClientIDStore.
func NewClientIDStore() *ClientIDStore {
	return &ClientIDStore{}
}

func (s *ClientIDStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == "" {
		return "", domain.ErrClientIDNotFound
	}
	return s.id, nil
}

func (s *ClientIDStore) Save(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = id
	return nil
}
