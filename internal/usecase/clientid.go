package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// ClientIdentity hands out the per-installation client identifier. The
// identifier is loaded from the store on first use, generated and saved only
// when nothing is stored, and reused for the rest of the process.
type ClientIdentity struct {
	store  ClientIDStore
	idGen  IDGenerator
	logger zerolog.Logger

	mu sync.Mutex
	id string
}

// NewClientIdentity creates a new ClientIdentity.
func NewClientIdentity(store ClientIDStore, idGen IDGenerator, logger zerolog.Logger) *ClientIdentity {
	return &ClientIdentity{
		store:  store,
		idGen:  idGen,
		logger: logger,
	}
}

// ClientID returns the stable client identifier.
func (c *ClientIdentity) ClientID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.id != "" {
		return c.id, nil
	}

	id, err := c.store.Load(ctx)
	switch {
	case err == nil && id != "":
		c.id = id
		return c.id, nil
	case err != nil && !errors.Is(err, domain.ErrClientIDNotFound):
		return "", fmt.Errorf("load client id: %w", err)
	}

	id = ClientIDPrefix + c.idGen.Generate()
	if err := c.store.Save(ctx, id); err != nil {
		// keep the identifier for this process so calls stay consistent
		c.logger.Warn().Err(err).Str("client_id", id).Msg("failed to persist client id")
	} else {
		c.logger.Info().Str("client_id", id).Msg("generated client id")
	}

	c.id = id
	return c.id, nil
}
