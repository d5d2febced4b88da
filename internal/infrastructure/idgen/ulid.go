// Package idgen generates identifiers.
package idgen

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates lowercase ULIDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID in lowercase, e.g. "01hx3k9v7q8c2m5n4p6r0s1t2u".
func (g *ULIDGenerator) Generate() string {
	return strings.ToLower(ulid.Make().String())
}
