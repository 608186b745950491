package ident

import (
	"github.com/google/uuid"

	"github.com/partyrelay/partyrelay/internal/model"
)

// Generator allocates identifiers; mockable for testing
type Generator interface {
	// NewPlayerID returns a globally unique player id
	NewPlayerID() model.PlayerID

	// NewConnectionID returns a unique transport connection id
	NewConnectionID() model.ConnectionID
}

// UUIDGenerator implements Generator using random UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewPlayerID returns a new UUID player id
func (g *UUIDGenerator) NewPlayerID() model.PlayerID {
	return model.PlayerID(uuid.NewString())
}

// NewConnectionID returns a new UUID connection id
func (g *UUIDGenerator) NewConnectionID() model.ConnectionID {
	return model.ConnectionID(uuid.NewString())
}
