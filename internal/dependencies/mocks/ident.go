package mocks

import (
	"fmt"

	"github.com/partyrelay/partyrelay/internal/dependencies/ident"
	"github.com/partyrelay/partyrelay/internal/model"
)

// MockIDGenerator is a mock implementation of ident.Generator for testing.
// It returns queued ids, falling back to sequential ones when the queue is
// empty.
type MockIDGenerator struct {
	PlayerIDs     []model.PlayerID
	playerIndex   int
	ConnectionIDs []model.ConnectionID
	connIndex     int
	seq           int
}

// Ensure MockIDGenerator implements Generator
var _ ident.Generator = (*MockIDGenerator)(nil)

// NewMockIDGenerator creates a new MockIDGenerator
func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

// NewPlayerID returns the next queued player id, or a sequential fallback
func (g *MockIDGenerator) NewPlayerID() model.PlayerID {
	if g.playerIndex < len(g.PlayerIDs) {
		id := g.PlayerIDs[g.playerIndex]
		g.playerIndex++
		return id
	}
	g.seq++
	return model.PlayerID(fmt.Sprintf("player-%d", g.seq))
}

// NewConnectionID returns the next queued connection id, or a sequential fallback
func (g *MockIDGenerator) NewConnectionID() model.ConnectionID {
	if g.connIndex < len(g.ConnectionIDs) {
		id := g.ConnectionIDs[g.connIndex]
		g.connIndex++
		return id
	}
	g.seq++
	return model.ConnectionID(fmt.Sprintf("conn-%d", g.seq))
}

// QueuePlayerIDs adds values to the player id queue
func (g *MockIDGenerator) QueuePlayerIDs(ids ...model.PlayerID) {
	g.PlayerIDs = append(g.PlayerIDs, ids...)
}

// QueueConnectionIDs adds values to the connection id queue
func (g *MockIDGenerator) QueueConnectionIDs(ids ...model.ConnectionID) {
	g.ConnectionIDs = append(g.ConnectionIDs, ids...)
}
