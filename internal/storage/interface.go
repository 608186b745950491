package storage

import (
	"context"

	"github.com/partyrelay/partyrelay/internal/model"
)

// Storage defines the interface for the connection registry and room state.
// It is pure bookkeeping: host election, broadcasting and membership policy
// live in the presence coordinator.
type Storage interface {
	// Player registry operations, keyed by transport connection
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayerByConnection(ctx context.Context, connID model.ConnectionID) (*model.Player, error)
	DeletePlayerByConnection(ctx context.Context, connID model.ConnectionID) error
	ListConnections(ctx context.Context) ([]model.ConnectionID, error)
	PlayersCount(ctx context.Context) (int, error)

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
}
