package memory

import (
	"context"
	"sync"

	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players map[model.ConnectionID]*model.Player
	order   []model.ConnectionID // registration order, for stable listing
	rooms   map[model.RoomID]*model.Room
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[model.ConnectionID]*model.Player),
		rooms:   make(map[model.RoomID]*model.Room),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.ConnectionID]; !ok {
		s.order = append(s.order, player.ConnectionID)
	}
	s.players[player.ConnectionID] = player
	return nil
}

func (s *Storage) GetPlayerByConnection(ctx context.Context, connID model.ConnectionID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[connID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayerByConnection(ctx context.Context, connID model.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[connID]; !ok {
		return nil
	}
	delete(s.players, connID)
	for i, id := range s.order {
		if id == connID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) ListConnections(ctx context.Context) ([]model.ConnectionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.ConnectionID, len(s.order))
	copy(result, s.order)
	return result, nil
}

func (s *Storage) PlayersCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players), nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}
