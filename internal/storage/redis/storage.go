package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	key := playerKey(player.ConnectionID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}

	// Pipeline the record write with the order-index append so a player is
	// never listed without a record
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.SessionTTL)
	if exists == 0 {
		pipe.RPush(ctx, connectionsIndexKey(), string(player.ConnectionID))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayerByConnection(ctx context.Context, connID model.ConnectionID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(connID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayerByConnection(ctx context.Context, connID model.ConnectionID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, playerKey(connID))
	pipe.LRem(ctx, connectionsIndexKey(), 0, string(connID))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListConnections(ctx context.Context) ([]model.ConnectionID, error) {
	ids, err := s.client.LRange(ctx, connectionsIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	result := make([]model.ConnectionID, len(ids))
	for i, id := range ids {
		result[i] = model.ConnectionID(id)
	}
	return result, nil
}

func (s *Storage) PlayersCount(ctx context.Context) (int, error) {
	count, err := s.client.LLen(ctx, connectionsIndexKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomKey(room.ID), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
