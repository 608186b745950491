package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/partyrelay/partyrelay/internal/dependencies/clock"
	"github.com/partyrelay/partyrelay/internal/dependencies/ident"
	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
	"github.com/partyrelay/partyrelay/internal/storage"
)

// Sender delivers an event to a single connection. Implementations must not
// block: a slow client is the transport's problem, never the coordinator's.
type Sender interface {
	Send(connID model.ConnectionID, event protocol.EventType, payload any) error
}

// Config holds coordinator settings
type Config struct {
	RoomID   model.RoomID
	RoomName string
	Region   string
}

// DefaultConfig returns the coordinator defaults: the single well-known room
// and the region label reported in server info.
func DefaultConfig() Config {
	return Config{
		RoomID:   model.DefaultRoomID,
		RoomName: "Main Room",
		Region:   "Local Server",
	}
}

// RegisterResult is returned to the registering connection
type RegisterResult struct {
	PlayerID   model.PlayerID
	IsHost     bool
	ServerInfo model.ServerInfo
}

// Coordinator orchestrates registration, host election, membership
// broadcasts and disconnect cleanup for a room.
//
// Every mutating operation is a read-modify-write on shared room/registry
// state, so each runs under a single coarse mutex. Broadcast payloads are
// built inside the same critical section, after the mutation commits, so a
// broadcast never mixes pre- and post-mutation state.
type Coordinator struct {
	mu sync.Mutex

	storage   storage.Storage
	sender    Sender
	clock     clock.Clock
	ids       ident.Generator
	cfg       Config
	startedAt time.Time
	logger    *slog.Logger
}

// NewCoordinator creates a new presence coordinator. The process start time
// anchors the uptime reported in server info snapshots.
func NewCoordinator(
	store storage.Storage,
	sender Sender,
	clk clock.Clock,
	ids ident.Generator,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		storage:   store,
		sender:    sender,
		clock:     clk,
		ids:       ids,
		cfg:       cfg,
		startedAt: clk.Now(),
		logger:    logger.With(slog.String("component", "presence")),
	}
}

// Register creates a Player for the connection, joins it to the room and
// elects it host if the room had none. The registered ack, the playerJoined
// broadcast and the post-join roster are all emitted before returning, in
// that order.
//
// A second registration on the same connection is rejected: letting it
// through would corrupt host bookkeeping.
func (c *Coordinator) Register(ctx context.Context, connID model.ConnectionID, req protocol.RegisterRequest) (*RegisterResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.storage.GetPlayerByConnection(ctx, connID); err == nil {
		return nil, model.ErrAlreadyRegistered
	}

	username := req.Username
	if username == "" {
		// The client validates before sending; tolerate anyway
		username = "anonymous"
	}

	room, err := c.roomLocked(ctx)
	if err != nil {
		return nil, err
	}

	player := &model.Player{
		ID:           c.ids.NewPlayerID(),
		ConnectionID: connID,
		Username:     username,
		Host:         req.Host,
		Port:         req.Port,
		Ping:         0,
		Status:       model.StatusActive,
		RoomID:       room.ID,
		JoinedAt:     c.clock.Now(),
	}

	room.AddMember(connID)
	if room.HostID == "" {
		room.HostID = connID
		player.IsHost = true
	}

	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}

	info, err := c.serverInfoLocked(ctx)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{
		PlayerID:   player.ID,
		IsHost:     player.IsHost,
		ServerInfo: info,
	}

	c.send(connID, protocol.EventRegistered, protocol.RegisteredPayload{
		PlayerID:   result.PlayerID,
		IsHost:     result.IsHost,
		ServerInfo: result.ServerInfo,
	})

	// The registrant is already a member, so the broadcast count includes it
	c.broadcastLocked(room, protocol.EventPlayerJoined, protocol.PlayerJoinedPayload{
		Player:       player.Public(),
		PlayersCount: info.PlayersCount,
	})

	roster, err := c.rosterLocked(ctx, room)
	if err != nil {
		return nil, err
	}
	c.send(connID, protocol.EventPlayersList, roster)

	c.logger.Info("player registered",
		slog.String("player_id", string(player.ID)),
		slog.String("username", player.Username),
		slog.Bool("is_host", player.IsHost),
		slog.Int("room_size", len(room.Members)))

	return result, nil
}

// UpdateStatus overwrites the player's presence status and broadcasts the
// change. Updates for unregistered connections are silently ignored.
func (c *Coordinator) UpdateStatus(ctx context.Context, connID model.ConnectionID, status model.PlayerStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.storage.GetPlayerByConnection(ctx, connID)
	if err != nil {
		c.logger.Debug("status update for unregistered connection dropped",
			slog.String("connection_id", string(connID)))
		return nil
	}

	if !status.IsValid() {
		return model.ErrInvalidStatus
	}

	player.Status = status
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return fmt.Errorf("save player: %w", err)
	}

	room, err := c.roomLocked(ctx)
	if err != nil {
		return err
	}
	c.broadcastLocked(room, protocol.EventPlayerUpdated, protocol.PlayerUpdatedPayload{
		ID:     player.ID,
		Status: &status,
	})
	return nil
}

// Ping answers a client's latency probe call with the service-side clock,
// in unix milliseconds. It also records when the connection last responded
// to probing. Unknown connections get model.ErrPlayerNotFound, which the
// transport drops without a reply.
func (c *Coordinator) Ping(ctx context.Context, connID model.ConnectionID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.storage.GetPlayerByConnection(ctx, connID)
	if err != nil {
		return 0, err
	}

	now := c.clock.Now()
	player.LastProbeAt = now
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return 0, fmt.Errorf("save player: %w", err)
	}
	return now.UnixMilli(), nil
}

// Pong folds a completed round trip into the player record. The delta is
// computed from the client-supplied start time so only the client's clock
// is involved. Pongs from unregistered connections are silently ignored.
func (c *Coordinator) Pong(ctx context.Context, connID model.ConnectionID, startTime int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.storage.GetPlayerByConnection(ctx, connID)
	if err != nil {
		c.logger.Debug("pong from unregistered connection dropped",
			slog.String("connection_id", string(connID)))
		return nil
	}

	ping := c.clock.Now().UnixMilli() - startTime
	if ping < 0 {
		ping = 0
	}

	player.Ping = ping
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return fmt.Errorf("save player: %w", err)
	}

	room, err := c.roomLocked(ctx)
	if err != nil {
		return err
	}
	c.broadcastLocked(room, protocol.EventPlayerUpdated, protocol.PlayerUpdatedPayload{
		ID:   player.ID,
		Ping: &ping,
	})
	return nil
}

// Disconnect removes the connection's player from the room and registry.
// If the departing connection was host and members remain, the
// earliest-joined remaining member becomes host and the newHost broadcast
// goes out before the playerLeft broadcast, so clients never observe a
// hostless room when a successor exists. Unknown connections are a no-op.
func (c *Coordinator) Disconnect(ctx context.Context, connID model.ConnectionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.storage.GetPlayerByConnection(ctx, connID)
	if err != nil {
		return nil
	}

	room, err := c.roomLocked(ctx)
	if err != nil {
		return err
	}

	room.RemoveMember(connID)

	var successor *model.Player
	wasHost := room.HostID == connID
	if wasHost {
		room.HostID = ""
		if succ := room.NextHost(); succ != "" {
			successor, err = c.storage.GetPlayerByConnection(ctx, succ)
			if err != nil {
				return fmt.Errorf("load successor: %w", err)
			}
			successor.IsHost = true
			if err := c.storage.SavePlayer(ctx, successor); err != nil {
				return fmt.Errorf("save successor: %w", err)
			}
			room.HostID = succ
		}
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}

	// The newHost broadcast goes out first so clients never see a hostless
	// room while a successor exists
	if successor != nil {
		c.broadcastLocked(room, protocol.EventNewHost, protocol.NewHostPayload{
			ID: successor.ID,
		})
	}

	if err := c.storage.DeletePlayerByConnection(ctx, connID); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}

	count, err := c.storage.PlayersCount(ctx)
	if err != nil {
		return fmt.Errorf("count players: %w", err)
	}

	c.broadcastLocked(room, protocol.EventPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID:     player.ID,
		PlayersCount: count,
	})

	c.logger.Info("player disconnected",
		slog.String("player_id", string(player.ID)),
		slog.String("username", player.Username),
		slog.Bool("was_host", wasHost),
		slog.Int("room_size", len(room.Members)))

	return nil
}

// ServerInfo returns a derived snapshot of relay state
func (c *Coordinator) ServerInfo(ctx context.Context) (model.ServerInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfoLocked(ctx)
}

// Roster returns the public player data for the room, in join order
func (c *Coordinator) Roster(ctx context.Context) ([]model.PublicPlayer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.roomLocked(ctx)
	if err != nil {
		return nil, err
	}
	return c.rosterLocked(ctx, room)
}

// roomLocked loads the default room, creating it on first use.
// Callers must hold c.mu.
func (c *Coordinator) roomLocked(ctx context.Context) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, c.cfg.RoomID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, model.ErrRoomNotFound) {
		return nil, fmt.Errorf("load room: %w", err)
	}

	room = model.NewRoom(c.cfg.RoomID, c.cfg.RoomName, c.clock.Now())
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (c *Coordinator) serverInfoLocked(ctx context.Context) (model.ServerInfo, error) {
	count, err := c.storage.PlayersCount(ctx)
	if err != nil {
		return model.ServerInfo{}, fmt.Errorf("count players: %w", err)
	}
	return model.ServerInfo{
		Uptime:       model.FormatUptime(c.clock.Now().Sub(c.startedAt)),
		PlayersCount: count,
		Region:       c.cfg.Region,
	}, nil
}

func (c *Coordinator) rosterLocked(ctx context.Context, room *model.Room) ([]model.PublicPlayer, error) {
	roster := make([]model.PublicPlayer, 0, len(room.Members))
	for _, connID := range room.Members {
		player, err := c.storage.GetPlayerByConnection(ctx, connID)
		if err != nil {
			return nil, fmt.Errorf("load member %s: %w", connID, err)
		}
		roster = append(roster, player.Public())
	}
	return roster, nil
}

// broadcastLocked fans an event out to every room member. Send failures are
// logged and skipped; one connection's failure never affects the others.
func (c *Coordinator) broadcastLocked(room *model.Room, event protocol.EventType, payload any) {
	for _, connID := range room.Members {
		c.send(connID, event, payload)
	}
}

func (c *Coordinator) send(connID model.ConnectionID, event protocol.EventType, payload any) {
	if err := c.sender.Send(connID, event, payload); err != nil {
		c.logger.Warn("send failed",
			slog.String("connection_id", string(connID)),
			slog.String("event", string(event)),
			slog.Any("error", err))
	}
}
