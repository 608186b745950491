package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// ConnectionID identifies a transport-level connection. It is used for
// message routing and as the registry key; it is never sent to other clients.
type ConnectionID string

// PlayerStatus is a client-settable presence status
type PlayerStatus string

const (
	StatusActive PlayerStatus = "active"
	StatusIdle   PlayerStatus = "idle"
	StatusAway   PlayerStatus = "away"
)

// IsValid reports whether the status is one of the known values
func (s PlayerStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusIdle, StatusAway:
		return true
	}
	return false
}

// Player represents one registered connection in a room
type Player struct {
	ID           PlayerID     `json:"id"`
	ConnectionID ConnectionID `json:"connectionId"`
	Username     string       `json:"username"`
	Host         string       `json:"host"`
	Port         int          `json:"port"`
	Ping         int64        `json:"ping"` // last measured round trip in ms, 0 until measured
	IsHost       bool         `json:"isHost"`
	Status       PlayerStatus `json:"status"`
	RoomID       RoomID       `json:"roomId"`
	LastProbeAt  time.Time    `json:"lastProbeAt"`
	JoinedAt     time.Time    `json:"joinedAt"`
}

// PublicPlayer is the subset of Player data that is safe to broadcast to
// other clients. The transport connection identifier never leaves the
// coordinator boundary.
type PublicPlayer struct {
	ID       PlayerID     `json:"id"`
	Username string       `json:"username"`
	Ping     int64        `json:"ping"`
	IsHost   bool         `json:"isHost"`
	Status   PlayerStatus `json:"status"`
}

// Public returns the broadcast-safe view of the player
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:       p.ID,
		Username: p.Username,
		Ping:     p.Ping,
		IsHost:   p.IsHost,
		Status:   p.Status,
	}
}
