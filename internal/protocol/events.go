package protocol

import "github.com/partyrelay/partyrelay/internal/model"

// EventType identifies a wire event
type EventType string

const (
	// Client to service
	EventRegister     EventType = "register"
	EventPing         EventType = "ping"
	EventPong         EventType = "pong"
	EventUpdateStatus EventType = "updateStatus"

	// Service to client (unicast)
	EventRegistered  EventType = "registered"
	EventPlayersList EventType = "playersList"
	EventPingAck     EventType = "pingAck"
	EventRequestPing EventType = "requestPing"

	// Service to room (broadcast)
	EventPlayerJoined  EventType = "playerJoined"
	EventPlayerLeft    EventType = "playerLeft"
	EventPlayerUpdated EventType = "playerUpdated"
	EventNewHost       EventType = "newHost"
)

// RegisterRequest is sent by a client after the connection opens
type RegisterRequest struct {
	Username string `json:"username"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

// RegisteredPayload acknowledges a registration
type RegisteredPayload struct {
	PlayerID   model.PlayerID   `json:"playerId"`
	IsHost     bool             `json:"isHost"`
	ServerInfo model.ServerInfo `json:"serverInfo"`
}

// PlayersListPayload is the full roster sent to a newly joined connection.
// It reflects room state after the join, so the new member sees itself.
type PlayersListPayload []model.PublicPlayer

// PlayerJoinedPayload announces a new room member
type PlayerJoinedPayload struct {
	Player       model.PublicPlayer `json:"player"`
	PlayersCount int                `json:"playersCount"`
}

// PlayerLeftPayload announces a departure. PlayersCount is the registry
// size after removal.
type PlayerLeftPayload struct {
	PlayerID     model.PlayerID `json:"playerId"`
	PlayersCount int            `json:"playersCount"`
}

// PlayerUpdatedPayload is a partial update keyed by player id. Only the
// changed fields are set; nil fields are omitted from the wire form.
type PlayerUpdatedPayload struct {
	ID     model.PlayerID      `json:"id"`
	Ping   *int64              `json:"ping,omitempty"`
	Status *model.PlayerStatus `json:"status,omitempty"`
}

// NewHostPayload announces the elected successor after a host disconnect
type NewHostPayload struct {
	ID model.PlayerID `json:"id"`
}

// PingAckPayload carries the service-side timestamp answering a ping.
// The client ignores the value for latency math: only its own clock is
// used, which keeps the measurement immune to clock skew.
type PingAckPayload struct {
	Timestamp int64 `json:"timestamp"` // unix milliseconds, service clock
}

// PongPayload carries the client's original probe send time
type PongPayload struct {
	StartTime int64 `json:"startTime"` // unix milliseconds, client clock
}

// UpdateStatusRequest changes the sender's presence status
type UpdateStatusRequest struct {
	Status model.PlayerStatus `json:"status"`
}
