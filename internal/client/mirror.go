package client

import (
	"sync"

	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
)

// ConnectionStatus is the client's view of its relay connection
type ConnectionStatus string

const (
	StatusOffline    ConnectionStatus = "offline"
	StatusConnecting ConnectionStatus = "connecting"
	StatusOnline     ConnectionStatus = "online"
)

// Observer receives mirror state changes. Presentation layers implement
// this instead of polling.
type Observer interface {
	OnConnectionStatus(status ConnectionStatus)
	OnRosterChanged(players []model.PublicPlayer)
	OnServerInfoChanged(info model.ServerInfo)
}

// Mirror is the client-side read-only copy of connection status, roster and
// server info, maintained from the relay's broadcast events.
type Mirror struct {
	mu sync.RWMutex

	status     ConnectionStatus
	players    []model.PublicPlayer
	serverInfo model.ServerInfo
	playerID   model.PlayerID

	observers  map[int]Observer
	nextObsKey int
}

// NewMirror creates a mirror in the offline state
func NewMirror() *Mirror {
	return &Mirror{
		status:    StatusOffline,
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns its unsubscribe handle
func (m *Mirror) Subscribe(o Observer) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.nextObsKey
	m.nextObsKey++
	m.observers[key] = o

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, key)
	}
}

// ConnectionStatus returns the current connection status
func (m *Mirror) ConnectionStatus() ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Players returns a copy of the current roster
func (m *Mirror) Players() []model.PublicPlayer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]model.PublicPlayer, len(m.players))
	copy(result, m.players)
	return result
}

// ServerInfo returns the last received server info snapshot
func (m *Mirror) ServerInfo() model.ServerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.serverInfo
}

// PlayerID returns this client's player id, empty until registered
func (m *Mirror) PlayerID() model.PlayerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playerID
}

// SetConnecting marks the start of a connection attempt
func (m *Mirror) SetConnecting() {
	m.mu.Lock()
	m.status = StatusConnecting
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnConnectionStatus(StatusConnecting)
	}
}

// SetOffline applies a connection failure or disconnect: the roster empties
// and server info resets to its zero value.
func (m *Mirror) SetOffline() {
	m.mu.Lock()
	m.status = StatusOffline
	m.players = nil
	m.serverInfo = model.ServerInfo{}
	m.playerID = ""
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnConnectionStatus(StatusOffline)
		o.OnRosterChanged(nil)
		o.OnServerInfoChanged(model.ServerInfo{})
	}
}

// ApplyRegistered applies the registration ack: the mirror goes online and
// adopts the included server info.
func (m *Mirror) ApplyRegistered(payload protocol.RegisteredPayload) {
	m.mu.Lock()
	m.status = StatusOnline
	m.playerID = payload.PlayerID
	m.serverInfo = payload.ServerInfo
	info := m.serverInfo
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnConnectionStatus(StatusOnline)
		o.OnServerInfoChanged(info)
	}
}

// ApplyPlayersList replaces the roster with a full snapshot
func (m *Mirror) ApplyPlayersList(players []model.PublicPlayer) {
	m.mu.Lock()
	m.players = players
	roster := m.rosterLocked()
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnRosterChanged(roster)
	}
}

// ApplyPlayerJoined appends the new player and updates the player count
func (m *Mirror) ApplyPlayerJoined(payload protocol.PlayerJoinedPayload) {
	m.mu.Lock()
	m.players = append(m.players, payload.Player)
	m.serverInfo.PlayersCount = payload.PlayersCount
	roster := m.rosterLocked()
	info := m.serverInfo
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnRosterChanged(roster)
		o.OnServerInfoChanged(info)
	}
}

// ApplyPlayerLeft filters the departed player out and updates the count
func (m *Mirror) ApplyPlayerLeft(payload protocol.PlayerLeftPayload) {
	m.mu.Lock()
	filtered := m.players[:0]
	for _, p := range m.players {
		if p.ID != payload.PlayerID {
			filtered = append(filtered, p)
		}
	}
	m.players = filtered
	m.serverInfo.PlayersCount = payload.PlayersCount
	roster := m.rosterLocked()
	info := m.serverInfo
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnRosterChanged(roster)
		o.OnServerInfoChanged(info)
	}
}

// ApplyPlayerUpdated merges changed fields onto the matching roster entry.
// An unknown id is a no-op: partial updates never insert.
func (m *Mirror) ApplyPlayerUpdated(payload protocol.PlayerUpdatedPayload) {
	m.mu.Lock()
	updated := false
	for i := range m.players {
		if m.players[i].ID != payload.ID {
			continue
		}
		if payload.Ping != nil {
			m.players[i].Ping = *payload.Ping
		}
		if payload.Status != nil {
			m.players[i].Status = *payload.Status
		}
		updated = true
		break
	}
	if !updated {
		m.mu.Unlock()
		return
	}
	roster := m.rosterLocked()
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnRosterChanged(roster)
	}
}

// ApplyNewHost marks the elected successor on the roster. The departed
// host is removed by the playerLeft event that follows.
func (m *Mirror) ApplyNewHost(payload protocol.NewHostPayload) {
	m.mu.Lock()
	updated := false
	for i := range m.players {
		if m.players[i].ID == payload.ID {
			m.players[i].IsHost = true
			updated = true
			break
		}
	}
	if !updated {
		m.mu.Unlock()
		return
	}
	roster := m.rosterLocked()
	obs := m.observersLocked()
	m.mu.Unlock()

	for _, o := range obs {
		o.OnRosterChanged(roster)
	}
}

// rosterLocked copies the roster for handing to observers.
// Callers must hold m.mu.
func (m *Mirror) rosterLocked() []model.PublicPlayer {
	result := make([]model.PublicPlayer, len(m.players))
	copy(result, m.players)
	return result
}

func (m *Mirror) observersLocked() []Observer {
	result := make([]Observer, 0, len(m.observers))
	for _, o := range m.observers {
		result = append(result, o)
	}
	return result
}
