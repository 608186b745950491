package ws

import (
	"fmt"
	"sync"

	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
)

// ConnTable routes events to live connections by connection id. It is the
// Sender used by the presence coordinator and the latency prober.
type ConnTable struct {
	mu    sync.RWMutex
	conns map[model.ConnectionID]*Conn
}

// NewConnTable creates an empty connection table
func NewConnTable() *ConnTable {
	return &ConnTable{
		conns: make(map[model.ConnectionID]*Conn),
	}
}

// Add registers a live connection
func (t *ConnTable) Add(conn *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[conn.ID()] = conn
	connectionsGauge.Set(float64(len(t.conns)))
}

// Remove drops a connection from the table
func (t *ConnTable) Remove(id model.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, id)
	connectionsGauge.Set(float64(len(t.conns)))
}

// Count returns the number of live connections
func (t *ConnTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}

// Send encodes and queues an event for one connection. It never blocks;
// an unknown connection or a full outbound buffer is an error the caller
// may log and move past.
func (t *ConnTable) Send(connID model.ConnectionID, event protocol.EventType, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	t.mu.RLock()
	conn, ok := t.conns[connID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %s not found", connID)
	}

	if !conn.enqueue(frame) {
		messagesDropped.Inc()
		return fmt.Errorf("connection %s send buffer full", connID)
	}
	messagesSent.Inc()
	return nil
}
