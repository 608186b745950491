package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partyrelay/partyrelay/internal/model"
)

// Config holds websocket transport settings
type Config struct {
	// ReadLimit caps the size of inbound frames
	ReadLimit int64
	// SendBuffer is the per-connection outbound queue length. A full queue
	// drops the frame rather than blocking the sender.
	SendBuffer int
	// WriteWait bounds a single frame write
	WriteWait time.Duration
	// KeepAliveInterval is the websocket-level ping cadence, independent of
	// the application's latency probing
	KeepAliveInterval time.Duration
}

// DefaultConfig returns sensible transport defaults
func DefaultConfig() Config {
	return Config{
		ReadLimit:         64 * 1024,
		SendBuffer:        64,
		WriteWait:         10 * time.Second,
		KeepAliveInterval: 30 * time.Second,
	}
}

// Conn wraps one websocket connection with a buffered outbound queue.
// All writes go through the queue so the write pump is the only goroutine
// touching the socket for output.
type Conn struct {
	id     model.ConnectionID
	sock   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	cfg    Config
	logger *slog.Logger

	closeOnce sync.Once
}

func newConn(id model.ConnectionID, sock *websocket.Conn, cfg Config, logger *slog.Logger) *Conn {
	return &Conn{
		id:     id,
		sock:   sock,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger.With(slog.String("connection_id", string(id))),
	}
}

// ID returns the transport connection id
func (c *Conn) ID() model.ConnectionID {
	return c.id
}

// enqueue queues a frame for delivery. It never blocks: a full buffer
// reports false and the frame is dropped.
func (c *Conn) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close shuts the connection down; safe to call more than once
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.sock.Close()
	})
}

// writePump drains the outbound queue onto the socket and sends periodic
// websocket-level keepalive pings. It exits when the connection closes.
func (c *Conn) writePump() {
	keepalive := time.NewTicker(c.cfg.KeepAliveInterval)
	defer func() {
		keepalive.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("write failed", slog.Any("error", err))
				return
			}
		case <-keepalive.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("keepalive failed", slog.Any("error", err))
				return
			}
		}
	}
}
