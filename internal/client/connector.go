package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partyrelay/partyrelay/internal/dependencies/clock"
	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
)

// Input validation errors, surfaced locally before any network attempt
var (
	ErrEmptyUsername = errors.New("username must not be empty")
	ErrInvalidPort   = errors.New("port must be between 1 and 65535")
	ErrNotConnected  = errors.New("not connected")
)

// Connector dials the relay, registers, and feeds the mirror from the
// event stream. It also answers the relay's latency probes with the
// two-hop ping/pong exchange, timed entirely on the local clock.
type Connector struct {
	mirror *Mirror
	clock  clock.Clock
	logger *slog.Logger
	dialer *websocket.Dialer

	mu         sync.Mutex // guards sock writes and probeStart
	sock       *websocket.Conn
	probeStart int64 // pending probe send time, unix ms; 0 when no probe in flight

	closeOnce  sync.Once
	registered chan struct{}
	done       chan struct{}
}

// NewConnector creates a connector feeding the given mirror
func NewConnector(mirror *Mirror, clk clock.Clock, logger *slog.Logger) *Connector {
	return &Connector{
		mirror: mirror,
		clock:  clk,
		logger: logger.With(slog.String("component", "client")),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Connect dials the relay, sends the registration request and blocks until
// the registration ack arrives or the context expires. Invalid input is
// rejected before any network attempt; a failed dial leaves the mirror
// offline with no automatic retry.
func (c *Connector) Connect(ctx context.Context, host string, port int, username string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if port < 1 || port > 65535 {
		return ErrInvalidPort
	}

	c.mirror.SetConnecting()

	url := fmt.Sprintf("ws://%s:%d/ws", host, port)
	sock, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.mirror.SetOffline()
		return fmt.Errorf("connect to %s: %w", url, err)
	}

	c.mu.Lock()
	c.sock = sock
	c.registered = make(chan struct{})
	c.done = make(chan struct{})
	c.closeOnce = sync.Once{}
	c.mu.Unlock()

	if err := c.write(protocol.EventRegister, protocol.RegisterRequest{
		Username: username,
		Host:     host,
		Port:     port,
	}); err != nil {
		c.teardown()
		return fmt.Errorf("send register: %w", err)
	}

	go c.readLoop()

	select {
	case <-c.registered:
		return nil
	case <-c.done:
		return errors.New("connection closed before registration ack")
	case <-ctx.Done():
		c.teardown()
		return ctx.Err()
	}
}

// Close disconnects from the relay. The mirror transitions to offline.
func (c *Connector) Close() {
	c.teardown()
}

// SendStatus reports a new presence status to the relay
func (c *Connector) SendStatus(status model.PlayerStatus) error {
	if c.mirror.ConnectionStatus() != StatusOnline {
		return ErrNotConnected
	}
	return c.write(protocol.EventUpdateStatus, protocol.UpdateStatusRequest{Status: status})
}

// readLoop consumes the event stream until the connection drops
func (c *Connector) readLoop() {
	defer c.teardown()

	for {
		c.mu.Lock()
		sock := c.sock
		c.mu.Unlock()
		if sock == nil {
			return
		}

		_, frame, err := sock.ReadMessage()
		if err != nil {
			return
		}

		env, err := protocol.Decode(frame)
		if err != nil {
			c.logger.Debug("malformed frame dropped", slog.Any("error", err))
			continue
		}
		c.handle(env)
	}
}

func (c *Connector) handle(env *protocol.Envelope) {
	switch env.Event {
	case protocol.EventRegistered:
		var payload protocol.RegisteredPayload
		if err := env.Payload(&payload); err != nil {
			c.logger.Warn("bad registered payload", slog.Any("error", err))
			return
		}
		c.mirror.ApplyRegistered(payload)
		c.mu.Lock()
		select {
		case <-c.registered:
		default:
			close(c.registered)
		}
		c.mu.Unlock()

	case protocol.EventPlayersList:
		var players []model.PublicPlayer
		if err := env.Payload(&players); err != nil {
			c.logger.Warn("bad playersList payload", slog.Any("error", err))
			return
		}
		c.mirror.ApplyPlayersList(players)

	case protocol.EventPlayerJoined:
		var payload protocol.PlayerJoinedPayload
		if err := env.Payload(&payload); err != nil {
			return
		}
		c.mirror.ApplyPlayerJoined(payload)

	case protocol.EventPlayerLeft:
		var payload protocol.PlayerLeftPayload
		if err := env.Payload(&payload); err != nil {
			return
		}
		c.mirror.ApplyPlayerLeft(payload)

	case protocol.EventPlayerUpdated:
		var payload protocol.PlayerUpdatedPayload
		if err := env.Payload(&payload); err != nil {
			return
		}
		c.mirror.ApplyPlayerUpdated(payload)

	case protocol.EventNewHost:
		var payload protocol.NewHostPayload
		if err := env.Payload(&payload); err != nil {
			return
		}
		c.mirror.ApplyNewHost(payload)

	case protocol.EventRequestPing:
		// First hop: note the local send time and call ping
		c.mu.Lock()
		c.probeStart = c.clock.Now().UnixMilli()
		c.mu.Unlock()
		if err := c.write(protocol.EventPing, nil); err != nil {
			c.logger.Debug("ping send failed", slog.Any("error", err))
		}

	case protocol.EventPingAck:
		// Second hop: the full round trip is complete as perceived by the
		// local clock; report the original send time back
		c.mu.Lock()
		start := c.probeStart
		c.probeStart = 0
		c.mu.Unlock()
		if start == 0 {
			return
		}
		if err := c.write(protocol.EventPong, protocol.PongPayload{StartTime: start}); err != nil {
			c.logger.Debug("pong send failed", slog.Any("error", err))
		}

	default:
		c.logger.Debug("unknown event dropped", slog.String("event", string(env.Event)))
	}
}

// write marshals and sends one frame; gorilla allows a single writer, so
// all writes serialize through the connector's mutex
func (c *Connector) write(event protocol.EventType, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sock == nil {
		return ErrNotConnected
	}
	return c.sock.WriteMessage(websocket.TextMessage, frame)
}

func (c *Connector) teardown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.sock != nil {
			_ = c.sock.Close()
			c.sock = nil
		}
		if c.done != nil {
			close(c.done)
		}
		c.mu.Unlock()
		c.mirror.SetOffline()
	})
}
