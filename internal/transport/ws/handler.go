package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/partyrelay/partyrelay/internal/dependencies/ident"
	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
	"github.com/partyrelay/partyrelay/internal/services/presence"
)

// Coordinator is the slice of the presence coordinator the transport needs
type Coordinator interface {
	Register(ctx context.Context, connID model.ConnectionID, req protocol.RegisterRequest) (*presence.RegisterResult, error)
	UpdateStatus(ctx context.Context, connID model.ConnectionID, status model.PlayerStatus) error
	Ping(ctx context.Context, connID model.ConnectionID) (int64, error)
	Pong(ctx context.Context, connID model.ConnectionID, startTime int64) error
	Disconnect(ctx context.Context, connID model.ConnectionID) error
}

// Handler upgrades HTTP requests to websocket connections and dispatches
// inbound events to the presence coordinator.
type Handler struct {
	table       *ConnTable
	coordinator Coordinator
	ids         ident.Generator
	cfg         Config
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewHandler creates a new websocket handler
func NewHandler(table *ConnTable, coordinator Coordinator, ids ident.Generator, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		table:       table,
		coordinator: coordinator,
		ids:         ids,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The relay fronts LAN clients; transport hardening is out of scope
				return true
			},
		},
	}
}

// ServeHTTP upgrades the request and runs the connection until it drops
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", slog.Any("error", err))
		return
	}

	connID := h.ids.NewConnectionID()
	conn := newConn(connID, sock, h.cfg, h.logger)
	h.table.Add(conn)
	h.logger.Info("connection opened", slog.String("connection_id", string(connID)))

	go conn.writePump()

	// Disconnect must fire exactly once per connection, whether the read
	// loop exits on a clean close, a read error, or a write pump failure
	var disconnectOnce sync.Once
	disconnect := func() {
		disconnectOnce.Do(func() {
			h.table.Remove(connID)
			conn.close()
			if err := h.coordinator.Disconnect(context.Background(), connID); err != nil {
				h.logger.Warn("disconnect cleanup failed",
					slog.String("connection_id", string(connID)),
					slog.Any("error", err))
			}
			h.logger.Info("connection closed", slog.String("connection_id", string(connID)))
		})
	}
	defer disconnect()

	sock.SetReadLimit(h.cfg.ReadLimit)

	for {
		_, frame, err := sock.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				h.logger.Debug("read failed",
					slog.String("connection_id", string(connID)),
					slog.Any("error", err))
			}
			return
		}

		h.dispatch(r.Context(), connID, frame)
	}
}

// dispatch decodes one inbound frame and routes it. A malformed frame or a
// failed operation affects only this connection and is logged, never fatal.
func (h *Handler) dispatch(ctx context.Context, connID model.ConnectionID, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		h.logger.Debug("malformed frame dropped",
			slog.String("connection_id", string(connID)),
			slog.Any("error", err))
		return
	}

	switch env.Event {
	case protocol.EventRegister:
		var req protocol.RegisterRequest
		if err := env.Payload(&req); err != nil {
			h.logEventError(connID, env.Event, err)
			return
		}
		// The coordinator emits registered, playerJoined and playersList
		if _, err := h.coordinator.Register(ctx, connID, req); err != nil {
			h.logEventError(connID, env.Event, err)
		}

	case protocol.EventPing:
		ts, err := h.coordinator.Ping(ctx, connID)
		if err != nil {
			// Unregistered connection: drop without a reply
			if !errors.Is(err, model.ErrPlayerNotFound) {
				h.logEventError(connID, env.Event, err)
			}
			return
		}
		if err := h.table.Send(connID, protocol.EventPingAck, protocol.PingAckPayload{Timestamp: ts}); err != nil {
			h.logEventError(connID, protocol.EventPingAck, err)
		}

	case protocol.EventPong:
		var payload protocol.PongPayload
		if err := env.Payload(&payload); err != nil {
			h.logEventError(connID, env.Event, err)
			return
		}
		if err := h.coordinator.Pong(ctx, connID, payload.StartTime); err != nil {
			h.logEventError(connID, env.Event, err)
		}

	case protocol.EventUpdateStatus:
		var req protocol.UpdateStatusRequest
		if err := env.Payload(&req); err != nil {
			h.logEventError(connID, env.Event, err)
			return
		}
		if err := h.coordinator.UpdateStatus(ctx, connID, req.Status); err != nil {
			h.logEventError(connID, env.Event, err)
		}

	default:
		h.logger.Debug("unknown event dropped",
			slog.String("connection_id", string(connID)),
			slog.String("event", string(env.Event)))
	}
}

func (h *Handler) logEventError(connID model.ConnectionID, event protocol.EventType, err error) {
	h.logger.Warn("event handling failed",
		slog.String("connection_id", string(connID)),
		slog.String("event", string(event)),
		slog.Any("error", err))
}
