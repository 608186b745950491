package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
)

// Sender delivers an event to a single connection without blocking
type Sender interface {
	Send(connID model.ConnectionID, event protocol.EventType, payload any) error
}

// Registry lists the connections eligible for probing. The storage layer
// satisfies this.
type Registry interface {
	ListConnections(ctx context.Context) ([]model.ConnectionID, error)
}

// Config holds prober settings
type Config struct {
	// Interval between probe cycles
	Interval time.Duration
}

// DefaultConfig returns the default probe interval
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
	}
}

// Prober periodically asks every registered connection to measure its
// round trip. It fires requestPing and moves on: responses come back as
// pong events through the coordinator, and a connection that never answers
// simply keeps its last known ping.
type Prober struct {
	registry Registry
	sender   Sender
	cfg      Config
	logger   *slog.Logger
}

// New creates a new Prober
func New(registry Registry, sender Sender, cfg Config, logger *slog.Logger) *Prober {
	return &Prober{
		registry: registry,
		sender:   sender,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "probe")),
	}
}

// Run drives probe cycles on the configured interval until the context is
// cancelled
func (p *Prober) Run(ctx context.Context) {
	p.logger.Info("latency prober started", slog.Duration("interval", p.cfg.Interval))

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("latency prober stopped")
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Probe runs a single cycle: one requestPing to every registered
// connection. A failed send only skips that connection.
func (p *Prober) Probe(ctx context.Context) {
	conns, err := p.registry.ListConnections(ctx)
	if err != nil {
		p.logger.Warn("probe cycle skipped", slog.Any("error", err))
		return
	}

	for _, connID := range conns {
		if err := p.sender.Send(connID, protocol.EventRequestPing, nil); err != nil {
			p.logger.Debug("probe request dropped",
				slog.String("connection_id", string(connID)),
				slog.Any("error", err))
		}
	}
}
