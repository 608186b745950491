package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/partyrelay/partyrelay/internal/dependencies/clock"
	"github.com/partyrelay/partyrelay/internal/dependencies/ident"
	"github.com/partyrelay/partyrelay/internal/services/presence"
	"github.com/partyrelay/partyrelay/internal/services/probe"
	"github.com/partyrelay/partyrelay/internal/storage"
	"github.com/partyrelay/partyrelay/internal/storage/memory"
	redisstorage "github.com/partyrelay/partyrelay/internal/storage/redis"
	"github.com/partyrelay/partyrelay/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	Ids   ident.Generator

	// Transport
	Table     *ws.ConnTable
	WSHandler *ws.Handler

	// Services
	Coordinator *presence.Coordinator
	Prober      *probe.Prober
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PresenceConfig holds the room and region settings (optional)
	// If zero value, defaults to presence.DefaultConfig()
	PresenceConfig presence.Config
	// ProbeConfig holds the latency probe settings (optional)
	// If zero value, defaults to probe.DefaultConfig()
	ProbeConfig probe.Config
	// WSConfig holds the websocket transport settings (optional)
	// If zero value, defaults to ws.DefaultConfig()
	WSConfig ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	ids := ident.New()

	presenceCfg := cfg.PresenceConfig
	if presenceCfg.RoomID == "" {
		presenceCfg = presence.DefaultConfig()
	}
	probeCfg := cfg.ProbeConfig
	if probeCfg.Interval == 0 {
		probeCfg = probe.DefaultConfig()
	}
	wsCfg := cfg.WSConfig
	if wsCfg.SendBuffer == 0 {
		wsCfg = ws.DefaultConfig()
	}

	return newWithDependencies(store, clk, ids, presenceCfg, probeCfg, wsCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	ids ident.Generator,
	presenceCfg presence.Config,
	probeCfg probe.Config,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	table := ws.NewConnTable()
	coordinator := presence.NewCoordinator(store, table, clk, ids, presenceCfg, logger)
	prober := probe.New(store, table, probeCfg, logger)
	wsHandler := ws.NewHandler(table, coordinator, ids, wsCfg, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Ids:         ids,
		Table:       table,
		WSHandler:   wsHandler,
		Coordinator: coordinator,
		Prober:      prober,
	}
}
