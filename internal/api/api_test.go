package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyrelay/partyrelay/internal/api"
	"github.com/partyrelay/partyrelay/internal/factory"
	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
	"github.com/partyrelay/partyrelay/internal/services/presence"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler     http.Handler
	coordinator *presence.Coordinator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests, so use the production factory
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:    logger,
		Presence:  app.Coordinator,
		WSHandler: app.WSHandler,
	})

	return &testServer{
		handler:     router,
		coordinator: app.Coordinator,
	}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestGetServerInfo(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/server")
	assert.Equal(t, http.StatusOK, rr.Code)

	var info model.ServerInfo
	err := json.Unmarshal(rr.Body.Bytes(), &info)
	require.NoError(t, err)

	assert.Equal(t, "Local Server", info.Region)
	assert.Equal(t, 0, info.PlayersCount)
	assert.Regexp(t, `^\d{2,}:\d{2}:\d{2}$`, info.Uptime)
}

func TestGetPlayersEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/players")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetPlayersAfterRegistration(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.coordinator.Register(context.Background(), "conn-1", protocol.RegisterRequest{
		Username: "alice",
		Host:     "192.168.0.10",
		Port:     7777,
	})
	require.NoError(t, err)

	rr := ts.get("/api/v1/players")
	assert.Equal(t, http.StatusOK, rr.Code)

	var players []model.PublicPlayer
	err = json.Unmarshal(rr.Body.Bytes(), &players)
	require.NoError(t, err)

	require.Len(t, players, 1)
	assert.Equal(t, "alice", players[0].Username)
	assert.True(t, players[0].IsHost)
}
