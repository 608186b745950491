package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partyrelay/partyrelay/internal/middleware"
	"github.com/partyrelay/partyrelay/internal/model"
)

// Presence is the read-only slice of the coordinator the HTTP API exposes
type Presence interface {
	ServerInfo(ctx context.Context) (model.ServerInfo, error)
	Roster(ctx context.Context) ([]model.PublicPlayer, error)
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger    *slog.Logger
	Presence  Presence
	WSHandler http.Handler
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	loggingMiddleware := middleware.Logging(cfg.Logger)

	r.Use(recoveryMiddleware)

	// Websocket endpoint stays outside the logging middleware: the
	// transport logs per-connection open/close itself
	r.Handle("/ws", cfg.WSHandler)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// JSON API subrouter
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)

	serverHandler := &serverInfoHandler{presence: cfg.Presence, logger: cfg.Logger}
	api.HandleFunc("/server", serverHandler.GetServerInfo).Methods(http.MethodGet)
	api.HandleFunc("/players", serverHandler.GetPlayers).Methods(http.MethodGet)

	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	return r
}

type serverInfoHandler struct {
	presence Presence
	logger   *slog.Logger
}

func (h *serverInfoHandler) GetServerInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.presence.ServerInfo(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *serverInfoHandler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	roster, err := h.presence.Roster(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if roster == nil {
		roster = []model.PublicPlayer{}
	}
	writeJSON(w, http.StatusOK, roster)
}

func (h *serverInfoHandler) writeError(w http.ResponseWriter, err error) {
	h.logger.Error("request failed", slog.Any("error", err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
