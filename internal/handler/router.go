package handler

import (
	"log/slog"
	"net/http"

	"timer-sync-server/internal/config"
	"timer-sync-server/internal/middleware"
	"timer-sync-server/internal/service"
	"timer-sync-server/internal/websocket"

	"github.com/gorilla/mux"
)

type RouterDeps struct {
	SyncService *service.SyncService
	AuthService *service.AuthService
	WSManager   *websocket.Manager
	Config      *config.Config
	Logger      *slog.Logger
}

func NewRouter(deps RouterDeps) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	syncHandler := NewSyncHandler(deps.SyncService, deps.AuthService, deps.Config.Server.MaxBodyBytes, logger)
	wsHandler := NewWebSocketHandler(deps.WSManager, deps.AuthService, logger)

	r := mux.NewRouter()

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(
		deps.Config.CORS.AllowedOrigins,
		deps.Config.CORS.AllowedMethods,
		deps.Config.CORS.AllowedHeaders,
	))

	protected := r.PathPrefix("/sync").Subrouter()
	protected.Use(middleware.AuthMiddleware(deps.AuthService))

	protected.HandleFunc("", syncHandler.ProcessSync).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("", syncHandler.Fetch).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/ticket", syncHandler.IssueTicket).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/ws", wsHandler.HandleConnection).Methods(http.MethodGet)
	r.HandleFunc("/health", Health).Methods(http.MethodGet)
	r.HandleFunc("/", Root).Methods(http.MethodGet)

	return r
}
