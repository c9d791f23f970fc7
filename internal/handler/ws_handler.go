package handler

import (
	"log/slog"
	"net/http"

	"timer-sync-server/internal/middleware"
	"timer-sync-server/internal/service"
	"timer-sync-server/internal/websocket"
	"timer-sync-server/pkg/response"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager     *websocket.Manager
	authService *service.AuthService
	upgrader    ws.Upgrader
	logger      *slog.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, authService *service.AuthService, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		manager:     manager,
		authService: authService,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.With("component", "websocket"),
	}
}

// HandleConnection accepts either a stream ticket in the query string or
// the shared bearer secret in the Authorization header.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = middleware.GetDeviceID(r)
	}

	if ticket := r.URL.Query().Get("ticket"); ticket != "" {
		claims, err := h.authService.ValidateTicket(ticket)
		if err != nil {
			h.logger.Info("ticket validation failed", "err", err)
			response.Unauthorized(w, "Unauthorized")
			return
		}
		if claims.DeviceID != "" {
			deviceID = claims.DeviceID
		}
	} else if token, ok := middleware.BearerToken(r); !ok || !h.authService.VerifyBearer(token) {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", "err", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), deviceID, conn, h.manager)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

type WebSocketMessageHandler struct {
	manager *websocket.Manager
}

func NewWebSocketMessageHandler(manager *websocket.Manager) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{
		manager: manager,
	}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypePing:
		return h.reply(client, websocket.TypePong, nil)

	default:
		return h.reply(client, websocket.TypeError, &websocket.ErrorPayload{
			Error: "unsupported message type: " + string(msg.Type),
		})
	}
}

func (h *WebSocketMessageHandler) reply(client *websocket.Client, msgType websocket.MessageType, payload interface{}) error {
	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return h.manager.SendToClient(client, msg)
}
