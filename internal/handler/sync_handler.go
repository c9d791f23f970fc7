package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"timer-sync-server/internal/domain"
	"timer-sync-server/internal/middleware"
	"timer-sync-server/internal/service"
	"timer-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

const maxTicketRequestBytes = 4 << 10

type SyncHandler struct {
	syncService  *service.SyncService
	authService  *service.AuthService
	validate     *validator.Validate
	maxBodyBytes int64
	logger       *slog.Logger
}

func NewSyncHandler(syncService *service.SyncService, authService *service.AuthService, maxBodyBytes int64, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncHandler{
		syncService:  syncService,
		authService:  authService,
		validate:     validator.New(),
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

func (h *SyncHandler) ProcessSync(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, "Payload too large")
			return
		}
		response.BadRequest(w, "Invalid payload")
		return
	}

	candidate, err := domain.ParseDocument(body)
	if err != nil {
		response.BadRequest(w, "Invalid payload")
		return
	}

	res, err := h.syncService.ProcessSync(r.Context(), middleware.GetDeviceID(r), candidate)
	if err != nil {
		h.logger.Error("sync failed", "err", err, "request_id", middleware.GetRequestID(r))
		response.InternalError(w, "Failed to synchronize")
		return
	}

	response.Success(w, res)
}

func (h *SyncHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	res, err := h.syncService.Fetch(r.Context())
	if err != nil {
		h.logger.Error("fetch failed", "err", err, "request_id", middleware.GetRequestID(r))
		response.InternalError(w, "Failed to load server data")
		return
	}

	response.Success(w, res)
}

// IssueTicket hands out a short-lived token for opening the event stream
// from clients that cannot set an Authorization header on websockets.
func (h *SyncHandler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTicketRequestBytes))
	if err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	var req domain.StreamTicketRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	}
	if req.DeviceID == "" {
		req.DeviceID = middleware.GetDeviceID(r)
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	ticket, err := h.authService.IssueTicket(req.DeviceID)
	if err != nil {
		h.logger.Error("ticket signing failed", "err", err)
		response.InternalError(w, "Failed to issue ticket")
		return
	}

	response.Success(w, ticket)
}
