package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"timer-sync-server/internal/domain"
	"timer-sync-server/internal/repository"
	"timer-sync-server/internal/websocket"
)

type Broadcaster interface {
	Broadcast(message *websocket.Message, excludeDeviceID string) error
}

// SyncService runs load, reconcile and save for one request under a
// single lock so concurrent clients observe a linear history of the
// stored document.
type SyncService struct {
	repo        repository.DocumentRepository
	broadcaster Broadcaster
	logger      *slog.Logger

	mu         sync.Mutex
	lastDigest string
}

func NewSyncService(repo repository.DocumentRepository, broadcaster Broadcaster, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger.With("component", "sync"),
	}
}

func (s *SyncService) ProcessSync(ctx context.Context, deviceID string, candidate *domain.Document) (*domain.SyncResponse, error) {
	if candidate == nil {
		return nil, ErrInvalidDocument
	}

	decision, err := s.reconcileAndStore(ctx, candidate)
	if err != nil {
		return nil, err
	}

	if decision.Kind == domain.DecisionReject {
		return &domain.SyncResponse{
			Status:     domain.SyncStatusConflict,
			ServerData: decision.Document,
		}, nil
	}

	s.broadcast(websocket.TypeDocumentUpdated, decision.Document, decision.ClientRichness, deviceID)

	return &domain.SyncResponse{
		Status: domain.SyncStatusAccepted,
	}, nil
}

func (s *SyncService) reconcileAndStore(ctx context.Context, candidate *domain.Document) (domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	decision := Reconcile(candidate, stored)
	s.logDecision(decision, candidate, stored)

	if decision.Kind.Persists() {
		if err := s.repo.Save(ctx, decision.Document); err != nil {
			return domain.Decision{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		s.lastDigest = decision.Document.Digest()
	} else {
		s.lastDigest = stored.Digest()
	}

	return decision, nil
}

func (s *SyncService) logDecision(decision domain.Decision, candidate, stored *domain.Document) {
	if stored == nil {
		s.logger.Info("server empty, initializing with client data",
			"client_richness", decision.ClientRichness,
			"client_updated_at", candidate.UpdatedAt(),
		)
		return
	}

	s.logger.Info("compared history",
		"decision", decision.Kind.String(),
		"client_richness", decision.ClientRichness,
		"server_richness", decision.ServerRichness,
		"client_updated_at", candidate.UpdatedAt(),
		"server_updated_at", stored.UpdatedAt(),
	)
}

// Fetch returns the stored document without modifying it.
func (s *SyncService) Fetch(ctx context.Context) (*domain.FetchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.lastDigest = stored.Digest()

	if stored == nil {
		return &domain.FetchResponse{Status: domain.FetchStatusEmpty}, nil
	}

	return &domain.FetchResponse{
		Status:     domain.FetchStatusOK,
		ServerData: stored,
		Richness:   Richness(stored),
		UpdatedAt:  stored.UpdatedAt(),
	}, nil
}

// Prime records the currently stored document so a later
// NotifyExternalChange can tell foreign edits from our own saves.
func (s *SyncService) Prime(ctx context.Context) error {
	_, err := s.Fetch(ctx)
	return err
}

// NotifyExternalChange reloads the store after something outside this
// process touched it and tells subscribers if the content really changed.
func (s *SyncService) NotifyExternalChange(ctx context.Context) error {
	s.mu.Lock()
	stored, err := s.repo.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	digest := stored.Digest()
	changed := digest != s.lastDigest
	s.lastDigest = digest
	s.mu.Unlock()

	if !changed {
		return nil
	}

	s.logger.Warn("stored document changed outside the sync endpoint",
		"richness", Richness(stored),
		"updated_at", updatedAtOf(stored),
	)
	s.broadcast(websocket.TypeDocumentChangedExternally, stored, Richness(stored), "")
	return nil
}

func (s *SyncService) broadcast(msgType websocket.MessageType, doc *domain.Document, richness int, deviceID string) {
	if s.broadcaster == nil {
		return
	}

	msg, err := websocket.NewMessage(msgType, &websocket.DocumentUpdatedPayload{
		UpdatedAt: updatedAtOf(doc),
		Richness:  richness,
		DeviceID:  deviceID,
		Digest:    doc.Digest(),
	})
	if err != nil {
		s.logger.Error("failed to build notification", "err", err)
		return
	}

	if err := s.broadcaster.Broadcast(msg, deviceID); err != nil {
		s.logger.Error("failed to broadcast notification", "type", msgType, "err", err)
	}
}

func updatedAtOf(doc *domain.Document) int64 {
	if doc == nil {
		return 0
	}
	return doc.UpdatedAt()
}
