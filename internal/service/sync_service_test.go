package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"timer-sync-server/internal/domain"
	"timer-sync-server/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDocumentRepo struct {
	mu        sync.Mutex
	doc       *domain.Document
	loadErr   error
	saveErr   error
	saves     int
	inFlight  int
	maxFlight int
}

func (m *mockDocumentRepo) enter() {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxFlight {
		m.maxFlight = m.inFlight
	}
	m.mu.Unlock()
}

func (m *mockDocumentRepo) leave() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}

func (m *mockDocumentRepo) Load(ctx context.Context) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.doc, nil
}

func (m *mockDocumentRepo) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = doc
	m.saves++
	return nil
}

func (m *mockDocumentRepo) stored() *domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc
}

// trackingRepo records how many load/save sequences overlap.
type trackingRepo struct {
	*mockDocumentRepo
}

func (r trackingRepo) Load(ctx context.Context) (*domain.Document, error) {
	r.enter()
	time.Sleep(time.Millisecond)
	return r.mockDocumentRepo.Load(ctx)
}

func (r trackingRepo) Save(ctx context.Context, doc *domain.Document) error {
	defer r.leave()
	return r.mockDocumentRepo.Save(ctx, doc)
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []*websocket.Message
	excluded []string
}

func (b *fakeBroadcaster) Broadcast(message *websocket.Message, excludeDeviceID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
	b.excluded = append(b.excluded, excludeDeviceID)
	return nil
}

func TestSyncService_EmptyStoreAccepts(t *testing.T) {
	repo := &mockDocumentRepo{}
	bc := &fakeBroadcaster{}
	svc := NewSyncService(repo, bc, nil)

	candidate := doc(t, `{"updatedAt": 100, "payload": {"history": {"2024-01-01": [1, 2]}}}`)
	res, err := svc.ProcessSync(context.Background(), "phone", candidate)
	require.NoError(t, err)

	assert.Equal(t, domain.SyncStatusAccepted, res.Status)
	assert.Nil(t, res.ServerData)
	assert.True(t, candidate.Equal(repo.stored()))

	require.Len(t, bc.messages, 1)
	assert.Equal(t, websocket.TypeDocumentUpdated, bc.messages[0].Type)
	assert.Equal(t, "phone", bc.excluded[0])

	var payload websocket.DocumentUpdatedPayload
	require.NoError(t, bc.messages[0].UnmarshalPayload(&payload))
	assert.Equal(t, int64(100), payload.UpdatedAt)
	assert.Equal(t, 2, payload.Richness)
}

func TestSyncService_PoorerCandidateGetsConflict(t *testing.T) {
	stored := doc(t, `{"updatedAt": 50, "payload": {"history": {"d1": [1, 2, 3]}}}`)
	repo := &mockDocumentRepo{doc: stored}
	bc := &fakeBroadcaster{}
	svc := NewSyncService(repo, bc, nil)

	res, err := svc.ProcessSync(context.Background(), "", doc(t, `{"updatedAt": 999, "payload": {"history": {"d1": [1]}}}`))
	require.NoError(t, err)

	assert.Equal(t, domain.SyncStatusConflict, res.Status)
	assert.Same(t, stored, res.ServerData)
	assert.Same(t, stored, repo.stored())
	assert.Equal(t, 0, repo.saves)
	assert.Empty(t, bc.messages)
}

func TestSyncService_TieFavoursCandidate(t *testing.T) {
	repo := &mockDocumentRepo{doc: doc(t, `{"updatedAt": 100, "payload": {"history": {"d1": [1, 2]}}}`)}
	svc := NewSyncService(repo, nil, nil)

	candidate := doc(t, `{"updatedAt": 100, "payload": {"history": {"d2": [3, 4]}}}`)
	res, err := svc.ProcessSync(context.Background(), "", candidate)
	require.NoError(t, err)

	assert.Equal(t, domain.SyncStatusAccepted, res.Status)
	assert.True(t, candidate.Equal(repo.stored()))
}

func TestSyncService_StorageErrors(t *testing.T) {
	candidate := doc(t, `{"updatedAt": 1, "payload": {"history": {"d": [1]}}}`)
	diskErr := errors.New("disk on fire")

	t.Run("load", func(t *testing.T) {
		svc := NewSyncService(&mockDocumentRepo{loadErr: diskErr}, nil, nil)
		_, err := svc.ProcessSync(context.Background(), "", candidate)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStorage))
		assert.True(t, errors.Is(err, diskErr))
	})

	t.Run("save", func(t *testing.T) {
		bc := &fakeBroadcaster{}
		svc := NewSyncService(&mockDocumentRepo{saveErr: diskErr}, bc, nil)
		_, err := svc.ProcessSync(context.Background(), "", candidate)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStorage))
		assert.Empty(t, bc.messages)
	})
}

func TestSyncService_NilCandidate(t *testing.T) {
	svc := NewSyncService(&mockDocumentRepo{}, nil, nil)
	_, err := svc.ProcessSync(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestSyncService_SerializesConcurrentRequests(t *testing.T) {
	repo := trackingRepo{&mockDocumentRepo{}}
	svc := NewSyncService(repo, nil, nil)

	// Identical candidates tie on richness and timestamp, so every request
	// is accepted and performs a full load/save pair.
	candidate := historyDoc(t, 10, 2, 1)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.ProcessSync(context.Background(), fmt.Sprintf("device-%d", n), candidate)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, repo.maxFlight)
	assert.Equal(t, 25, repo.saves)
}

func TestSyncService_RichestConcurrentCandidateWins(t *testing.T) {
	repo := &mockDocumentRepo{}
	svc := NewSyncService(repo, nil, nil)

	const clients = 20
	candidates := make([]*domain.Document, clients)
	for i := range candidates {
		candidates[i] = historyDoc(t, int64(i+1), i+1)
	}

	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		go func(c *domain.Document) {
			defer wg.Done()
			_, err := svc.ProcessSync(context.Background(), "", c)
			assert.NoError(t, err)
		}(c)
	}
	wg.Wait()

	assert.Equal(t, clients, Richness(repo.stored()))
}

func TestSyncService_Fetch(t *testing.T) {
	repo := &mockDocumentRepo{}
	svc := NewSyncService(repo, nil, nil)

	res, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.FetchStatusEmpty, res.Status)
	assert.Nil(t, res.ServerData)

	repo.doc = doc(t, `{"updatedAt": 7, "payload": {"history": {"d": [1, 2, 3]}}}`)
	res, err = svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.FetchStatusOK, res.Status)
	assert.Equal(t, 3, res.Richness)
	assert.Equal(t, int64(7), res.UpdatedAt)
}

func TestSyncService_NotifyExternalChange(t *testing.T) {
	repo := &mockDocumentRepo{doc: doc(t, `{"updatedAt": 1}`)}
	bc := &fakeBroadcaster{}
	svc := NewSyncService(repo, bc, nil)
	ctx := context.Background()

	require.NoError(t, svc.Prime(ctx))

	// Nothing changed since priming.
	require.NoError(t, svc.NotifyExternalChange(ctx))
	assert.Empty(t, bc.messages)

	// Our own save must not look like a foreign edit.
	_, err := svc.ProcessSync(ctx, "phone", doc(t, `{"updatedAt": 2, "payload": {"history": {"d": [1]}}}`))
	require.NoError(t, err)
	require.Len(t, bc.messages, 1)
	require.NoError(t, svc.NotifyExternalChange(ctx))
	assert.Len(t, bc.messages, 1)

	// Someone restores a backup behind our back.
	repo.doc = doc(t, `{"updatedAt": 3, "payload": {"history": {"d": [1, 2]}}}`)
	require.NoError(t, svc.NotifyExternalChange(ctx))
	require.Len(t, bc.messages, 2)
	assert.Equal(t, websocket.TypeDocumentChangedExternally, bc.messages[1].Type)
	assert.Equal(t, "", bc.excluded[1])
}
