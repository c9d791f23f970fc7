package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"timer-sync-server/internal/websocket"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, query string, header http.Header) (*ws.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	return ws.DefaultDialer.Dial(url, header)
}

func readMessage(t *testing.T, conn *ws.Conn) websocket.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_RejectsUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	_, resp, err := dial(t, srv, "", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "?ticket=forged", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_TicketSubscriberSeesAcceptedSync(t *testing.T) {
	s := newTestServer(t)
	s.manager.SetMessageHandler(NewWebSocketMessageHandler(s.manager))
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ticket, err := s.auth.IssueTicket("laptop")
	require.NoError(t, err)

	conn, _, err := dial(t, srv, "?ticket="+ticket.Ticket, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.manager.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, websocket.TypePong, readMessage(t, conn).Type)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/sync",
		strings.NewReader(`{"updatedAt": 10, "payload": {"history": {"d": [1, 2, 3]}}}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("X-Device-ID", "phone")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msg := readMessage(t, conn)
	require.Equal(t, websocket.TypeDocumentUpdated, msg.Type)

	var payload websocket.DocumentUpdatedPayload
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, int64(10), payload.UpdatedAt)
	assert.Equal(t, 3, payload.Richness)
	assert.Equal(t, "phone", payload.DeviceID)
}

func TestWebSocket_BearerHeaderAndUnknownType(t *testing.T) {
	s := newTestServer(t)
	s.manager.SetMessageHandler(NewWebSocketMessageHandler(s.manager))
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+testToken)
	conn, _, err := dial(t, srv, "?device_id=desk", header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe"}))
	msg := readMessage(t, conn)
	require.Equal(t, websocket.TypeError, msg.Type)

	var payload websocket.ErrorPayload
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Contains(t, payload.Error, "subscribe")
}
