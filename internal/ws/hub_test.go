package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Start()

	server := NewServer(hub)
	ts := httptest.NewServer(http.HandlerFunc(server.HandleConnection))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the hub loop to pick the client up before broadcasting.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()

		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(Message{
		Event: "notification:created",
		Data:  json.RawMessage(`{"title":"Payment Confirmed"}`),
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))

	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification:created", got.Event)
	assert.JSONEq(t, `{"title":"Payment Confirmed"}`, string(got.Data))
}
