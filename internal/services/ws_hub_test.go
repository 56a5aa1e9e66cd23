package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub registers a server-side connection for memberID and returns the client end
func dialHub(t *testing.T, hub *WSHub, memberID string) *websocket.Conn {
	t.Helper()
	registered := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(memberID, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not registered")
	}
	return client
}

func TestWSHub_NotifyOnlineMember(t *testing.T) {
	hub := NewWSHub()
	client := dialHub(t, hub, "a")
	require.True(t, hub.IsOnline("a"))

	hub.Notify("a", WSMessage{Type: EventNewMessage, MatchID: "m1"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, EventNewMessage, msg.Type)
	assert.Equal(t, "m1", msg.MatchID)
	assert.NotZero(t, msg.Timestamp)
}

func TestWSHub_OfflineMember(t *testing.T) {
	hub := NewWSHub()
	assert.False(t, hub.IsOnline("nobody"))
	assert.Error(t, hub.SendToUser("nobody", WSMessage{Type: EventPong}))
	hub.Notify("nobody", WSMessage{Type: EventPong})
}

func TestWSHub_UnregisterIgnoresStaleConnection(t *testing.T) {
	hub := NewWSHub()
	dialHub(t, hub, "a")

	hub.mu.RLock()
	first := hub.connections["a"].conn
	hub.mu.RUnlock()

	dialHub(t, hub, "a")
	hub.Unregister("a", first)
	assert.True(t, hub.IsOnline("a"), "a replaced connection must not remove the new one")

	hub.mu.RLock()
	current := hub.connections["a"].conn
	hub.mu.RUnlock()
	hub.Unregister("a", current)
	assert.False(t, hub.IsOnline("a"))
}
