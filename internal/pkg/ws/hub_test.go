package ws

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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// newTestServer 每个连接注册为 userID，直到客户端断开
func newTestServer(t *testing.T, hub *Hub, userID string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := &Client{UserID: userID, Conn: conn}
		hub.Register(client)
		defer hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_Empty(t *testing.T) {
	hub := NewHub()

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline("u-1"))

	// 离线用户不报错
	err := hub.SendToUser("u-1", &Message{Type: "test"})
	assert.NoError(t, err)
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub, "u-1")
	defer server.Close()

	conn := dial(t, server)

	assert.Eventually(t, func() bool { return hub.IsOnline("u-1") }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.ConnectionCount())

	conn.Close()
	assert.Eventually(t, func() bool { return !hub.IsOnline("u-1") }, time.Second, 10*time.Millisecond)
}

func TestHub_SendToUser_AllConnections(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub, "u-2")
	defer server.Close()

	// 同一用户多标签页
	conn1 := dial(t, server)
	defer conn1.Close()
	conn2 := dial(t, server)
	defer conn2.Close()

	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	err := hub.SendToUser("u-2", &Message{
		Type: "fee_notification",
		Data: map[string]string{"month": "2025-03"},
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, received, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(received), "fee_notification")
		assert.Contains(t, string(received), "2025-03")
	}
}
