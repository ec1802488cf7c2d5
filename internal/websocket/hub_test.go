package websocket

import (
	"context"
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

func startHub(t *testing.T) *Hub {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitOnline(t *testing.T, hub *Hub, userID uint, want bool) {
	require.Eventually(t, func() bool { return hub.IsUserOnline(userID) == want }, time.Second, 5*time.Millisecond)
}

func TestHub_SendToUser_AllSessions(t *testing.T) {
	hub := startHub(t)

	phone := NewClient(hub, nil, 1)
	laptop := NewClient(hub, nil, 1)
	other := NewClient(hub, nil, 2)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)
	waitOnline(t, hub, 1, true)
	waitOnline(t, hub, 2, true)

	require.NoError(t, hub.SendToUser(1, Message{Type: MessageOrderConfirmed, Data: map[string]uint{"order_id": 5}}))

	for _, c := range []*Client{phone, laptop} {
		select {
		case data := <-c.Send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, MessageOrderConfirmed, msg.Type)
		case <-time.After(time.Second):
			t.Fatal("session did not receive message")
		}
	}

	select {
	case <-other.Send:
		t.Fatal("other user must not receive message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)

	c := NewClient(hub, nil, 3)
	hub.Register(c)
	waitOnline(t, hub, 3, true)

	hub.Unregister(c)
	waitOnline(t, hub, 3, false)

	_, ok := <-c.Send
	assert.False(t, ok, "send channel closed on unregister")
}

func TestHub_HandleClientMessage_PingAndRateLimit(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, 4)

	hub.HandleClientMessage(c, []byte(`{"type":"ping"}`))
	require.Len(t, c.Send, 1)
	assert.JSONEq(t, `{"type":"pong"}`, string(<-c.Send))

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		hub.HandleClientMessage(c, []byte(`{"type":"ping"}`))
	}
	assert.Len(t, c.Send, maxMessagesPerSecond-1)
}

func TestClient_Pumps(t *testing.T) {
	hub := startHub(t)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		client := NewClient(hub, &Conn{Conn: conn}, 9)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitOnline(t, hub, 9, true)
	require.NoError(t, hub.SendToUser(9, Message{Type: MessageCheckoutStatus, Data: "OPEN"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"checkout.status","data":"OPEN"}`, string(data))

	conn.Close()
	waitOnline(t, hub, 9, false)
}
