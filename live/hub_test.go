package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsPair поднимает сервер и возвращает серверную и клиентскую стороны одного соединения.
func wsPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-conns:
	case <-time.After(2 * time.Second):
		t.Fatal("server side of websocket not ready")
	}
	return server, client
}

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(cancel)
	return hub, cancel, stopped
}

func TestBroadcastReachesRoomMembers(t *testing.T) {
	hub, _, _ := startHub(t)
	serverConn, clientConn := wsPair(t)

	require.True(t, NewClient(hub, serverConn, EventRoom(5)).Serve())
	require.Eventually(t, func() bool { return hub.RoomSize("event_5") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom(EventRoom(5), Message{Type: MessageAttendanceUpdated, Payload: map[string]int{"eventId": 5}})
	hub.BroadcastToRoom(EventRoom(6), Message{Type: "OTHER"})

	require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, clientConn.ReadJSON(&msg))
	assert.Equal(t, MessageAttendanceUpdated, msg.Type)
}

func TestServeAfterHubStopDoesNotBlock(t *testing.T) {
	hub, cancel, stopped := startHub(t)
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	serverConn, _ := wsPair(t)
	served := make(chan bool, 1)
	go func() { served <- NewClient(hub, serverConn, EventRoom(1)).Serve() }()

	select {
	case ok := <-served:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve blocked on a stopped hub")
	}
}

func TestClientDisconnectAfterHubStopDoesNotBlock(t *testing.T) {
	hub, cancel, stopped := startHub(t)
	serverConn, clientConn := wsPair(t)

	c := NewClient(hub, serverConn, EventRoom(2))
	require.True(t, c.Serve())
	require.Eventually(t, func() bool { return hub.RoomSize("event_2") == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
	assert.Equal(t, 0, hub.RoomSize("event_2"))

	// Выход readPump после остановки хаба не должен зависнуть на unregister.
	clientConn.Close()
	done := make(chan struct{})
	go func() {
		c.leave()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client leave blocked on a stopped hub")
	}
}
