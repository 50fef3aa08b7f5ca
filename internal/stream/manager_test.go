package stream

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwsll/poker-score-release/internal/event"
)

// roomServer mimics the backend's room stream endpoint: a gin route that
// upgrades to a websocket and hands the raw connection to the test.
type roomServer struct {
	srv      *httptest.Server
	conns    chan *serverConn
	upgrades atomic.Int32
}

type serverConn struct {
	conn      *websocket.Conn
	roomID    string
	sessionID string
}

func newRoomServer(t *testing.T) *roomServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rs := &roomServer{conns: make(chan *serverConn, 8)}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	router := gin.New()
	router.GET("/api/ws/room/:room_id", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		rs.upgrades.Add(1)
		rs.conns <- &serverConn{
			conn:      conn,
			roomID:    c.Param("room_id"),
			sessionID: c.Query("session_id"),
		}
	})

	rs.srv = httptest.NewServer(router)
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *roomServer) accept(t *testing.T) *serverConn {
	t.Helper()
	select {
	case conn := <-rs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a websocket upgrade")
		return nil
	}
}

func collector() (Handler, <-chan event.Event) {
	events := make(chan event.Event, 16)
	return func(ev event.Event) { events <- ev }, events
}

func nextEvent(t *testing.T, events <-chan event.Event) event.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func TestConnectDeliversFrameEventsInOrder(t *testing.T) {
	rs := newRoomServer(t)
	handler, events := collector()
	manager := NewManager(rs.srv.URL, "token-1", handler, zerolog.Nop())

	require.NoError(t, manager.Connect(42))
	conn := rs.accept(t)
	assert.Equal(t, "42", conn.roomID)
	assert.Equal(t, "token-1", conn.sessionID)

	frame := "{\"type\":\"bet\",\"data\":{\"user_id\":1,\"amount\":10}}\nnot-json\n{\"type\":\"withdraw\",\"data\":{\"user_id\":1,\"amount\":5}}"
	require.NoError(t, conn.conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	first := nextEvent(t, events)
	bet, ok := first.(event.Bet)
	require.True(t, ok, "expected a bet, got %T", first)
	assert.Equal(t, 10, bet.Amount)

	second := nextEvent(t, events)
	withdraw, ok := second.(event.Withdraw)
	require.True(t, ok, "expected a withdraw, got %T", second)
	assert.Equal(t, 5, withdraw.Amount)

	select {
	case extra := <-events:
		t.Fatalf("unexpected extra event %T", extra)
	case <-time.After(100 * time.Millisecond):
	}

	manager.Disconnect()
}

func TestConnectSameRoomIsNoop(t *testing.T) {
	rs := newRoomServer(t)
	handler, _ := collector()
	manager := NewManager(rs.srv.URL, "", handler, zerolog.Nop())

	require.NoError(t, manager.Connect(7))
	rs.accept(t)
	require.NoError(t, manager.Connect(7))

	assert.Equal(t, int32(1), rs.upgrades.Load())
	assert.Equal(t, int64(7), manager.RoomID())

	manager.Disconnect()
}

func TestConnectDifferentRoomReplacesConnection(t *testing.T) {
	rs := newRoomServer(t)
	handler, _ := collector()
	manager := NewManager(rs.srv.URL, "", handler, zerolog.Nop())

	require.NoError(t, manager.Connect(1))
	old := rs.accept(t)

	require.NoError(t, manager.Connect(2))
	replacement := rs.accept(t)
	assert.Equal(t, "2", replacement.roomID)
	assert.Equal(t, int64(2), manager.RoomID())

	// The old connection is gone; the server read fails once the close
	// propagates.
	_ = old.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := old.conn.ReadMessage()
	assert.Error(t, err)

	manager.Disconnect()
}

func TestDisconnectWithoutConnection(t *testing.T) {
	handler, _ := collector()
	manager := NewManager("http://localhost:0", "", handler, zerolog.Nop())

	manager.Disconnect()
	assert.Equal(t, int64(0), manager.RoomID())
}

func TestDisconnectThenReconnect(t *testing.T) {
	rs := newRoomServer(t)
	handler, _ := collector()
	manager := NewManager(rs.srv.URL, "", handler, zerolog.Nop())

	require.NoError(t, manager.Connect(3))
	rs.accept(t)

	manager.Disconnect()
	assert.Equal(t, int64(0), manager.RoomID())

	require.NoError(t, manager.Connect(3))
	rs.accept(t)
	assert.Equal(t, int64(3), manager.RoomID())

	manager.Disconnect()
}

func TestServerCloseResetsManager(t *testing.T) {
	rs := newRoomServer(t)
	handler, _ := collector()
	manager := NewManager(rs.srv.URL, "", handler, zerolog.Nop())

	require.NoError(t, manager.Connect(5))
	conn := rs.accept(t)

	// Server drops the connection; the manager resets to "no connection" so
	// the next Connect re-opens instead of deduping.
	require.NoError(t, conn.conn.Close())
	require.Eventually(t, func() bool {
		return manager.RoomID() == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, manager.Connect(5))
	rs.accept(t)
	assert.Equal(t, int64(5), manager.RoomID())

	manager.Disconnect()
}

func TestConnectFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	handler, _ := collector()
	manager := NewManager(srv.URL, "", handler, zerolog.Nop())

	assert.Error(t, manager.Connect(1))
	assert.Equal(t, int64(0), manager.RoomID())
}

func TestRoomURL(t *testing.T) {
	handler, _ := collector()

	manager := NewManager("https://score.example.com", "abc", handler, zerolog.Nop())
	endpoint, err := manager.roomURL(12)
	require.NoError(t, err)
	assert.Equal(t, "wss://score.example.com/api/ws/room/12?session_id=abc", endpoint)

	manager = NewManager("http://localhost:8080", "", handler, zerolog.Nop())
	endpoint, err = manager.roomURL(12)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/ws/room/12", endpoint)
}
