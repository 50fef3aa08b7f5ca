package stream

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/iamwsll/poker-score-release/internal/event"
)

// Handler consumes events extracted from the stream. Events from one frame are
// delivered in frame order, one at a time, from the read loop goroutine.
type Handler func(event.Event)

// Manager owns the one persistent websocket per active room. It does not
// retry on its own: an unexpected close resets it to "no connection" and the
// next Connect call re-opens.
type Manager struct {
	mu        sync.Mutex
	logger    zerolog.Logger
	origin    string
	sessionID string
	handler   Handler

	conn   *websocket.Conn
	roomID int64
	gen    uint64
}

// NewManager wires a manager against a backend origin. sessionID is appended
// as a query parameter on the handshake, the token fallback for clients that
// cannot rely on cookie propagation.
func NewManager(origin, sessionID string, handler Handler, logger zerolog.Logger) *Manager {
	return &Manager{
		logger:    logger.With().Str("component", "stream").Logger(),
		origin:    origin,
		sessionID: sessionID,
		handler:   handler,
	}
}

// Connect opens the room stream. Connecting to the room that is already live
// is a no-op; connecting to a different room replaces the old connection.
func (m *Manager) Connect(roomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		if m.roomID == roomID {
			return nil
		}
		m.logger.Info().Int64("old_room_id", m.roomID).Int64("room_id", roomID).Msg("switching rooms, closing old stream")
		m.closeLocked()
	}

	endpoint, err := m.roomURL(roomID)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		m.logger.Error().Err(err).Int64("room_id", roomID).Msg("failed to open room stream")
		return fmt.Errorf("dial room %d: %w", roomID, err)
	}

	m.conn = conn
	m.roomID = roomID
	m.gen++

	connID := uuid.NewString()
	m.logger.Info().Int64("room_id", roomID).Str("conn_id", connID).Msg("room stream connected")
	go m.readLoop(conn, m.gen, connID)

	return nil
}

// Disconnect closes any live connection and clears the current-room marker.
// Safe to call when nothing is connected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

// RoomID reports the room the live connection belongs to, or 0.
func (m *Manager) RoomID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *Manager) closeLocked() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.roomID = 0
}

func (m *Manager) readLoop(conn *websocket.Conn, gen uint64, connID string) {
	logger := m.logger.With().Str("conn_id", connID).Logger()

	defer func() {
		_ = conn.Close()
		m.mu.Lock()
		// A newer Connect may already own the slot; only the loop for the
		// current generation resets it.
		if m.gen == gen {
			m.conn = nil
			m.roomID = 0
		}
		m.mu.Unlock()
		logger.Info().Msg("room stream closed")
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("room stream read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		for _, env := range event.DecodeFrame(data) {
			ev, err := event.Parse(env)
			if err != nil {
				logger.Warn().Err(err).Str("type", env.Type).Msg("dropping undecodable event")
				continue
			}
			if ev == nil {
				continue
			}
			m.handler(ev)
		}
	}
}

func (m *Manager) roomURL(roomID int64) (string, error) {
	u, err := url.Parse(m.origin)
	if err != nil {
		return "", fmt.Errorf("parse backend origin: %w", err)
	}

	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("/api/ws/room/%d", roomID)

	if m.sessionID != "" {
		query := u.Query()
		query.Set("session_id", m.sessionID)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
