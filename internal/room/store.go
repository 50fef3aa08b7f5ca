package room

import (
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/iamwsll/poker-score-release/internal/event"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Closer tears down the live room connection. The stream manager satisfies it;
// the store calls it exactly once per Clear so leaving a room always drops the
// socket with it.
type Closer interface {
	Disconnect()
}

// Store owns the room snapshot, the operation log and the settlement context
// for the lifetime of "being in a room". Every mutation, whether projected
// from the event stream or written optimistically after a local command, goes
// through the primitives below, so a duplicate delivery re-applies the same
// values and is a no-op.
type Store struct {
	mu         sync.Mutex
	logger     zerolog.Logger
	selfUserID int64
	snapshot   *Snapshot
	operations []Operation
	settlement *SettlementContext
	conn       Closer
	nextOpID   int64
	departures chan Departure
}

func NewStore(selfUserID int64, logger zerolog.Logger) *Store {
	return &Store{
		logger:     logger.With().Str("component", "room-store").Logger(),
		selfUserID: selfUserID,
		// Seeded from the wall clock once, then strictly incremented, so
		// locally assigned operation ids stay unique and monotonic even under
		// rapid-fire events. Server-assigned ids from history loads are kept.
		nextOpID:   time.Now().UnixMilli(),
		departures: make(chan Departure, 4),
	}
}

// SelfUserID reports the acting user this store projects "my balance" for.
func (s *Store) SelfUserID() int64 {
	return s.selfUserID
}

// BindConnection attaches the live connection so Clear can tear it down.
func (s *Store) BindConnection(conn Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

// Departures delivers the navigation-away signal on self-eviction or room
// dissolution.
func (s *Store) Departures() <-chan Departure {
	return s.departures
}

// SetRoomInfo replaces the room snapshot wholesale. This is the optimistic
// entry point used after fetching room info over HTTP.
func (s *Store) SetRoomInfo(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Members = append([]Member(nil), snap.Members...)
	s.snapshot = &snap
}

// RoomInfo returns a copy of the current snapshot, if any.
func (s *Store) RoomInfo() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return Snapshot{}, false
	}
	snap := *s.snapshot
	snap.Members = append([]Member(nil), s.snapshot.Members...)
	return snap, true
}

// UpsertMember applies a partial member update. Absent fields keep the
// member's previous values; a member first seen here is inserted with status
// online unless the update says otherwise.
func (s *Store) UpsertMember(update MemberUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertMember(update)
}

func (s *Store) upsertMember(update MemberUpdate) {
	if s.snapshot == nil {
		return
	}

	for i := range s.snapshot.Members {
		if s.snapshot.Members[i].UserID != update.UserID {
			continue
		}
		member := &s.snapshot.Members[i]
		if update.Nickname != nil {
			member.Nickname = *update.Nickname
		}
		if update.Balance != nil {
			member.Balance = *update.Balance
		}
		if update.Status != nil {
			member.Status = *update.Status
		}
		return
	}

	member := Member{UserID: update.UserID, Status: StatusOnline}
	if update.Nickname != nil {
		member.Nickname = *update.Nickname
	}
	if update.Balance != nil {
		member.Balance = *update.Balance
	}
	if update.Status != nil {
		member.Status = *update.Status
	}
	s.snapshot.Members = append(s.snapshot.Members, member)
}

// RemoveMember drops a member from the roster.
func (s *Store) RemoveMember(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return
	}
	members := s.snapshot.Members[:0]
	for _, member := range s.snapshot.Members {
		if member.UserID != userID {
			members = append(members, member)
		}
	}
	s.snapshot.Members = members
}

// SetMyBalance sets the acting user's balance. Only called when an event
// explicitly names the acting user as subject.
func (s *Store) SetMyBalance(balance int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMyBalance(balance)
}

func (s *Store) setMyBalance(balance int) {
	if s.snapshot != nil {
		s.snapshot.MyBalance = balance
	}
}

// SetTableBalance mirrors the server-computed table balance.
func (s *Store) SetTableBalance(balance int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTableBalance(balance)
}

func (s *Store) setTableBalance(balance int) {
	if s.snapshot != nil {
		s.snapshot.TableBalance = balance
	}
}

// AppendOperation normalizes one log entry and prepends it, most recent
// first. A zero ID gets the next locally assigned id.
func (s *Store) AppendOperation(op Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendOperation(op)
}

func (s *Store) appendOperation(op Operation) {
	if op.ID == 0 {
		s.nextOpID++
		op.ID = s.nextOpID
	}
	s.operations = append([]Operation{normalizeOperation(op)}, s.operations...)
}

// SetOperations replaces the log with a history fetched over HTTP, running
// the same normalization live events get.
func (s *Store) SetOperations(ops []Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	normalized := make([]Operation, 0, len(ops))
	for _, op := range ops {
		normalized = append(normalized, normalizeOperation(op))
	}
	s.operations = normalized
}

// Operations returns a copy of the log, most recent first.
func (s *Store) Operations() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Operation(nil), s.operations...)
}

// SetSettlementContext replaces the settlement context; nil clears it.
func (s *Store) SetSettlementContext(ctx *SettlementContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSettlementContext(ctx)
}

func (s *Store) setSettlementContext(ctx *SettlementContext) {
	if ctx == nil {
		s.settlement = nil
		return
	}
	copied := *ctx
	s.settlement = &copied
}

// Settlement returns a copy of the settlement context, if any.
func (s *Store) Settlement() (SettlementContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settlement == nil {
		return SettlementContext{}, false
	}
	return *s.settlement, true
}

// Clear resets the snapshot, log and settlement context, and tears down the
// live connection. This is the only destruction path.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Store) clear() {
	s.snapshot = nil
	s.operations = nil
	s.settlement = nil
	if s.conn != nil {
		s.conn.Disconnect()
	}
}

func (s *Store) depart(reason DepartureReason) {
	select {
	case s.departures <- Departure{Reason: reason}:
	default:
		s.logger.Warn().Str("reason", string(reason)).Msg("departure signal dropped, channel full")
	}
}

// normalizeOperation attaches structured data recovered from the legacy
// description encodings. It only ever adds fields.
func normalizeOperation(op Operation) Operation {
	switch op.Type {
	case OpTypeNiuniuBet:
		if len(op.Bets) == 0 {
			if bets, ok := event.RecoverBetFanout(op.Description); ok {
				op.Bets = bets
			}
		}
	case OpTypeSettlementConfirmed:
		if op.Settlement == nil {
			if summary, ok := event.RecoverSettlementSummary(op.Description); ok {
				op.Settlement = summary
			}
		}
	}
	return op
}
