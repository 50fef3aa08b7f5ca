package room

import (
	"github.com/iamwsll/poker-score-release/internal/event"
)

// RoomType is the game variant a room was created for.
type RoomType string

const (
	RoomTypeTexas  RoomType = "texas"
	RoomTypeNiuniu RoomType = "niuniu"
)

// Member is one entry in the room roster, keyed by UserID.
type Member struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Balance  int    `json:"balance"`
	Status   string `json:"status"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// MemberUpdate is a partial member upsert. Nil fields preserve whatever the
// roster already holds; on first insert nickname and balance default to their
// zero values and status defaults to online.
type MemberUpdate struct {
	UserID   int64
	Nickname *string
	Balance  *int
	Status   *string
}

// Snapshot is the local projection of one room: metadata, balances and roster.
// The server is the source of truth; nothing in here is derived locally.
type Snapshot struct {
	RoomID       int64    `json:"room_id"`
	RoomCode     string   `json:"room_code"`
	RoomType     RoomType `json:"room_type"`
	ChipRate     string   `json:"chip_rate"`
	Status       string   `json:"status"`
	CreatedBy    int64    `json:"created_by"`
	TableBalance int      `json:"table_balance"`
	MyBalance    int      `json:"my_balance"`
	Members      []Member `json:"members"`
}

// OperationType tags one entry of the room operation log.
type OperationType string

const (
	OpTypeJoin                OperationType = "join"
	OpTypeReturn              OperationType = "return"
	OpTypeLeave               OperationType = "leave"
	OpTypeKick                OperationType = "kick"
	OpTypeBet                 OperationType = "bet"
	OpTypeWithdraw            OperationType = "withdraw"
	OpTypeNiuniuBet           OperationType = "niuniu_bet"
	OpTypeForceTransfer       OperationType = "force_transfer"
	OpTypeSettlementInitiated OperationType = "settlement_initiated"
	OpTypeSettlementConfirmed OperationType = "settlement_confirmed"
	OpTypeRoomDissolved       OperationType = "room_dissolved"
)

// Operation is one immutable entry of the room operation log, most recent
// first. Normalization may attach the structured Bets or Settlement fields but
// never rewrites the type, amount or timestamp it was recorded with.
type Operation struct {
	ID             int64                    `json:"id"`
	UserID         int64                    `json:"user_id"`
	Nickname       string                   `json:"nickname"`
	Type           OperationType            `json:"operation_type"`
	Amount         *int                     `json:"amount,omitempty"`
	Description    string                   `json:"description"`
	TargetUserID   *int64                   `json:"target_user_id,omitempty"`
	TargetNickname string                   `json:"target_nickname,omitempty"`
	CreatedAt      string                   `json:"created_at"`
	Bets           []event.BetDetail        `json:"bets,omitempty"`
	Settlement     *event.SettlementSummary `json:"settlement_summary,omitempty"`
}

// SettlementContext tracks the in-flight or most recent settlement
// negotiation. It is created on initiation and promoted in place on
// confirmation; confirmation payloads that omit fields fall back to whatever
// the initiation recorded.
type SettlementContext struct {
	InitiatedBy         int64                      `json:"initiated_by"`
	InitiatedByNickname string                     `json:"initiated_by_nickname"`
	InitiatedAt         string                     `json:"initiated_at"`
	SettlementPlan      []event.SettlementPlanItem `json:"settlement_plan"`
	TableBalance        int                        `json:"table_balance"`
	Confirmed           bool                       `json:"confirmed"`
	ConfirmedBy         int64                      `json:"confirmed_by,omitempty"`
	ConfirmedByNickname string                     `json:"confirmed_by_nickname,omitempty"`
	ConfirmedAt         string                     `json:"confirmed_at,omitempty"`
}

// DepartureReason says why the engine abandoned the room on its own.
type DepartureReason string

const (
	DepartureKicked    DepartureReason = "kicked"
	DepartureDissolved DepartureReason = "room_dissolved"
)

// Departure is the navigation-away signal emitted when the local user is
// evicted or the room is dissolved.
type Departure struct {
	Reason DepartureReason
}
