package event

import "fmt"

// Kind identifies one of the room event kinds the server pushes.
type Kind string

const (
	KindUserJoined          Kind = "user_joined"
	KindUserReturned        Kind = "user_returned"
	KindUserLeft            Kind = "user_left"
	KindUserKicked          Kind = "user_kicked"
	KindBet                 Kind = "bet"
	KindNiuniuBet           Kind = "niuniu_bet"
	KindWithdraw            Kind = "withdraw"
	KindForceTransfer       Kind = "force_transfer"
	KindSettlementInitiated Kind = "settlement_initiated"
	KindSettlementConfirmed Kind = "settlement_confirmed"
	KindRoomDissolved       Kind = "room_dissolved"
)

// Event is the tagged union over the room event kinds. The projector switches
// exhaustively over the concrete types below; adding a kind means adding a type
// here and a case there.
type Event interface {
	Kind() Kind
}

// BetDetail is one recipient of a fan-out bet.
type BetDetail struct {
	ToUserID   int64  `json:"to_user_id"`
	ToNickname string `json:"to_nickname,omitempty"`
	Amount     int    `json:"amount"`
}

// SettlementPlanItem is one directed transfer in a settlement plan.
type SettlementPlanItem struct {
	FromUserID   int64   `json:"from_user_id"`
	FromNickname string  `json:"from_nickname"`
	ToUserID     int64   `json:"to_user_id"`
	ToNickname   string  `json:"to_nickname"`
	ChipAmount   int     `json:"chip_amount"`
	RmbAmount    float64 `json:"rmb_amount"`
	Description  string  `json:"description"`
}

// SettlementDetail is one member's final position in a confirmed settlement.
type SettlementDetail struct {
	UserID     int64   `json:"user_id"`
	Nickname   string  `json:"nickname,omitempty"`
	ChipAmount int     `json:"chip_amount"`
	RmbAmount  float64 `json:"rmb_amount,omitempty"`
}

// SettlementSummary is the structured payout record attached to a confirmed
// settlement.
type SettlementSummary struct {
	Batch     string             `json:"batch,omitempty"`
	ChipRate  string             `json:"chip_rate,omitempty"`
	SettledAt string             `json:"settled_at,omitempty"`
	Details   []SettlementDetail `json:"details"`
}

type UserJoined struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Balance  *int   `json:"balance"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

func (UserJoined) Kind() Kind { return KindUserJoined }

type UserReturned struct {
	UserID     int64  `json:"user_id"`
	Nickname   string `json:"nickname"`
	Balance    *int   `json:"balance"`
	Status     string `json:"status"`
	ReturnedAt string `json:"returned_at"`
}

func (UserReturned) Kind() Kind { return KindUserReturned }

type UserLeft struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Status   string `json:"status"`
	LeftAt   string `json:"left_at"`
}

func (UserLeft) Kind() Kind { return KindUserLeft }

type UserKicked struct {
	UserID           int64  `json:"user_id"`
	Nickname         string `json:"nickname"`
	KickedBy         int64  `json:"kicked_by"`
	KickedByNickname string `json:"kicked_by_nickname"`
	Status           string `json:"status"`
	KickedAt         string `json:"kicked_at"`
}

func (UserKicked) Kind() Kind { return KindUserKicked }

type Bet struct {
	UserID       int64  `json:"user_id"`
	Nickname     string `json:"nickname"`
	Amount       int    `json:"amount"`
	Balance      *int   `json:"balance"`
	TableBalance *int   `json:"table_balance"`
	CreatedAt    string `json:"created_at"`
}

func (Bet) Kind() Kind { return KindBet }

type NiuniuBet struct {
	UserID       int64            `json:"user_id"`
	Nickname     string           `json:"nickname"`
	TotalAmount  *int             `json:"total_amount"`
	Balance      *int             `json:"balance"`
	TableBalance *int             `json:"table_balance"`
	Bets         []looseBetDetail `json:"bets"`
	CreatedAt    string           `json:"created_at"`
}

func (NiuniuBet) Kind() Kind { return KindNiuniuBet }

// BetDetails returns the fan-out list carried on the wire with malformed
// elements filtered out.
func (e NiuniuBet) BetDetails() []BetDetail {
	return sanitizeBetDetails(e.Bets)
}

type Withdraw struct {
	UserID       int64  `json:"user_id"`
	Nickname     string `json:"nickname"`
	Amount       int    `json:"amount"`
	Balance      *int   `json:"balance"`
	TableBalance *int   `json:"table_balance"`
	CreatedAt    string `json:"created_at"`
}

func (Withdraw) Kind() Kind { return KindWithdraw }

type ForceTransfer struct {
	UserID         int64  `json:"user_id"`
	Nickname       string `json:"nickname"`
	TargetUserID   int64  `json:"target_user_id"`
	TargetNickname string `json:"target_nickname"`
	Amount         int    `json:"amount"`
	Balance        *int   `json:"balance"`
	TargetBalance  *int   `json:"target_balance"`
	TableBalance   *int   `json:"table_balance"`
	CreatedAt      string `json:"created_at"`
}

func (ForceTransfer) Kind() Kind { return KindForceTransfer }

type SettlementInitiated struct {
	InitiatedBy         int64                `json:"initiated_by"`
	InitiatedByNickname string               `json:"initiated_by_nickname"`
	InitiatedAt         string               `json:"initiated_at"`
	SettlementPlan      []SettlementPlanItem `json:"settlement_plan"`
	TableBalance        *int                 `json:"table_balance"`
}

func (SettlementInitiated) Kind() Kind { return KindSettlementInitiated }

type SettlementConfirmed struct {
	ConfirmedBy         int64              `json:"confirmed_by"`
	ConfirmedByNickname string             `json:"confirmed_by_nickname"`
	SettlementBatch     string             `json:"settlement_batch"`
	SettledAt           string             `json:"settled_at"`
	Summary             *SettlementSummary `json:"summary"`
	// Description is the legacy transitional encoding of Summary; see
	// RecoverSettlementSummary.
	Description string `json:"description"`
}

func (SettlementConfirmed) Kind() Kind { return KindSettlementConfirmed }

type RoomDissolved struct {
	RoomID      int64  `json:"room_id"`
	DissolvedAt string `json:"dissolved_at"`
}

func (RoomDissolved) Kind() Kind { return KindRoomDissolved }

// Parse turns an envelope into its typed event. Unrecognized types yield
// (nil, nil) and are skipped by the caller; a payload that does not decode
// yields an error so the caller can log and drop it.
func Parse(env Envelope) (Event, error) {
	switch Kind(env.Type) {
	case KindUserJoined:
		return decode[UserJoined](env)
	case KindUserReturned:
		return decode[UserReturned](env)
	case KindUserLeft:
		return decode[UserLeft](env)
	case KindUserKicked:
		return decode[UserKicked](env)
	case KindBet:
		return decode[Bet](env)
	case KindNiuniuBet:
		return decode[NiuniuBet](env)
	case KindWithdraw:
		return decode[Withdraw](env)
	case KindForceTransfer:
		return decode[ForceTransfer](env)
	case KindSettlementInitiated:
		return decode[SettlementInitiated](env)
	case KindSettlementConfirmed:
		return decode[SettlementConfirmed](env)
	case KindRoomDissolved:
		return decode[RoomDissolved](env)
	default:
		return nil, nil
	}
}

func decode[E Event](env Envelope) (Event, error) {
	var ev E
	if len(env.Data) > 0 {
		if err := json.Unmarshal([]byte(env.Data), &ev); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	return ev, nil
}
