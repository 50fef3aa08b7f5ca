package room

import (
	"fmt"
	"strings"
	"time"

	"github.com/iamwsll/poker-score-release/internal/event"
)

// Apply projects one typed event onto the store. Handlers are set-style
// upserts, never increments, so duplicate delivery of the same event is safe;
// the whole event is applied under one lock so no event is ever half-applied.
func (s *Store) Apply(ev event.Event) {
	if ev == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case event.UserJoined:
		s.applyUserJoined(e)
	case event.UserReturned:
		s.applyUserReturned(e)
	case event.UserLeft:
		s.applyUserLeft(e)
	case event.UserKicked:
		s.applyUserKicked(e)
	case event.Bet:
		s.applyBet(e)
	case event.NiuniuBet:
		s.applyNiuniuBet(e)
	case event.Withdraw:
		s.applyWithdraw(e)
	case event.ForceTransfer:
		s.applyForceTransfer(e)
	case event.SettlementInitiated:
		s.applySettlementInitiated(e)
	case event.SettlementConfirmed:
		s.applySettlementConfirmed(e)
	case event.RoomDissolved:
		s.applyRoomDissolved(e)
	default:
		s.logger.Warn().Str("kind", string(ev.Kind())).Msg("no projection for event kind")
	}
}

func (s *Store) applyUserJoined(e event.UserJoined) {
	status := statusOr(e.Status, StatusOnline)
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Balance:  e.Balance,
		Status:   &status,
	})
	s.appendOperation(Operation{
		UserID:      e.UserID,
		Nickname:    e.Nickname,
		Type:        OpTypeJoin,
		Description: "joined the room",
		CreatedAt:   orNow(e.JoinedAt),
	})
}

func (s *Store) applyUserReturned(e event.UserReturned) {
	status := statusOr(e.Status, StatusOnline)
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Balance:  e.Balance,
		Status:   &status,
	})
	if e.UserID == s.selfUserID && e.Balance != nil {
		s.setMyBalance(*e.Balance)
	}
	s.appendOperation(Operation{
		UserID:      e.UserID,
		Nickname:    e.Nickname,
		Type:        OpTypeReturn,
		Description: "returned to the room",
		CreatedAt:   orNow(e.ReturnedAt),
	})
}

func (s *Store) applyUserLeft(e event.UserLeft) {
	status := statusOr(e.Status, StatusOffline)
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Status:   &status,
	})
	s.appendOperation(Operation{
		UserID:      e.UserID,
		Nickname:    e.Nickname,
		Type:        OpTypeLeave,
		Description: "left the room",
		CreatedAt:   orNow(e.LeftAt),
	})
}

func (s *Store) applyUserKicked(e event.UserKicked) {
	status := statusOr(e.Status, StatusOffline)
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Status:   &status,
	})

	targetUserID := e.UserID
	s.appendOperation(Operation{
		UserID:         e.KickedBy,
		Nickname:       e.KickedByNickname,
		Type:           OpTypeKick,
		Description:    fmt.Sprintf("kicked %s", e.Nickname),
		TargetUserID:   &targetUserID,
		TargetNickname: e.Nickname,
		CreatedAt:      orNow(e.KickedAt),
	})

	if e.UserID == s.selfUserID {
		s.logger.Info().Int64("kicked_by", e.KickedBy).Msg("removed from room, leaving")
		s.depart(DepartureKicked)
		s.clear()
	}
}

func (s *Store) applyBet(e event.Bet) {
	if e.TableBalance != nil {
		s.setTableBalance(*e.TableBalance)
	}
	// No status in the update: an existing member keeps theirs, a first
	// insert defaults to online.
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Balance:  e.Balance,
	})
	if e.UserID == s.selfUserID && e.Balance != nil {
		s.setMyBalance(*e.Balance)
	}

	amount := e.Amount
	s.appendOperation(Operation{
		UserID:      e.UserID,
		Nickname:    e.Nickname,
		Type:        OpTypeBet,
		Amount:      &amount,
		Description: fmt.Sprintf("bet %d points", e.Amount),
		CreatedAt:   orNow(e.CreatedAt),
	})
}

func (s *Store) applyNiuniuBet(e event.NiuniuBet) {
	if e.TableBalance != nil {
		s.setTableBalance(*e.TableBalance)
	}
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Balance:  e.Balance,
	})
	if e.UserID == s.selfUserID && e.Balance != nil {
		s.setMyBalance(*e.Balance)
	}

	details := e.BetDetails()
	description, err := json.MarshalToString(details)
	if err != nil {
		description = ""
	}

	op := Operation{
		UserID:      e.UserID,
		Nickname:    e.Nickname,
		Type:        OpTypeNiuniuBet,
		Description: description,
		Bets:        details,
		CreatedAt:   orNow(e.CreatedAt),
	}
	if e.TotalAmount != nil {
		amount := *e.TotalAmount
		op.Amount = &amount
	}
	s.appendOperation(op)
}

func (s *Store) applyWithdraw(e event.Withdraw) {
	if e.TableBalance != nil {
		s.setTableBalance(*e.TableBalance)
	}
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Balance:  e.Balance,
	})
	if e.UserID == s.selfUserID && e.Balance != nil {
		s.setMyBalance(*e.Balance)
	}

	amount := e.Amount
	s.appendOperation(Operation{
		UserID:      e.UserID,
		Nickname:    e.Nickname,
		Type:        OpTypeWithdraw,
		Amount:      &amount,
		Description: fmt.Sprintf("withdrew %d points", e.Amount),
		CreatedAt:   orNow(e.CreatedAt),
	})
}

func (s *Store) applyForceTransfer(e event.ForceTransfer) {
	if e.TableBalance != nil {
		s.setTableBalance(*e.TableBalance)
	}
	s.upsertMember(MemberUpdate{
		UserID:   e.UserID,
		Nickname: &e.Nickname,
		Balance:  e.Balance,
	})
	s.upsertMember(MemberUpdate{
		UserID:   e.TargetUserID,
		Nickname: &e.TargetNickname,
		Balance:  e.TargetBalance,
	})
	if e.UserID == s.selfUserID && e.Balance != nil {
		s.setMyBalance(*e.Balance)
	}
	if e.TargetUserID == s.selfUserID && e.TargetBalance != nil {
		s.setMyBalance(*e.TargetBalance)
	}

	amount := e.Amount
	targetUserID := e.TargetUserID
	s.appendOperation(Operation{
		UserID:         e.UserID,
		Nickname:       e.Nickname,
		Type:           OpTypeForceTransfer,
		Amount:         &amount,
		Description:    fmt.Sprintf("transferred %d points from the table to %s", e.Amount, e.TargetNickname),
		TargetUserID:   &targetUserID,
		TargetNickname: e.TargetNickname,
		CreatedAt:      orNow(e.CreatedAt),
	})
}

func (s *Store) applySettlementInitiated(e event.SettlementInitiated) {
	tableBalance := 0
	if e.TableBalance != nil {
		tableBalance = *e.TableBalance
	} else if s.snapshot != nil {
		tableBalance = s.snapshot.TableBalance
	}

	s.setSettlementContext(&SettlementContext{
		InitiatedBy:         e.InitiatedBy,
		InitiatedByNickname: e.InitiatedByNickname,
		InitiatedAt:         orNow(e.InitiatedAt),
		SettlementPlan:      append([]event.SettlementPlanItem(nil), e.SettlementPlan...),
		TableBalance:        tableBalance,
		Confirmed:           false,
	})

	s.appendOperation(Operation{
		UserID:      e.InitiatedBy,
		Nickname:    e.InitiatedByNickname,
		Type:        OpTypeSettlementInitiated,
		Description: "initiated settlement",
		CreatedAt:   orNow(e.InitiatedAt),
	})
}

func (s *Store) applySettlementConfirmed(e event.SettlementConfirmed) {
	settledAt := orNow(e.SettledAt)

	summary := e.Summary
	if summary == nil {
		if recovered, ok := event.RecoverSettlementSummary(e.Description); ok {
			summary = recovered
		}
	}

	// Promote the existing context in place; the confirmation payload does
	// not repeat the plan or initiator, so the prior context is the fallback.
	ctx := SettlementContext{
		InitiatedBy:         e.ConfirmedBy,
		InitiatedByNickname: e.ConfirmedByNickname,
		InitiatedAt:         settledAt,
		Confirmed:           true,
		ConfirmedBy:         e.ConfirmedBy,
		ConfirmedByNickname: e.ConfirmedByNickname,
		ConfirmedAt:         settledAt,
	}
	if s.snapshot != nil {
		ctx.TableBalance = s.snapshot.TableBalance
	}
	if prior := s.settlement; prior != nil {
		ctx.InitiatedBy = prior.InitiatedBy
		ctx.InitiatedByNickname = prior.InitiatedByNickname
		ctx.InitiatedAt = prior.InitiatedAt
		ctx.SettlementPlan = prior.SettlementPlan
		ctx.TableBalance = prior.TableBalance
	}
	s.setSettlementContext(&ctx)

	description := e.Description
	if strings.TrimSpace(description) == "" {
		description = "confirmed settlement"
	}
	s.appendOperation(Operation{
		UserID:      e.ConfirmedBy,
		Nickname:    e.ConfirmedByNickname,
		Type:        OpTypeSettlementConfirmed,
		Description: description,
		Settlement:  summary,
		CreatedAt:   settledAt,
	})

	// A confirmed settlement drains the table by definition.
	if s.snapshot != nil {
		s.snapshot.MyBalance = 0
		s.snapshot.TableBalance = 0
		for i := range s.snapshot.Members {
			s.snapshot.Members[i].Balance = 0
		}
	}
}

func (s *Store) applyRoomDissolved(e event.RoomDissolved) {
	s.appendOperation(Operation{
		UserID:      0,
		Type:        OpTypeRoomDissolved,
		Description: "room dissolved",
		CreatedAt:   orNow(e.DissolvedAt),
	})

	s.logger.Info().Int64("room_id", e.RoomID).Msg("room dissolved, leaving")
	s.depart(DepartureDissolved)
	s.clear()
}

func statusOr(status, fallback string) string {
	if strings.TrimSpace(status) == "" {
		return fallback
	}
	return status
}

func orNow(ts string) string {
	if ts != "" {
		return ts
	}
	return time.Now().UTC().Format(time.RFC3339)
}
