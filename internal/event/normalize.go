package event

import (
	"math"
	"strconv"
	"strings"
)

// The description field on niuniu_bet and settlement_confirmed operations
// historically carried JSON instead of prose. The recovery helpers below are a
// migration shim for that transitional encoding: they are total, tolerate any
// shape drift, and report "no structured data" instead of failing the event.

// looseBetDetail matches a fan-out element before numeric coercion. The server
// has shipped ids and amounts as both numbers and numeric strings.
type looseBetDetail struct {
	ToUserID   interface{} `json:"to_user_id"`
	ToNickname interface{} `json:"to_nickname"`
	Amount     interface{} `json:"amount"`
}

type looseSettlementDetail struct {
	UserID     interface{} `json:"user_id"`
	Nickname   interface{} `json:"nickname"`
	ChipAmount interface{} `json:"chip_amount"`
	RmbAmount  interface{} `json:"rmb_amount"`
}

type looseSettlementSummary struct {
	Batch     string                  `json:"batch"`
	ChipRate  string                  `json:"chip_rate"`
	SettledAt string                  `json:"settled_at"`
	Details   []looseSettlementDetail `json:"details"`
}

// RecoverBetFanout parses a legacy niuniu_bet description as a JSON array of
// bet details. Malformed elements are dropped individually; a description that
// is not a JSON array at all yields (nil, false).
func RecoverBetFanout(description string) ([]BetDetail, bool) {
	if strings.TrimSpace(description) == "" {
		return nil, false
	}

	var loose []looseBetDetail
	if err := json.UnmarshalFromString(description, &loose); err != nil {
		return nil, false
	}

	return sanitizeBetDetails(loose), true
}

// RecoverSettlementSummary parses a legacy settlement_confirmed description as
// a JSON summary object. A summary with no batch, no chip rate, no settlement
// time and no details is reported as absent so it never pollutes the log.
func RecoverSettlementSummary(description string) (*SettlementSummary, bool) {
	if strings.TrimSpace(description) == "" {
		return nil, false
	}

	var loose looseSettlementSummary
	if err := json.UnmarshalFromString(description, &loose); err != nil {
		return nil, false
	}

	summary := &SettlementSummary{
		Batch:     loose.Batch,
		ChipRate:  loose.ChipRate,
		SettledAt: loose.SettledAt,
	}

	for _, item := range loose.Details {
		userID, ok := coerceNumber(item.UserID)
		if !ok {
			continue
		}
		chipAmount, ok := coerceNumber(item.ChipAmount)
		if !ok {
			continue
		}

		detail := SettlementDetail{
			UserID:     int64(userID),
			ChipAmount: int(chipAmount),
		}
		if nickname, ok := coerceNickname(item.Nickname); ok {
			detail.Nickname = nickname
		}
		if rmb, ok := coerceNumber(item.RmbAmount); ok {
			detail.RmbAmount = rmb
		}

		summary.Details = append(summary.Details, detail)
	}

	if summary.Batch == "" && summary.ChipRate == "" && summary.SettledAt == "" && len(summary.Details) == 0 {
		return nil, false
	}

	return summary, true
}

func sanitizeBetDetails(loose []looseBetDetail) []BetDetail {
	details := make([]BetDetail, 0, len(loose))

	for _, item := range loose {
		toUserID, ok := coerceNumber(item.ToUserID)
		if !ok {
			continue
		}
		amount, ok := coerceNumber(item.Amount)
		if !ok {
			continue
		}

		detail := BetDetail{
			ToUserID: int64(toUserID),
			Amount:   int(amount),
		}
		if nickname, ok := coerceNickname(item.ToNickname); ok {
			detail.ToNickname = nickname
		}

		details = append(details, detail)
	}

	return details
}

// coerceNumber accepts the numeric shapes seen on the wire and rejects
// everything that does not land on a finite number.
func coerceNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func coerceNickname(value interface{}) (string, bool) {
	nickname, ok := value.(string)
	if !ok || strings.TrimSpace(nickname) == "" {
		return "", false
	}
	return nickname, true
}
