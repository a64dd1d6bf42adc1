package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// AccessDecision answers "can this user open this question set right now?".
type AccessDecision struct {
	QuestionSetID string
	HasAccess     bool
	IsPaid        bool
	RemainingDays *int
	ExpiryDate    *time.Time
	Price         *decimal.Decimal
	PurchaseID    string
}

// RemainingDays returns ceil((expiry-now)/24h), never less than 1. Callers
// must only use it for entitlements that are still valid at now.
func RemainingDays(expiry, now time.Time) int {
	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}
