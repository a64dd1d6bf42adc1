package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseStatusPending    PurchaseStatus = "pending"    // created, waiting for the payment collaborator
	PurchaseStatusActive     PurchaseStatus = "active"     // valid entitlement while expiry_date > now
	PurchaseStatusFailed     PurchaseStatus = "failed"     // payment failed or cancelled by the buyer
	PurchaseStatusRefunded   PurchaseStatus = "refunded"   // admin refund; access revoked
	PurchaseStatusSuperseded PurchaseStatus = "superseded" // replaced by a newer grant for the same set
)

const (
	PaymentMethodRedeemCode = "redeem_code"
)

// Purchase is the entitlement record: a time-bounded grant of access to a
// question set. Created by a paid purchase or by redeeming a code.
type Purchase struct {
	ID            string
	UserID        string
	QuestionSetID string
	Status        PurchaseStatus
	PurchaseDate  time.Time
	ExpiryDate    *time.Time // nil while pending
	Amount        decimal.Decimal
	PaymentMethod string
	TransactionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsValidAt reports whether the purchase grants access at instant t.
// Access ends the instant expiry_date <= t.
func (p *Purchase) IsValidAt(t time.Time) bool {
	if p == nil || p.Status != PurchaseStatusActive || p.ExpiryDate == nil {
		return false
	}
	return p.ExpiryDate.After(t)
}

// GrantExpiry computes the expiry of a new grant of days, stacked after the
// currently valid entitlement when there is one.
func GrantExpiry(now time.Time, current *Purchase, days int) time.Time {
	start := now
	if current.IsValidAt(now) {
		start = *current.ExpiryDate
	}
	return start.Add(time.Duration(days) * 24 * time.Hour)
}
