package model

import (
	"time"
)

// RedeemCode is a single-use token that grants an entitlement to a question
// set without a monetary transaction. Once IsUsed is true, UsedBy and UsedAt
// are set and never change again.
type RedeemCode struct {
	ID            string
	Code          string
	QuestionSetID *string // NULL marks a misconfigured code
	ValidityDays  int
	ExpiryDate    time.Time
	IsUsed        bool
	UsedBy        *string
	UsedAt        *time.Time
	CreatedBy     string
	BatchID       string
	CreatedAt     time.Time
}

// TargetSetID returns the linked question set id, or "" when none.
func (c *RedeemCode) TargetSetID() string {
	if c == nil || c.QuestionSetID == nil {
		return ""
	}
	return *c.QuestionSetID
}

// IsExpiredAt reports whether the code itself can no longer be redeemed.
func (c *RedeemCode) IsExpiredAt(t time.Time) bool {
	return !c.ExpiryDate.IsZero() && !c.ExpiryDate.After(t)
}

// EntitlementDays is the validity window a redemption grants, falling back to
// the configured default when the code carries none.
func (c *RedeemCode) EntitlementDays(defaultDays int) int {
	if c.ValidityDays > 0 {
		return c.ValidityDays
	}
	return defaultDays
}

// RedeemResult is returned to the redeeming user.
type RedeemResult struct {
	QuestionSet *QuestionSet
	Purchase    *Purchase
}

// CodeBatch is the output of one administrative generation request.
type CodeBatch struct {
	BatchID string
	Codes   []*RedeemCode
}
