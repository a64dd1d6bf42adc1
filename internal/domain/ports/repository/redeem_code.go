package repository

import (
	"context"
	"time"

	"quiz-exam-platform/internal/domain/model"
)

// RedeemCodeRepository is the port for managing redeem codes.
type RedeemCodeRepository interface {
	// Insert stores a new code. It returns (false, nil) when the code value is
	// already taken so the caller can draw another candidate.
	Insert(ctx context.Context, tx Tx, code *model.RedeemCode) (bool, error)
	// FindByCode returns the code regardless of its used state.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.RedeemCode, error)
	// FindByCodeForUpdate is FindByCode with a row lock held until the transaction ends.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.RedeemCode, error)
	// MarkUsed flips is_used false->true for id. It returns domain.ErrCodeAlreadyUsed
	// when no unused row matched, which makes concurrent redemptions safe.
	MarkUsed(ctx context.Context, tx Tx, id, userID string, at time.Time) error
	ListBySet(ctx context.Context, tx Tx, setID string, offset, limit int) ([]*model.RedeemCode, error)
}
