package usecase

import (
	"context"
	"errors"
	"time"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
)

// prepareGrant must run inside a transaction. It serializes writers of the
// (user, set) entitlement, supersedes the current active row if any, and
// returns the expiry the new grant of days should carry.
func prepareGrant(ctx context.Context, tx repository.Tx, purchases repository.PurchaseRepository, userID, setID string, days int, now time.Time) (time.Time, error) {
	if err := purchases.LockEntitlement(ctx, tx, userID, setID); err != nil {
		return time.Time{}, err
	}
	current, err := purchases.FindActiveForUpdate(ctx, tx, userID, setID)
	switch {
	case errors.Is(err, domain.ErrPurchaseNotFound):
		current = nil
	case err != nil:
		return time.Time{}, err
	}

	expiry := model.GrantExpiry(now, current, days)
	if current != nil {
		current.Status = model.PurchaseStatusSuperseded
		if err := purchases.Update(ctx, tx, current); err != nil {
			return time.Time{}, err
		}
	}
	return expiry, nil
}
