//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
)

func TestPurchaseRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPurchaseRepo(testPool)

	activePurchase := func(userID, setID string, expiry time.Time) *model.Purchase {
		return &model.Purchase{
			ID:            uuid.NewString(),
			UserID:        userID,
			QuestionSetID: setID,
			Status:        model.PurchaseStatusActive,
			ExpiryDate:    &expiry,
			PaymentMethod: model.PaymentMethodRedeemCode,
		}
	}

	t.Run("find valid ignores lapsed and inactive rows", func(t *testing.T) {
		cleanup(t)
		user, set := seedUserAndSet(t, ctx, "u1")
		now := time.Now()

		p := activePurchase(user.ID, set.ID, now.Add(48*time.Hour))
		if err := repo.Create(ctx, nil, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		found, err := repo.FindValid(ctx, nil, user.ID, set.ID, now)
		if err != nil || found.ID != p.ID {
			t.Fatalf("expected valid purchase, got %v err=%v", found, err)
		}

		if _, err := repo.FindValid(ctx, nil, user.ID, set.ID, now.Add(72*time.Hour)); !errors.Is(err, domain.ErrPurchaseNotFound) {
			t.Errorf("expected lapsed purchase to be invisible, got %v", err)
		}

		p.Status = model.PurchaseStatusRefunded
		if err := repo.Update(ctx, nil, p); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if _, err := repo.FindValid(ctx, nil, user.ID, set.ID, now); !errors.Is(err, domain.ErrPurchaseNotFound) {
			t.Errorf("expected refunded purchase to be invisible, got %v", err)
		}
	})

	t.Run("only one active row per user and set", func(t *testing.T) {
		cleanup(t)
		user, set := seedUserAndSet(t, ctx, "u1")
		now := time.Now()
		if err := repo.Create(ctx, nil, activePurchase(user.ID, set.ID, now.Add(time.Hour))); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		err := repo.Create(ctx, nil, activePurchase(user.ID, set.ID, now.Add(2*time.Hour)))
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists for a second active row, got %v", err)
		}
	})

	t.Run("find expiring and list valid", func(t *testing.T) {
		cleanup(t)
		user, set := seedUserAndSet(t, ctx, "u1")
		_, other := seedUserAndSet(t, ctx, "u2")
		now := time.Now()

		soon := activePurchase(user.ID, set.ID, now.Add(2*24*time.Hour))
		later := activePurchase(user.ID, other.ID, now.Add(10*24*time.Hour))
		for _, p := range []*model.Purchase{soon, later} {
			if err := repo.Create(ctx, nil, p); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		expiring, err := repo.FindExpiring(ctx, nil, now, 3*24*time.Hour)
		if err != nil {
			t.Fatalf("FindExpiring failed: %v", err)
		}
		if len(expiring) != 1 || expiring[0].ID != soon.ID {
			t.Fatalf("expected only the soon-expiring purchase, got %d rows", len(expiring))
		}

		valid, err := repo.ListValidByUser(ctx, nil, user.ID, now)
		if err != nil || len(valid) != 2 {
			t.Fatalf("ListValidByUser: len=%d err=%v", len(valid), err)
		}
	})

	t.Run("lock and row locks require a transaction", func(t *testing.T) {
		cleanup(t)
		user, set := seedUserAndSet(t, ctx, "u1")
		if err := repo.LockEntitlement(ctx, nil, user.ID, set.ID); !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Errorf("expected ErrInvalidExecContext outside a tx, got %v", err)
		}
		tm := NewTxManager(testPool)
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := repo.LockEntitlement(ctx, tx, user.ID, set.ID); err != nil {
				return err
			}
			_, err := repo.FindActiveForUpdate(ctx, tx, user.ID, set.ID)
			return err
		})
		if !errors.Is(err, domain.ErrPurchaseNotFound) {
			t.Errorf("expected ErrPurchaseNotFound with no active row, got %v", err)
		}
	})
}
