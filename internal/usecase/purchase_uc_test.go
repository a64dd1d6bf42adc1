//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/usecase"
)

func newPurchaseUC(f *fixture) usecase.PurchaseUseCase {
	return usecase.NewPurchaseUseCase(f.purchases, f.sets, f.tm, f.notifier, 30, newTestLogger())
}

func TestPurchaseUseCase_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("should initiate and complete a purchase", func(t *testing.T) {
		f := newFixture()
		f.addSet("Q1", true, "12.50")
		uc := newPurchaseUC(f)

		p, err := uc.Initiate(ctx, "U1", "Q1", "card")
		if err != nil {
			t.Fatalf("initiate: %v", err)
		}
		if p.Status != model.PurchaseStatusPending || p.Amount.String() != "12.5" || p.ExpiryDate != nil {
			t.Fatalf("unexpected pending purchase: %+v", p)
		}

		done, err := uc.Complete(ctx, p.ID, "tx-42")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if done.Status != model.PurchaseStatusActive || done.TransactionID != "tx-42" {
			t.Fatalf("unexpected completed purchase: %+v", done)
		}
		approx(t, *done.ExpiryDate, time.Now().Add(30*24*time.Hour), 5*time.Second)
		if f.notifier.Count(model.EventPurchaseSucceeded) != 1 || f.notifier.Count(model.EventAccessGranted) != 1 {
			t.Errorf("expected purchase-succeeded and access-granted, got %+v", f.notifier.Events)
		}

		if _, err := uc.Complete(ctx, p.ID, "tx-43"); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("second completion: expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("should reject a free set and the redeem payment method", func(t *testing.T) {
		f := newFixture()
		f.addSet("Q1", true, "1")
		f.addSet("Q2", false, "0")
		uc := newPurchaseUC(f)

		if _, err := uc.Initiate(ctx, "U1", "Q2", "card"); !errors.Is(err, domain.ErrFreeQuestionSet) {
			t.Errorf("expected ErrFreeQuestionSet, got %v", err)
		}
		if _, err := uc.Initiate(ctx, "U1", "Q1", model.PaymentMethodRedeemCode); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should stack completion after an existing entitlement", func(t *testing.T) {
		f := newFixture()
		f.addSet("Q1", true, "1")
		current := f.addActivePurchase("U1", "Q1", time.Now().Add(5*24*time.Hour))
		uc := newPurchaseUC(f)

		p, _ := uc.Initiate(ctx, "U1", "Q1", "card")
		done, err := uc.Complete(ctx, p.ID, "")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		approx(t, *done.ExpiryDate, current.ExpiryDate.Add(30*24*time.Hour), time.Second)
		if f.activeCount("U1", "Q1") != 1 {
			t.Errorf("expected one active entitlement, got %d", f.activeCount("U1", "Q1"))
		}
	})

	t.Run("should fail, cancel, refund and extend by state", func(t *testing.T) {
		f := newFixture()
		f.addSet("Q1", true, "1")
		uc := newPurchaseUC(f)

		a, _ := uc.Initiate(ctx, "U1", "Q1", "card")
		if got, err := uc.Fail(ctx, a.ID); err != nil || got.Status != model.PurchaseStatusFailed {
			t.Fatalf("fail: %+v %v", got, err)
		}

		b, _ := uc.Initiate(ctx, "U1", "Q1", "card")
		if _, err := uc.Cancel(ctx, "U2", b.ID); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("foreign cancel: expected ErrUnauthorized, got %v", err)
		}
		if got, err := uc.Cancel(ctx, "U1", b.ID); err != nil || got.Status != model.PurchaseStatusFailed {
			t.Fatalf("cancel: %+v %v", got, err)
		}
		if _, err := uc.Refund(ctx, b.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("refund of failed purchase: expected ErrInvalidTransition, got %v", err)
		}

		c, _ := uc.Initiate(ctx, "U1", "Q1", "card")
		c, _ = uc.Complete(ctx, c.ID, "")
		before := *c.ExpiryDate
		ext, err := uc.Extend(ctx, c.ID, 10)
		if err != nil {
			t.Fatalf("extend: %v", err)
		}
		approx(t, *ext.ExpiryDate, before.Add(10*24*time.Hour), time.Millisecond)
		if _, err := uc.Extend(ctx, c.ID, 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("extend by 0: expected ErrInvalidArgument, got %v", err)
		}

		refunded, err := uc.Refund(ctx, c.ID)
		if err != nil || refunded.Status != model.PurchaseStatusRefunded {
			t.Fatalf("refund: %+v %v", refunded, err)
		}
		if _, err := f.purchases.FindValid(ctx, repository.NoTX, "U1", "Q1", time.Now()); !errors.Is(err, domain.ErrPurchaseNotFound) {
			t.Errorf("refunded purchase must not grant access, got %v", err)
		}

		list, err := uc.ListByUser(ctx, "U1")
		if err != nil || len(list) != 3 {
			t.Errorf("expected 3 purchases, got %d %v", len(list), err)
		}
	})

	t.Run("should never hold two active entitlements under concurrent grants", func(t *testing.T) {
		f := newFixture()
		f.addSet("Q1", true, "1")
		uc := newPurchaseUC(f)

		const n = 8
		ids := make([]string, n)
		for i := range ids {
			p, err := uc.Initiate(ctx, "U1", "Q1", "card")
			if err != nil {
				t.Fatalf("initiate: %v", err)
			}
			ids[i] = p.ID
		}
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := uc.Complete(ctx, id, ""); err != nil {
					t.Errorf("complete %s: %v", id, err)
				}
			}(id)
		}
		wg.Wait()

		if f.activeCount("U1", "Q1") != 1 {
			t.Fatalf("expected exactly one active entitlement, got %d", f.activeCount("U1", "Q1"))
		}
		valid, _ := f.purchases.FindValid(ctx, repository.NoTX, "U1", "Q1", time.Now())
		approx(t, *valid.ExpiryDate, time.Now().Add(n*30*24*time.Hour), 10*time.Second)
	})
}
