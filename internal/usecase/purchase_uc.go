package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// PurchaseUseCase drives the paid path to an entitlement. The payment itself
// is settled elsewhere; Complete and Fail are its callbacks.
type PurchaseUseCase interface {
	Initiate(ctx context.Context, userID, setID, paymentMethod string) (*model.Purchase, error)
	Complete(ctx context.Context, purchaseID, transactionID string) (*model.Purchase, error)
	Fail(ctx context.Context, purchaseID string) (*model.Purchase, error)
	// Cancel lets the buyer abandon a pending purchase.
	Cancel(ctx context.Context, userID, purchaseID string) (*model.Purchase, error)
	Refund(ctx context.Context, purchaseID string) (*model.Purchase, error)
	Extend(ctx context.Context, purchaseID string, days int) (*model.Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error)
}

type purchaseUC struct {
	purchases   repository.PurchaseRepository
	sets        repository.QuestionSetRepository
	tm          repository.TransactionManager
	notifier    adapter.Notifier
	defaultDays int
	log         *zerolog.Logger
	now         func() time.Time
}

func NewPurchaseUseCase(
	purchases repository.PurchaseRepository,
	sets repository.QuestionSetRepository,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	defaultDays int,
	logger *zerolog.Logger,
) *purchaseUC {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	l := logger.With().Str("component", "PurchaseUseCase").Logger()
	return &purchaseUC{
		purchases:   purchases,
		sets:        sets,
		tm:          tm,
		notifier:    notifier,
		defaultDays: defaultDays,
		log:         &l,
		now:         time.Now,
	}
}

func (u *purchaseUC) Initiate(ctx context.Context, userID, setID, paymentMethod string) (*model.Purchase, error) {
	defer logging.TraceDuration(u.log, "PurchaseUseCase.Initiate")()

	paymentMethod = strings.TrimSpace(paymentMethod)
	if userID == "" || setID == "" || paymentMethod == "" || paymentMethod == model.PaymentMethodRedeemCode {
		return nil, domain.ErrInvalidArgument
	}
	set, err := u.sets.FindByID(ctx, repository.NoTX, setID)
	if err != nil {
		return nil, err
	}
	if !set.IsPaid {
		return nil, domain.ErrFreeQuestionSet
	}

	now := u.now()
	p := &model.Purchase{
		ID:            uuid.NewString(),
		UserID:        userID,
		QuestionSetID: set.ID,
		Status:        model.PurchaseStatusPending,
		PurchaseDate:  now,
		Amount:        set.Price,
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
	}
	if err := u.purchases.Create(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPurchase(string(p.Status))
	u.log.Info().Str("purchase_id", p.ID).Str("user_id", userID).Str("question_set_id", set.ID).Msg("purchase initiated")
	return p, nil
}

func (u *purchaseUC) Complete(ctx context.Context, purchaseID, transactionID string) (*model.Purchase, error) {
	defer logging.TraceDuration(u.log, "PurchaseUseCase.Complete")()

	var out *model.Purchase
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.purchases.FindByIDForUpdate(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		if p.Status != model.PurchaseStatusPending {
			return domain.ErrInvalidTransition
		}
		now := u.now()
		expiry, err := prepareGrant(ctx, tx, u.purchases, p.UserID, p.QuestionSetID, u.defaultDays, now)
		if err != nil {
			return err
		}
		p.Status = model.PurchaseStatusActive
		p.PurchaseDate = now
		p.ExpiryDate = &expiry
		p.TransactionID = strings.TrimSpace(transactionID)
		if err := u.purchases.Update(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		u.log.Warn().Err(err).Str("purchase_id", purchaseID).Msg("purchase completion failed")
		return nil, err
	}

	metrics.IncPurchase(string(out.Status))
	metrics.AddPurchaseRevenue(out.Amount)
	metrics.IncEntitlementGranted(out.PaymentMethod)
	u.log.Info().Str("purchase_id", out.ID).Time("expiry_date", *out.ExpiryDate).Msg("purchase completed")

	payload := map[string]any{
		"question_set_id": out.QuestionSetID,
		"purchase_id":     out.ID,
		"expiry_date":     out.ExpiryDate,
	}
	u.publish(ctx, out.UserID, model.EventPurchaseSucceeded, payload)
	u.publish(ctx, out.UserID, model.EventAccessGranted, payload)
	return out, nil
}

func (u *purchaseUC) Fail(ctx context.Context, purchaseID string) (*model.Purchase, error) {
	defer logging.TraceDuration(u.log, "PurchaseUseCase.Fail")()
	return u.transition(ctx, purchaseID, func(p *model.Purchase) error {
		if p.Status != model.PurchaseStatusPending {
			return domain.ErrInvalidTransition
		}
		p.Status = model.PurchaseStatusFailed
		return nil
	})
}

func (u *purchaseUC) Cancel(ctx context.Context, userID, purchaseID string) (*model.Purchase, error) {
	defer logging.TraceDuration(u.log, "PurchaseUseCase.Cancel")()
	return u.transition(ctx, purchaseID, func(p *model.Purchase) error {
		if p.UserID != userID {
			return domain.ErrUnauthorized
		}
		if p.Status != model.PurchaseStatusPending {
			return domain.ErrInvalidTransition
		}
		p.Status = model.PurchaseStatusFailed
		return nil
	})
}

func (u *purchaseUC) Refund(ctx context.Context, purchaseID string) (*model.Purchase, error) {
	defer logging.TraceDuration(u.log, "PurchaseUseCase.Refund")()
	return u.transition(ctx, purchaseID, func(p *model.Purchase) error {
		if p.Status != model.PurchaseStatusActive {
			return domain.ErrInvalidTransition
		}
		p.Status = model.PurchaseStatusRefunded
		return nil
	})
}

func (u *purchaseUC) Extend(ctx context.Context, purchaseID string, days int) (*model.Purchase, error) {
	defer logging.TraceDuration(u.log, "PurchaseUseCase.Extend")()
	if days <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return u.transition(ctx, purchaseID, func(p *model.Purchase) error {
		if p.Status != model.PurchaseStatusActive || p.ExpiryDate == nil {
			return domain.ErrInvalidTransition
		}
		extended := p.ExpiryDate.Add(time.Duration(days) * 24 * time.Hour)
		p.ExpiryDate = &extended
		return nil
	})
}

// transition loads the purchase under a row lock, applies mutate and saves.
func (u *purchaseUC) transition(ctx context.Context, purchaseID string, mutate func(p *model.Purchase) error) (*model.Purchase, error) {
	if purchaseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.Purchase
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.purchases.FindByIDForUpdate(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		if err := mutate(p); err != nil {
			return err
		}
		if err := u.purchases.Update(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPurchase(string(out.Status))
	u.log.Info().Str("purchase_id", out.ID).Str("status", string(out.Status)).Msg("purchase updated")
	return out, nil
}

func (u *purchaseUC) ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	defer logging.TraceDuration(u.log, "PurchaseUseCase.ListByUser")()
	return u.purchases.ListByUser(ctx, repository.NoTX, userID)
}

func (u *purchaseUC) publish(ctx context.Context, userID, event string, payload any) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Publish(ctx, userID, event, payload); err != nil {
		u.log.Warn().Err(err).Str("event", event).Str("user_id", userID).Msg("notification failed")
	}
}
