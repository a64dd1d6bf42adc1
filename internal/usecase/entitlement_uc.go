package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

type EntitlementUseCase interface {
	// CheckAccess decides whether userID may open setID right now.
	CheckAccess(ctx context.Context, userID, setID string) (*model.AccessDecision, error)
	// RequireAccess is CheckAccess reduced to domain.ErrAccessDenied on denial.
	RequireAccess(ctx context.Context, userID, setID string) error
}

type entitlementUC struct {
	sets      repository.QuestionSetRepository
	purchases repository.PurchaseRepository
	log       *zerolog.Logger
	now       func() time.Time
}

func NewEntitlementUseCase(sets repository.QuestionSetRepository, purchases repository.PurchaseRepository, logger *zerolog.Logger) *entitlementUC {
	l := logger.With().Str("component", "EntitlementUseCase").Logger()
	return &entitlementUC{sets: sets, purchases: purchases, log: &l, now: time.Now}
}

func (u *entitlementUC) CheckAccess(ctx context.Context, userID, setID string) (*model.AccessDecision, error) {
	defer logging.TraceDuration(u.log, "EntitlementUseCase.CheckAccess")()

	if setID == "" {
		return nil, domain.ErrInvalidArgument
	}
	set, err := u.sets.FindByID(ctx, repository.NoTX, setID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionSetNotFound) {
			return nil, err
		}
		return nil, u.persistenceErr(ctx, err, "load question set")
	}

	decision := &model.AccessDecision{QuestionSetID: set.ID, IsPaid: set.IsPaid}
	if !set.IsPaid {
		metrics.IncAccessCheck("free")
		decision.HasAccess = true
		return decision, nil
	}

	now := u.now()
	p, err := u.purchases.FindValid(ctx, repository.NoTX, userID, set.ID, now)
	switch {
	case err == nil && p.IsValidAt(now):
		remaining := model.RemainingDays(*p.ExpiryDate, now)
		expiry := *p.ExpiryDate
		decision.HasAccess = true
		decision.RemainingDays = &remaining
		decision.ExpiryDate = &expiry
		decision.PurchaseID = p.ID
		metrics.IncAccessCheck("granted")
		return decision, nil
	case err == nil, errors.Is(err, domain.ErrPurchaseNotFound):
		price := set.Price
		decision.Price = &price
		metrics.IncAccessCheck("denied")
		return decision, nil
	default:
		return nil, u.persistenceErr(ctx, err, "find valid purchase")
	}
}

func (u *entitlementUC) RequireAccess(ctx context.Context, userID, setID string) error {
	d, err := u.CheckAccess(ctx, userID, setID)
	if err != nil {
		return err
	}
	if !d.HasAccess {
		return domain.ErrAccessDenied
	}
	return nil
}

// persistenceErr keeps transient failures recognizable and hides everything
// else behind ErrOperationFailed.
func (u *entitlementUC) persistenceErr(ctx context.Context, err error, op string) error {
	logging.With(ctx, u.log).Error().Err(err).Str("op", op).Msg("entitlement lookup failed")
	if errors.Is(err, domain.ErrTransient) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrOperationFailed, op)
}
