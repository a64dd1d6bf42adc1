// File: internal/usecase/redeem_code_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
)

// Compile-time check
var _ RedeemCodeUseCase = (*redeemCodeUC)(nil)

type RedeemCodeUseCase interface {
	// Redeem consumes code for userID and grants an entitlement to the linked
	// question set. The code flip and the grant commit together or not at all.
	Redeem(ctx context.Context, userID, code string) (*model.RedeemResult, error)
	// Generate creates quantity unique codes for setID valid for validityDays.
	Generate(ctx context.Context, adminID, setID string, validityDays, quantity int) (*model.CodeBatch, error)
	List(ctx context.Context, setID string, offset, limit int) ([]*model.RedeemCode, error)
}

// RedeemCodeOptions carries the entitlement settings of the config.
type RedeemCodeOptions struct {
	DefaultValidityDays int
	CodeLength          int
	MaxBatch            int
	GenerateAttempts    int
	Dev                 bool
}

type redeemCodeUC struct {
	codes     repository.RedeemCodeRepository
	sets      repository.QuestionSetRepository
	purchases repository.PurchaseRepository
	tm        repository.TransactionManager
	notifier  adapter.Notifier
	alerter   adapter.Alerter
	opts      RedeemCodeOptions
	log       *zerolog.Logger
	now       func() time.Time
}

func NewRedeemCodeUseCase(
	codes repository.RedeemCodeRepository,
	sets repository.QuestionSetRepository,
	purchases repository.PurchaseRepository,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	alerter adapter.Alerter,
	opts RedeemCodeOptions,
	logger *zerolog.Logger,
) *redeemCodeUC {
	if opts.DefaultValidityDays <= 0 {
		opts.DefaultValidityDays = 30
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 8
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 500
	}
	if opts.GenerateAttempts <= 0 {
		opts.GenerateAttempts = 5
	}
	l := logger.With().Str("component", "RedeemCodeUseCase").Logger()
	return &redeemCodeUC{
		codes:     codes,
		sets:      sets,
		purchases: purchases,
		tm:        tm,
		notifier:  notifier,
		alerter:   alerter,
		opts:      opts,
		log:       &l,
		now:       time.Now,
	}
}

func (u *redeemCodeUC) Redeem(ctx context.Context, userID, code string) (*model.RedeemResult, error) {
	defer logging.TraceDuration(u.log, "RedeemCodeUseCase.Redeem")()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var (
		result   *model.RedeemResult
		redeemed *model.RedeemCode
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		c, err := u.codes.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		redeemed = c
		now := u.now()

		if c.IsUsed {
			return domain.ErrCodeAlreadyUsed
		}
		if c.IsExpiredAt(now) {
			return domain.ErrCodeExpired
		}
		setID := c.TargetSetID()
		if setID == "" {
			return domain.ErrMisconfiguredCode
		}
		set, err := u.sets.FindByID(ctx, tx, setID)
		if err != nil {
			if errors.Is(err, domain.ErrQuestionSetNotFound) {
				return fmt.Errorf("%w: %w", domain.ErrMisconfiguredData, domain.ErrQuestionSetNotFound)
			}
			return err
		}

		if err := u.codes.MarkUsed(ctx, tx, c.ID, userID, now); err != nil {
			return err
		}

		expiry, err := prepareGrant(ctx, tx, u.purchases, userID, set.ID, c.EntitlementDays(u.opts.DefaultValidityDays), now)
		if err != nil {
			return err
		}
		p := &model.Purchase{
			ID:            uuid.NewString(),
			UserID:        userID,
			QuestionSetID: set.ID,
			Status:        model.PurchaseStatusActive,
			PurchaseDate:  now,
			ExpiryDate:    &expiry,
			Amount:        decimal.Zero,
			PaymentMethod: model.PaymentMethodRedeemCode,
			TransactionID: c.Code,
			CreatedAt:     now,
		}
		if err := u.purchases.Create(ctx, tx, p); err != nil {
			return err
		}
		result = &model.RedeemResult{QuestionSet: set, Purchase: p}
		return nil
	})

	log := logging.With(ctx, u.log).With().
		Str("user_id", userID).
		Str("code", logging.Redact(code, u.opts.Dev)).
		Logger()
	if err != nil {
		metrics.IncRedemption(redemptionResult(err))
		u.reportFailure(ctx, &log, redeemed, err)
		return nil, err
	}

	metrics.IncRedemption("success")
	metrics.IncEntitlementGranted(model.PaymentMethodRedeemCode)
	log.Info().
		Str("question_set_id", result.QuestionSet.ID).
		Str("purchase_id", result.Purchase.ID).
		Time("expiry_date", *result.Purchase.ExpiryDate).
		Msg("redeem code consumed")

	payload := map[string]any{
		"question_set_id": result.QuestionSet.ID,
		"purchase_id":     result.Purchase.ID,
		"expiry_date":     result.Purchase.ExpiryDate,
	}
	u.publish(ctx, &log, userID, model.EventAccessGranted, payload)
	u.publish(ctx, &log, userID, model.EventRedeemSucceeded, payload)
	return result, nil
}

// reportFailure logs data-integrity problems apart from ordinary user errors
// and raises an admin alert for them.
func (u *redeemCodeUC) reportFailure(ctx context.Context, log *zerolog.Logger, c *model.RedeemCode, err error) {
	switch {
	case errors.Is(err, domain.ErrMisconfiguredData), errors.Is(err, domain.ErrMisconfiguredCode):
		ev := log.Error().Err(err).Str("kind", "data_integrity")
		if c != nil {
			ev = ev.Str("code_id", c.ID).Str("question_set_id", c.TargetSetID())
		}
		ev.Msg("redeem code points at no usable question set")
		if u.alerter != nil {
			codeID := ""
			if c != nil {
				codeID = c.ID
			}
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			msg := fmt.Sprintf("Data integrity: redeem code %s cannot be redeemed (%v)", codeID, err)
			if aerr := u.alerter.Alert(actx, msg); aerr != nil {
				log.Warn().Err(aerr).Msg("admin alert failed")
			}
		}
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrCodeAlreadyUsed),
		errors.Is(err, domain.ErrCodeExpired), errors.Is(err, domain.ErrInvalidArgument):
		log.Info().Err(err).Msg("redeem rejected")
	default:
		log.Error().Err(err).Msg("redeem failed")
	}
}

func (u *redeemCodeUC) publish(ctx context.Context, log *zerolog.Logger, userID, event string, payload any) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Publish(ctx, userID, event, payload); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("notification failed")
	}
}

func redemptionResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return "already_used"
	case errors.Is(err, domain.ErrCodeExpired):
		return "expired"
	case errors.Is(err, domain.ErrMisconfiguredCode):
		return "misconfigured"
	case errors.Is(err, domain.ErrMisconfiguredData):
		return "set_missing"
	default:
		return "error"
	}
}

func (u *redeemCodeUC) Generate(ctx context.Context, adminID, setID string, validityDays, quantity int) (*model.CodeBatch, error) {
	defer logging.TraceDuration(u.log, "RedeemCodeUseCase.Generate")()

	if validityDays <= 0 || quantity < 1 || quantity > u.opts.MaxBatch || setID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := u.sets.FindByID(ctx, repository.NoTX, setID); err != nil {
		return nil, err
	}

	batch := &model.CodeBatch{BatchID: ulid.Make().String()}
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		batch.Codes = batch.Codes[:0]
		now := u.now()
		for i := 0; i < quantity; i++ {
			c, err := u.insertUnique(ctx, tx, adminID, setID, validityDays, batch.BatchID, now)
			if err != nil {
				return err
			}
			batch.Codes = append(batch.Codes, c)
		}
		return nil
	})
	if err != nil {
		u.log.Error().Err(err).Str("question_set_id", setID).Int("quantity", quantity).Msg("code generation failed")
		return nil, err
	}

	metrics.AddCodesGenerated(len(batch.Codes))
	u.log.Info().
		Str("batch_id", batch.BatchID).
		Str("question_set_id", setID).
		Str("admin_id", adminID).
		Int("quantity", quantity).
		Int("validity_days", validityDays).
		Msg("redeem codes generated")
	return batch, nil
}

// insertUnique draws candidates until one inserts without a collision or the
// attempt budget runs out.
func (u *redeemCodeUC) insertUnique(ctx context.Context, tx repository.Tx, adminID, setID string, validityDays int, batchID string, now time.Time) (*model.RedeemCode, error) {
	target := setID
	for attempt := 0; attempt < u.opts.GenerateAttempts; attempt++ {
		value, err := generateRedeemCode(u.opts.CodeLength)
		if err != nil {
			return nil, err
		}
		c := &model.RedeemCode{
			ID:            uuid.NewString(),
			Code:          value,
			QuestionSetID: &target,
			ValidityDays:  validityDays,
			ExpiryDate:    now.Add(time.Duration(validityDays) * 24 * time.Hour),
			CreatedBy:     adminID,
			BatchID:       batchID,
			CreatedAt:     now,
		}
		inserted, err := u.codes.Insert(ctx, tx, c)
		if err != nil {
			return nil, err
		}
		if inserted {
			return c, nil
		}
		metrics.IncCodeCollision()
	}
	return nil, domain.ErrCodeSpaceExhausted
}

func (u *redeemCodeUC) List(ctx context.Context, setID string, offset, limit int) ([]*model.RedeemCode, error) {
	defer logging.TraceDuration(u.log, "RedeemCodeUseCase.List")()
	if setID == "" {
		return nil, domain.ErrInvalidArgument
	}
	offset, limit = clampPage(offset, limit)
	return u.codes.ListBySet(ctx, repository.NoTX, setID, offset, limit)
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
