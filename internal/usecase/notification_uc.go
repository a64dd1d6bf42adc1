package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// CheckAndSendExpiryNotifications reminds owners of entitlements that lapse
	// within the configured window. Each purchase is reminded at most once per
	// threshold; the count of reminders sent is returned.
	CheckAndSendExpiryNotifications(ctx context.Context) (int, error)
}

type notificationUC struct {
	purchases  repository.PurchaseRepository
	notifLog   repository.NotificationLogRepository
	notifier   adapter.Notifier
	withinDays int
	log        *zerolog.Logger
	now        func() time.Time
}

// NewNotificationUseCase expects a notifier that reports delivery errors
// synchronously: a reminder is logged, and counted, only once it was published.
func NewNotificationUseCase(
	purchases repository.PurchaseRepository,
	notifLog repository.NotificationLogRepository,
	notifier adapter.Notifier,
	withinDays int,
	logger *zerolog.Logger,
) *notificationUC {
	if withinDays <= 0 {
		withinDays = 3
	}
	l := logger.With().Str("component", "NotificationUseCase").Logger()
	return &notificationUC{
		purchases:  purchases,
		notifLog:   notifLog,
		notifier:   notifier,
		withinDays: withinDays,
		log:        &l,
		now:        time.Now,
	}
}

func (n *notificationUC) CheckAndSendExpiryNotifications(ctx context.Context) (int, error) {
	defer logging.TraceDuration(n.log, "NotificationUC.CheckAndSendExpiryNotifications")()

	now := n.now()
	items, err := n.purchases.FindExpiring(ctx, repository.NoTX, now, time.Duration(n.withinDays)*24*time.Hour)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range items {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if p.ExpiryDate == nil {
			continue
		}
		done, err := n.notifLog.Exists(ctx, repository.NoTX, p.ID, model.NotificationKindExpiring, n.withinDays)
		if err != nil {
			n.log.Warn().Err(err).Str("purchase_id", p.ID).Msg("notification log lookup failed")
			continue
		}
		if done {
			continue
		}

		payload := map[string]any{
			"question_set_id": p.QuestionSetID,
			"purchase_id":     p.ID,
			"expiry_date":     p.ExpiryDate,
			"remaining_days":  model.RemainingDays(*p.ExpiryDate, now),
		}
		if err := n.notifier.Publish(ctx, p.UserID, model.EventEntitlementExpiring, payload); err != nil {
			metrics.IncNotification(model.EventEntitlementExpiring, "error")
			n.log.Warn().Err(err).Str("purchase_id", p.ID).Msg("expiry notification failed")
			continue
		}
		metrics.IncNotification(model.EventEntitlementExpiring, "sent")
		if err := n.notifLog.Save(ctx, repository.NoTX, p.ID, p.UserID, model.NotificationKindExpiring, n.withinDays); err != nil {
			n.log.Error().Err(err).Str("purchase_id", p.ID).Msg("failed to record expiry notification")
		}
		sent++
	}
	return sent, nil
}
