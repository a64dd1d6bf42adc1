package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/infra/metrics"
	red "quiz-exam-platform/internal/infra/redis"
	"quiz-exam-platform/internal/usecase"
)

// sweepLockKey elects a single instance to run the expiry sweep.
const sweepLockKey = "lock:sweep:expiring-entitlements"

type NotificationWorker struct {
	interval time.Duration
	notifUC  usecase.NotificationUseCase
	locker   red.Locker
	log      *zerolog.Logger
}

// NewNotificationWorker builds the expiry sweep. A nil locker runs the sweep
// on every instance.
func NewNotificationWorker(interval time.Duration, notifUC usecase.NotificationUseCase, locker red.Locker, logger *zerolog.Logger) *NotificationWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	compLog := logger.With().Str("component", "NotificationWorker").Logger()
	return &NotificationWorker{
		interval: interval,
		notifUC:  notifUC,
		locker:   locker,
		log:      &compLog,
	}
}

func (w *NotificationWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting notification worker")
	// Run once on startup, then on every tick
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping notification worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *NotificationWorker) runCheck(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, sweepLockKey, w.interval)
		if errors.Is(err, red.ErrLockHeld) {
			metrics.IncSweepRun("skipped")
			w.log.Debug().Msg("sweep owned by another instance")
			return
		}
		if err != nil {
			metrics.IncSweepRun("error")
			w.log.Error().Err(err).Msg("sweep lock failed")
			return
		}
		defer func() {
			uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := w.locker.Unlock(uctx, sweepLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("sweep unlock failed")
			}
		}()
	}

	sent, err := w.notifUC.CheckAndSendExpiryNotifications(ctx)
	if err != nil {
		metrics.IncSweepRun("error")
		w.log.Error().Err(err).Msg("notification check failed")
		return
	}
	metrics.IncSweepRun("ok")
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("expiry notifications sent")
	}
}
