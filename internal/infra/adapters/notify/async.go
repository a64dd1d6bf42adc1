package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
	"quiz-exam-platform/internal/infra/worker"
)

var _ adapter.Notifier = (*AsyncNotifier)(nil)

// Submitter is the part of worker.Pool the notifier needs.
type Submitter interface {
	Submit(task worker.Task) error
}

// AsyncNotifier hands each publish to the worker pool so a slow or broken
// pub/sub backend never delays or fails the caller.
type AsyncNotifier struct {
	next    adapter.Notifier
	pool    Submitter
	timeout time.Duration
	log     *zerolog.Logger
}

func NewAsyncNotifier(next adapter.Notifier, pool Submitter, timeout time.Duration, logger *zerolog.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	l := logger.With().Str("component", "AsyncNotifier").Logger()
	return &AsyncNotifier{next: next, pool: pool, timeout: timeout, log: &l}
}

// Publish always returns nil; delivery failures are logged and counted.
func (n *AsyncNotifier) Publish(ctx context.Context, userID, event string, payload any) error {
	traceID := logging.TraceID(ctx)
	err := n.pool.Submit(func(poolCtx context.Context) error {
		pctx, cancel := context.WithTimeout(logging.WithTraceID(poolCtx, traceID), n.timeout)
		defer cancel()
		if err := n.next.Publish(pctx, userID, event, payload); err != nil {
			metrics.IncNotification(event, "error")
			return err
		}
		metrics.IncNotification(event, "sent")
		return nil
	})
	if err != nil {
		metrics.IncNotification(event, "dropped")
		logging.With(ctx, n.log).Warn().Err(err).Str("event", event).Str("user_id", userID).Msg("notification dropped")
	}
	return nil
}

var _ adapter.Notifier = Noop{}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
