//go:build !integration

package sched

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	red "quiz-exam-platform/internal/infra/redis"
)

type countingUC struct {
	calls int
	err   error
}

func (c *countingUC) CheckAndSendExpiryNotifications(context.Context) (int, error) {
	c.calls++
	return 1, c.err
}

type fakeLocker struct {
	held     bool
	unlocked []string
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (string, error) {
	if l.held {
		return "", red.ErrLockHeld
	}
	return "tok", nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, token string) error {
	l.unlocked = append(l.unlocked, key+"="+token)
	return nil
}

func TestNotificationWorker_runCheck(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("runs the sweep under the lock and releases it", func(t *testing.T) {
		uc := &countingUC{}
		lock := &fakeLocker{}
		w := NewNotificationWorker(time.Minute, uc, lock, &logger)

		w.runCheck(ctx)

		if uc.calls != 1 {
			t.Fatalf("expected one sweep, got %d", uc.calls)
		}
		if len(lock.unlocked) != 1 || lock.unlocked[0] != sweepLockKey+"=tok" {
			t.Fatalf("expected lock release, got %v", lock.unlocked)
		}
	})

	t.Run("skips when another instance holds the lock", func(t *testing.T) {
		uc := &countingUC{}
		w := NewNotificationWorker(time.Minute, uc, &fakeLocker{held: true}, &logger)

		w.runCheck(ctx)

		if uc.calls != 0 {
			t.Fatalf("expected no sweep, got %d", uc.calls)
		}
	})

	t.Run("runs without a locker and survives errors", func(t *testing.T) {
		uc := &countingUC{err: errors.New("db down")}
		w := NewNotificationWorker(time.Minute, uc, nil, &logger)

		w.runCheck(ctx)
		w.runCheck(ctx)

		if uc.calls != 2 {
			t.Fatalf("expected two sweeps, got %d", uc.calls)
		}
	})

	t.Run("Run stops with the context", func(t *testing.T) {
		uc := &countingUC{}
		w := NewNotificationWorker(time.Hour, uc, nil, &logger)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if err := w.Run(cctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
