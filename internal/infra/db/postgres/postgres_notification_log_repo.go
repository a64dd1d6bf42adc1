package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationLogRepo(pool *pgxpool.Pool) repository.NotificationLogRepository {
	return &notificationLogRepo{pool: pool}
}

// Save leaves duplicate prevention to UNIQUE(purchase_id, kind, threshold_days);
// a repeated reminder is a no-op.
func (r *notificationLogRepo) Save(ctx context.Context, tx repository.Tx, purchaseID, userID, kind string, thresholdDays int) error {
	const q = `
INSERT INTO entitlement_notifications (purchase_id, user_id, kind, threshold_days)
VALUES ($1, $2, $3, $4)
ON CONFLICT (purchase_id, kind, threshold_days) DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, purchaseID, userID, kind, thresholdDays)
	return err
}

func (r *notificationLogRepo) Exists(ctx context.Context, tx repository.Tx, purchaseID, kind string, thresholdDays int) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM entitlement_notifications
    WHERE purchase_id = $1 AND kind = $2 AND threshold_days = $3
)`
	row, err := pickRow(ctx, r.pool, tx, q, purchaseID, kind, thresholdDays)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, scanErr(err, domain.ErrReadDatabaseRow)
	}
	return exists, nil
}
