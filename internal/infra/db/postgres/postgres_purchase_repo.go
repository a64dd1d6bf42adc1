package postgres

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, user_id, question_set_id, status, purchase_date, expiry_date,
       amount, payment_method, transaction_id, created_at, updated_at`

func (r *purchaseRepo) Create(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = p.CreatedAt
	}
	p.UpdatedAt = p.CreatedAt

	const q = `
INSERT INTO purchases (` + purchaseColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.QuestionSetID, string(p.Status), p.PurchaseDate, p.ExpiryDate,
		p.Amount, p.PaymentMethod, p.TransactionID, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *purchaseRepo) Update(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	p.UpdatedAt = time.Now().UTC()
	const q = `
UPDATE purchases
   SET status=$2, expiry_date=$3, amount=$4, payment_method=$5, transaction_id=$6, updated_at=$7
 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		p.ID, string(p.Status), p.ExpiryDate, p.Amount, p.PaymentMethod, p.TransactionID, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *purchaseRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	if tx == nil {
		return nil, domain.ErrInvalidExecContext
	}
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE id=$1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *purchaseRepo) FindValid(ctx context.Context, tx repository.Tx, userID, setID string, at time.Time) (*model.Purchase, error) {
	const q = `
SELECT ` + purchaseColumns + `
  FROM purchases
 WHERE user_id=$1 AND question_set_id=$2 AND status='active' AND expiry_date > $3
 ORDER BY expiry_date DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID, setID, at)
}

func (r *purchaseRepo) FindActiveForUpdate(ctx context.Context, tx repository.Tx, userID, setID string) (*model.Purchase, error) {
	if tx == nil {
		return nil, domain.ErrInvalidExecContext
	}
	const q = `
SELECT ` + purchaseColumns + `
  FROM purchases
 WHERE user_id=$1 AND question_set_id=$2 AND status='active'
 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, userID, setID)
}

func (r *purchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	const q = `
SELECT ` + purchaseColumns + `
  FROM purchases
 WHERE user_id=$1
 ORDER BY created_at DESC;`
	return r.queryMany(ctx, tx, q, userID)
}

func (r *purchaseRepo) ListValidByUser(ctx context.Context, tx repository.Tx, userID string, at time.Time) ([]*model.Purchase, error) {
	const q = `
SELECT ` + purchaseColumns + `
  FROM purchases
 WHERE user_id=$1 AND status='active' AND expiry_date > $2
 ORDER BY expiry_date ASC;`
	return r.queryMany(ctx, tx, q, userID, at)
}

func (r *purchaseRepo) FindExpiring(ctx context.Context, tx repository.Tx, at time.Time, within time.Duration) ([]*model.Purchase, error) {
	const q = `
SELECT ` + purchaseColumns + `
  FROM purchases
 WHERE status='active'
   AND expiry_date > $1
   AND expiry_date <= $2
 ORDER BY expiry_date ASC;`
	return r.queryMany(ctx, tx, q, at, at.Add(within))
}

// LockEntitlement takes a transaction-scoped advisory lock keyed by the
// (user, set) pair. It covers the case where no purchase row exists yet, so
// row locks alone cannot serialize first-time grants.
func (r *purchaseRepo) LockEntitlement(ctx context.Context, tx repository.Tx, userID, setID string) error {
	if _, ok := tx.(pgx.Tx); !ok {
		return domain.ErrInvalidExecContext
	}
	_, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64(userID+":"+setID))
	return err
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

func (r *purchaseRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Purchase, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPurchase(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrPurchaseNotFound)
	}
	return p, nil
}

func (r *purchaseRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.Purchase, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	var p model.Purchase
	var status string
	if err := row.Scan(
		&p.ID, &p.UserID, &p.QuestionSetID, &status, &p.PurchaseDate, &p.ExpiryDate,
		&p.Amount, &p.PaymentMethod, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = model.PurchaseStatus(status)
	return &p, nil
}
