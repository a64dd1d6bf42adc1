package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
)

var _ repository.RedeemCodeRepository = (*redeemCodeRepo)(nil)

type redeemCodeRepo struct {
	pool *pgxpool.Pool
}

func NewRedeemCodeRepo(pool *pgxpool.Pool) *redeemCodeRepo {
	return &redeemCodeRepo{pool: pool}
}

const redeemCodeColumns = `id, code, question_set_id, validity_days, expiry_date, is_used,
       used_by, used_at, created_by, batch_id, created_at`

// Insert relies on the UNIQUE(code) constraint. A conflict inserts nothing and
// reports false so the generator can draw a fresh candidate.
func (r *redeemCodeRepo) Insert(ctx context.Context, tx repository.Tx, c *model.RedeemCode) (bool, error) {
	const q = `
INSERT INTO redeem_codes (` + redeemCodeColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (code) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Code, c.QuestionSetID, c.ValidityDays, c.ExpiryDate, c.IsUsed,
		c.UsedBy, c.UsedAt, nullIfEmpty(c.CreatedBy), c.BatchID, c.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *redeemCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error) {
	const q = `SELECT ` + redeemCodeColumns + ` FROM redeem_codes WHERE code=$1;`
	return r.queryOne(ctx, tx, q, normalizeCode(code))
}

func (r *redeemCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error) {
	if tx == nil {
		return nil, domain.ErrInvalidExecContext
	}
	const q = `SELECT ` + redeemCodeColumns + ` FROM redeem_codes WHERE code=$1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, normalizeCode(code))
}

// MarkUsed is a compare-and-swap on is_used. Zero affected rows means another
// redemption got there first.
func (r *redeemCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, id, userID string, at time.Time) error {
	const q = `
UPDATE redeem_codes
   SET is_used=TRUE, used_by=$2, used_at=$3
 WHERE id=$1 AND is_used=FALSE;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, userID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeAlreadyUsed
	}
	return nil
}

func (r *redeemCodeRepo) ListBySet(ctx context.Context, tx repository.Tx, setID string, offset, limit int) ([]*model.RedeemCode, error) {
	const q = `
SELECT ` + redeemCodeColumns + `
  FROM redeem_codes
 WHERE question_set_id=$1
 ORDER BY created_at DESC, code
 OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, setID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RedeemCode
	for rows.Next() {
		c, err := scanRedeemCode(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *redeemCodeRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.RedeemCode, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	c, err := scanRedeemCode(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrCodeNotFound)
	}
	return c, nil
}

func scanRedeemCode(row pgx.Row) (*model.RedeemCode, error) {
	var c model.RedeemCode
	var createdBy *string
	if err := row.Scan(
		&c.ID, &c.Code, &c.QuestionSetID, &c.ValidityDays, &c.ExpiryDate, &c.IsUsed,
		&c.UsedBy, &c.UsedAt, &createdBy, &c.BatchID, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if createdBy != nil {
		c.CreatedBy = *createdBy
	}
	return &c, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
