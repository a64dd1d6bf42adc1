package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, username, email, password_hash, role, created_at, last_active_at`

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  username=$2, email=$3, password_hash=$4, role=$5, last_active_at=$7;`

	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.LastActiveAt)
	return err
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *userRepo) FindByLogin(ctx context.Context, tx repository.Tx, login string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username=$1 OR email=LOWER($1) LIMIT 1;`
	return r.queryOne(ctx, tx, q, strings.TrimSpace(login))
}

func (r *userRepo) TouchLastActive(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE users SET last_active_at=NOW() WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.LastActiveAt); err != nil {
		return nil, scanErr(err, domain.ErrNotFound)
	}
	u.Role = model.Role(role)
	return &u, nil
}
