package repository

import (
	"context"

	"quiz-exam-platform/internal/domain/model"
)

// UserRepository is the port for platform accounts.
type UserRepository interface {
	// Save creates or updates a user. Duplicate username/email -> domain.ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// FindByLogin matches either the username or the (lower-cased) email.
	FindByLogin(ctx context.Context, tx Tx, login string) (*model.User, error)
	TouchLastActive(ctx context.Context, tx Tx, id string) error
}
