package repository

import (
	"context"
	"time"

	"quiz-exam-platform/internal/domain/model"
)

// PurchaseRepository is the port for entitlement records. It is the single
// source of truth for "who may access which question set until when".
type PurchaseRepository interface {
	Create(ctx context.Context, tx Tx, p *model.Purchase) error
	// Update persists status, dates and payment fields of an existing purchase.
	Update(ctx context.Context, tx Tx, p *model.Purchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	// FindByIDForUpdate locks the row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	// FindValid returns the purchase with status active and expiry_date > at for
	// (userID, setID), or domain.ErrNotFound.
	FindValid(ctx context.Context, tx Tx, userID, setID string, at time.Time) (*model.Purchase, error)
	// FindActiveForUpdate locks and returns the row with status active for
	// (userID, setID) even if it has already lapsed, or domain.ErrNotFound.
	FindActiveForUpdate(ctx context.Context, tx Tx, userID, setID string) (*model.Purchase, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Purchase, error)
	ListValidByUser(ctx context.Context, tx Tx, userID string, at time.Time) ([]*model.Purchase, error)
	// FindExpiring lists active purchases whose expiry falls in (at, at+within].
	FindExpiring(ctx context.Context, tx Tx, at time.Time, within time.Duration) ([]*model.Purchase, error)
	// LockEntitlement serializes entitlement writers of one (user, set) pair until
	// the surrounding transaction ends. Requires a transaction handle.
	LockEntitlement(ctx context.Context, tx Tx, userID, setID string) error
}
