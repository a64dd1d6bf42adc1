package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Use cases stay free of driver types; repositories accept `tx` and run
// tx-bound Exec/Query (and SELECT ... FOR UPDATE) when a handle is present.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		code, err := codes.FindByCodeForUpdate(ctx, tx, raw)
//		...
//		return err
//	})
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
// Repositories MUST accept a nil tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
