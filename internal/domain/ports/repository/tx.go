package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`.
//
// Keeps use-case interfaces clean: no transaction types leak out, and
// repository methods that accept a Tx can run their statements on the
// tx-bound executor. Repositories MUST gracefully accept a nil Tx (the
// non-transactional path).
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
