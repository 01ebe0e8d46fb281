package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque handle to an in-flight storage transaction. The concrete
// type is infra-defined (pgx.Tx for Postgres). Repositories must accept nil
// for the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a storage transaction, handing the tx
// handle back through the repositories' `tx` argument. If fn returns an
// error the transaction rolls back, otherwise it commits.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
