package repositories

import (
	"context"
	"fmt"

	"orderhub/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock, so repositories can
// run either on the pool or inside a unit of work.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Database is a DBTX that can also open transactions.
type Database interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxFunc runs inside a transaction. Returning an error rolls everything back.
type TxFunc func(ctx context.Context, tx DBTX) error

// UnitOfWork groups writes so they commit or roll back together.
type UnitOfWork interface {
	Execute(ctx context.Context, fn TxFunc) error
}

type pgUnitOfWork struct {
	db Database
}

func NewUnitOfWork(db Database) UnitOfWork {
	return &pgUnitOfWork{db: db}
}

func (u *pgUnitOfWork) Execute(ctx context.Context, fn TxFunc) (err error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Wrapf(err, "rollback failed: %v", rbErr)
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Postgres SQLSTATE codes mapped onto domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError converts constraint violations into domain errors and wraps
// everything else with the failing operation.
func mapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return common.NewDomainError(common.CodeDuplicateRecord,
				fmt.Sprintf("duplicate value violates %s", pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return common.NewDomainError(common.CodeForeignKeyViolation,
				fmt.Sprintf("referenced record does not exist (%s)", pgErr.ConstraintName))
		}
	}
	return errors.Wrap(err, operation)
}
