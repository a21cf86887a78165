package repositories

import (
	"context"
	"errors"
	"testing"

	"orderhub/internal/common"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders`).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = NewUnitOfWork(mock).Execute(context.Background(), func(ctx context.Context, tx DBTX) error {
		_, err := tx.Exec(ctx, "UPDATE orders SET status = 'PAID'")
		return err
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	publishErr := errors.New("publisher not initialized")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO orders`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectRollback()

	err = NewUnitOfWork(mock).Execute(context.Background(), func(ctx context.Context, tx DBTX) error {
		if _, err := tx.Exec(ctx, "INSERT INTO orders DEFAULT VALUES"); err != nil {
			return err
		}
		return publishErr
	})
	assert.ErrorIs(t, err, publishErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollsBackOnPanic(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = NewUnitOfWork(mock).Execute(context.Background(), func(ctx context.Context, tx DBTX) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err = NewUnitOfWork(mock).Execute(context.Background(), func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "noop"))

	dup := mapError(&pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key"}, "create product")
	assert.True(t, common.IsDomain(dup, common.CodeDuplicateRecord))

	other := mapError(errors.New("timeout"), "create product")
	assert.EqualError(t, other, "create product: timeout")
}
