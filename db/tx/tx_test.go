package tx

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestTransactionFromContext(t *testing.T) {
	t.Run("empty context has no transaction", func(t *testing.T) {
		tx, ok := TransactionFromContext(context.Background())

		assert.False(t, ok)
		assert.Nil(t, tx)
	})

	t.Run("stored transaction is returned", func(t *testing.T) {
		stored := &sqlx.Tx{}
		ctx := WithTransaction(context.Background(), stored)

		tx, ok := TransactionFromContext(ctx)

		assert.True(t, ok)
		assert.Same(t, stored, tx)
	})

	t.Run("foreign value under a different key is ignored", func(t *testing.T) {
		type otherKey struct{}
		ctx := context.WithValue(context.Background(), otherKey{}, &sqlx.Tx{})

		_, ok := TransactionFromContext(ctx)

		assert.False(t, ok)
		assert.False(t, InTransaction(ctx))
	})

	t.Run("nil transaction does not count", func(t *testing.T) {
		ctx := WithTransaction(context.Background(), nil)

		assert.False(t, InTransaction(ctx))
	})
}

func TestGetTransactional(t *testing.T) {
	db := &sqlx.DB{}

	assert.Same(t, db, GetTransactional(context.Background(), db))

	stored := &sqlx.Tx{}
	ctx := WithTransaction(context.Background(), stored)
	assert.Same(t, stored, GetTransactional(ctx, db))
}
