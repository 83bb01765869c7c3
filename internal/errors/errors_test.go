package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapping(t *testing.T) {
	t.Run("error string includes cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(cause, ErrCodeInternal, "operation failed")
		assert.Equal(t, "operation failed: boom", err.Error())
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("checks survive fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", NotFoundf("job %s not found", "abc"))
		assert.True(t, IsNotFound(err))
		assert.False(t, IsConflict(err))
		assert.Equal(t, ErrCodeNotFound, GetCode(err))
	})

	t.Run("wrap nil returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	})
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, GetCode(Validationf("bad input")))
	assert.Equal(t, ErrCodeConfiguration, GetCode(Configurationf("missing %s", "key")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestMapDBError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, MapDBError(nil))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		err := MapDBError(fmt.Errorf("query job: %w", pgx.ErrNoRows))
		assert.True(t, IsNotFound(err))
	})

	t.Run("unique violation becomes conflict with field", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:   pgerrcode.UniqueViolation,
			Detail: "Key (provider_message_id)=(msg-1) already exists.",
		}
		err := MapDBError(fmt.Errorf("insert email: %w", pgErr))
		require.True(t, IsConflict(err))

		var appErr *AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "provider_message_id", appErr.Field)
	})

	t.Run("foreign key violation", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
		assert.True(t, IsForeignKey(err))
	})

	t.Run("check violation becomes validation", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "amount"})
		require.True(t, IsValidation(err))

		var appErr *AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "amount", appErr.Field)
	})

	t.Run("context deadline becomes timeout", func(t *testing.T) {
		err := MapDBError(fmt.Errorf("exec: %w", context.DeadlineExceeded))
		assert.True(t, IsTimeout(err))
	})

	t.Run("context canceled becomes canceled", func(t *testing.T) {
		err := MapDBError(context.Canceled)
		assert.True(t, IsCanceled(err))
	})

	t.Run("unrecognized errors pass through unchanged", func(t *testing.T) {
		cause := errors.New("network down")
		assert.Equal(t, cause, MapDBError(cause))
	})
}
