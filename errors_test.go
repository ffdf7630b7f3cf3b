package sqlwith_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/sqlwith"
)

func TestColumnNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := sqlwith.NewColumnNotFoundError("x")
		assert.Equal(t, `sqlwith: column "x" not found`, err.Error())
		assert.Equal(t, "x", err.Column())
	})

	t.Run("Is", func(t *testing.T) {
		err := sqlwith.NewColumnNotFoundError("y")
		assert.True(t, errors.Is(err, sqlwith.ErrColumnNotFound))
		assert.False(t, errors.Is(err, sqlwith.ErrDecode))
	})

	t.Run("IsColumnNotFound", func(t *testing.T) {
		err := sqlwith.NewColumnNotFoundError("z")
		assert.True(t, sqlwith.IsColumnNotFound(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, sqlwith.IsColumnNotFound(wrapped))

		// Sentinel error
		assert.True(t, sqlwith.IsColumnNotFound(sqlwith.ErrColumnNotFound))

		// Non-matching error
		assert.False(t, sqlwith.IsColumnNotFound(errors.New("other error")))
		assert.False(t, sqlwith.IsColumnNotFound(nil))
	})
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("converting driver.Value type string to a int64")
	err := &sqlwith.DecodeError{Column: "x", Type: reflect.TypeFor[int64](), Value: "abc", Cause: cause}

	t.Run("Error", func(t *testing.T) {
		assert.Contains(t, err.Error(), `sqlwith: decode column "x"`)
		assert.Contains(t, err.Error(), "into int64")
		assert.Contains(t, err.Error(), cause.Error())
	})

	t.Run("Is", func(t *testing.T) {
		assert.True(t, errors.Is(err, sqlwith.ErrDecode))
		assert.True(t, errors.Is(err, cause))
		assert.False(t, errors.Is(err, sqlwith.ErrColumnNotFound))
	})

	t.Run("IsDecodeError", func(t *testing.T) {
		assert.True(t, sqlwith.IsDecodeError(fmt.Errorf("wrapped: %w", err)))
		assert.False(t, sqlwith.IsDecodeError(errors.New("other")))
		assert.False(t, sqlwith.IsDecodeError(nil))
	})
}

func TestUnexpectedNullError(t *testing.T) {
	err := &sqlwith.UnexpectedNullError{Column: "y", Type: reflect.TypeFor[string]()}
	assert.Equal(t, `sqlwith: column "y" is NULL, cannot decode into string`, err.Error())
	assert.True(t, errors.Is(err, sqlwith.ErrDecode))
	assert.True(t, sqlwith.IsUnexpectedNull(err))
	assert.False(t, sqlwith.IsUnexpectedNull(errors.New("other")))
	assert.False(t, sqlwith.IsUnexpectedNull(nil))
}
