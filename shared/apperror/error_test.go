package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Is(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", ErrEmployeeNotFound)
	assert.ErrorIs(t, wrapped, ErrEmployeeNotFound)
	assert.NotErrorIs(t, wrapped, ErrInvalidID)

	copied := New(CodeNotFound, "Employee not found", http.StatusNotFound)
	assert.ErrorIs(t, copied, ErrEmployeeNotFound)
}

func TestWrap(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, CodeInternalError, "Failed", http.StatusInternalServerError)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed: db down", err.Error())
	assert.Nil(t, Wrap(nil, CodeInternalError, "Failed", http.StatusInternalServerError))
}

func TestFrom(t *testing.T) {
	t.Run("finds app error in chain", func(t *testing.T) {
		err := From(fmt.Errorf("get: %w", ErrEmployeeNotFound))
		assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
		assert.Equal(t, CodeNotFound, err.Code)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		err := From(errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
		assert.Equal(t, CodeInternalError, err.Code)
	})
}
