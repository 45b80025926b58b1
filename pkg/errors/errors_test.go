package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrNotFound, "course 4 not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "course 4 not found", err.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestWrappedCauseIsReachable(t *testing.T) {
	cause := Clone(ErrUnauthorized, "token expired")
	batch := Wrap(cause, ErrBatchPartialFailure.Code, ErrBatchPartialFailure.Status, "resolve students")

	assert.True(t, errors.Is(batch, ErrBatchPartialFailure))
	assert.True(t, errors.Is(batch, ErrUnauthorized))
	assert.Contains(t, batch.Error(), "token expired")
}

func TestValidationCopiesFields(t *testing.T) {
	fields := map[string]string{"name": "name is required"}
	err := Validation("invalid course", fields)
	fields["name"] = "changed"

	require.NotNil(t, err.FieldErrors)
	assert.Equal(t, "name is required", err.FieldErrors["name"])
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := Clone(ErrAPI, "boom")
	assert.Same(t, typed, FromError(fmt.Errorf("context: %w", typed)))

	generic := FromError(errors.New("plain"))
	assert.Equal(t, ErrInternal.Code, generic.Code)
	assert.Equal(t, http.StatusInternalServerError, generic.Status)
}
