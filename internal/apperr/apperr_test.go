package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("claims: not found")

	assert.Equal(t, KindValidation, KindOf(Validation("serial_number", "too short")))
	assert.Equal(t, KindNotFound, KindOf(NotFound(base, "claim", "c-1")))
	assert.Equal(t, KindPrecondition, KindOf(fmt.Errorf("wrapped: %w", Precondition(nil, "policy is %s", "pending"))))
	assert.Equal(t, KindPersistence, KindOf(errors.New("connection refused")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	base := errors.New("claims: not found")
	err := NotFound(base, "claim", "c-1")

	assert.Equal(t, "claim c-1 not found: claims: not found", err.Error())
	assert.ErrorIs(t, err, base)

	v := Validation("serial_number", "must be at least 8 characters")
	assert.Equal(t, "serial_number: must be at least 8 characters", v.Error())
	assert.Equal(t, "serial_number", FieldOf(v))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Persistence(errors.New("timeout"), "insert claim")))
	assert.False(t, Retryable(Validation("category", "unknown")))
}
