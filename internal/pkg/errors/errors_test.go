package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestStorage_ClassifiesTimeouts(t *testing.T) {
	assert.Nil(t, Storage("load", nil))

	err := Storage("load actor", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrStorageTimeout)
	assert.Contains(t, err.Error(), "load actor")

	err = Storage("load actor", timeoutErr{})
	assert.ErrorIs(t, err, ErrStorageTimeout)

	plain := errors.New("syntax error")
	err = Storage("load actor", plain)
	assert.ErrorIs(t, err, plain)
	assert.False(t, Is(err, ErrStorageTimeout))
}

func TestValidationAndNotFound(t *testing.T) {
	err := Validation("latitude %v out of range", 91.0)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "latitude 91 out of range")

	err = NotFound("actor", "a1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "not found: actor a1", err.Error())
}
