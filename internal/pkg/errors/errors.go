package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrStorageTimeout       = errors.New("storage timeout")
	ErrLiveLayerUnavailable = errors.New("live layer unavailable")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrForbidden            = errors.New("forbidden")
)

// Validation returns an ErrValidation carrying a message
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound naming the missing entity
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// Forbidden returns an ErrForbidden carrying a message
func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Storage wraps a storage failure, classifying deadlines and network timeouts as
// ErrStorageTimeout so callers can retry them
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeout(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStorageTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsTimeout reports whether err is a deadline or network timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrStorageTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Is forwards to the standard library so callers need a single import
func Is(err, target error) bool {
	return errors.Is(err, target)
}
