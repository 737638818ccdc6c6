package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// invalidTextRepresentation is raised when a value cannot be cast to its
// column type, such as a malformed uuid.
const invalidTextRepresentation = "22P02"

// Common repository errors
var (
	// ErrUnauthorized is returned when there is no signed-in owner or the
	// caller does not own the record
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when the target record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrRemoteUnavailable is returned when the backing store cannot serve the call
	ErrRemoteUnavailable = errors.New("record store unavailable")

	// ErrInvalidRecord is returned when a record does not match its declared shape
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInviteHandled is returned when an invite is no longer pending
	ErrInviteHandled = errors.New("invite already handled")

	// ErrSelfInvite is returned when an owner tries to accept their own invite
	ErrSelfInvite = errors.New("cannot accept your own invite")
)

// translate maps driver errors onto the repository taxonomy. Errors that are
// already part of it pass through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidRecord),
		errors.Is(err, ErrInviteHandled),
		errors.Is(err, ErrSelfInvite),
		errors.Is(err, ErrRemoteUnavailable):
		return err
	case sqlState(err) == invalidTextRepresentation:
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
}

// sqlState returns the postgres error code of err from either driver.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var coded interface{ SQLState() string }
	if errors.As(err, &coded) {
		return coded.SQLState()
	}
	return ""
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
}
