package user

import "notesync/internal/domain/apperr"

var (
	ErrNotFound          = apperr.NotFound("user not found")
	ErrInvalidInput      = apperr.Validation("invalid input")
	ErrDeviceExists      = apperr.Conflict("device already registered for this user")
	ErrKeyBoundElsewhere = apperr.Conflict("device key already registered to another user")
	ErrShareIDExhausted  = apperr.Conflict("unable to generate unique share id")
	ErrNoUser            = apperr.Validation("device is not bound to a user account")
)
