package pairing

import (
	"notesync/internal/domain/apperr"
	"notesync/internal/domain/user"
)

var (
	ErrNoUser           = user.ErrNoUser
	ErrTargetRequired   = apperr.Validation("target share id required")
	ErrSelfPairing      = apperr.Validation("cannot pair with your own devices")
	ErrInvalidAction    = apperr.Validation(`action must be "accept" or "reject"`)
	ErrTargetNotFound   = apperr.NotFound("target user not found")
	ErrRequestNotFound  = apperr.NotFound("pairing request not found or already processed")
	ErrAlreadyRequested = apperr.Conflict("pairing request already sent")
	ErrAlreadyPaired    = apperr.Conflict("devices already paired")
)
