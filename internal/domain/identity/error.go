package identity

import "notesync/internal/domain/apperr"

var (
	ErrNotFound         = apperr.NotFound("identity not found")
	ErrAuthRequired     = apperr.Auth("key authentication required")
	ErrUnknownIdentity  = apperr.Auth("key not found")
	ErrInvalidSignature = apperr.Auth("invalid signature")
	ErrDeviceIDRequired = apperr.Validation("deviceId is required")
	ErrPublicKeyMissing = apperr.Validation("publicKey is required")
)
