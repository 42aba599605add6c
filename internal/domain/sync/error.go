package sync

import (
	"errors"

	"notesync/internal/domain/apperr"
)

var (
	ErrEmptyBatch   = apperr.Validation("notes array is required")
	ErrNoteNotFound = apperr.NotFound("note not found")

	ErrPatchUnparsable = errors.New("patch text cannot be parsed")
	ErrPatchEmpty      = errors.New("patch contains no hunks")
)
