package attachment

import "notesync/internal/domain/apperr"

var (
	ErrNoFile           = apperr.Validation("no image file provided")
	ErrNotImage         = apperr.Validation("only image files are allowed")
	ErrFilenameRequired = apperr.Validation("filename and contentType are required")
	ErrImageNotFound    = apperr.NotFound("image not found")
	ErrNoteNotFound     = apperr.NotFound("note not found")
)

func errTooLarge(max int64) error {
	return apperr.Validation("image exceeds %d bytes", max)
}
