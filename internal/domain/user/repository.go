package user

import (
	"context"
)

type Repository interface {
	// Create возвращает apperr.ErrConflict, если username или share id заняты
	Create(ctx context.Context, username, shareID string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByShareID(ctx context.Context, shareID string) (*User, error)
}
