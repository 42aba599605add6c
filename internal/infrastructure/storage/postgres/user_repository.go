package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/apperr"
	"notesync/internal/domain/user"
)

func NewUserRepository(s *Storage, log *slog.Logger) *UserRepository {
	return &UserRepository{
		s:   s,
		log: log,
	}
}

type UserRepository struct {
	s   *Storage
	log *slog.Logger
}

// Create не прерывает транзакцию при конфликте: ON CONFLICT DO NOTHING
func (r *UserRepository) Create(ctx context.Context, username, shareID string) (*user.User, error) {
	u := user.User{Username: username, ShareID: shareID}
	err := r.s.q(ctx).QueryRow(ctx,
		`INSERT INTO users (username, share_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 RETURNING id, created_at`,
		username, shareID).Scan(&u.ID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("insert user: %w", apperr.ErrConflict)
	}
	if err != nil {
		return nil, mapError(err, "insert user")
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	var u user.User
	err := r.s.q(ctx).QueryRow(ctx,
		`SELECT id, username, share_id, created_at FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.ShareID, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "find user by username")
	}
	return &u, nil
}

func (r *UserRepository) FindByShareID(ctx context.Context, shareID string) (*user.User, error) {
	var u user.User
	err := r.s.q(ctx).QueryRow(ctx,
		`SELECT id, username, share_id, created_at FROM users WHERE share_id = $1`, shareID).
		Scan(&u.ID, &u.Username, &u.ShareID, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "find user by share id")
	}
	return &u, nil
}
