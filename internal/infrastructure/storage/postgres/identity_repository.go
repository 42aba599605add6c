package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/identity"
)

const identityColumns = `id, device_id, public_key, fingerprint, display_name, group_id,
	COALESCE(user_id::text, ''), created_at, last_used_at`

type IdentityRepository struct {
	s   *Storage
	log *slog.Logger
}

func NewIdentityRepository(s *Storage, log *slog.Logger) *IdentityRepository {
	return &IdentityRepository{
		s:   s,
		log: log,
	}
}

func scanIdentity(row pgx.Row) (*identity.Identity, error) {
	var i identity.Identity
	err := row.Scan(
		&i.ID,
		&i.DeviceID,
		&i.PublicKey,
		&i.Fingerprint,
		&i.DisplayName,
		&i.GroupID,
		&i.UserID,
		&i.CreatedAt,
		&i.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *IdentityRepository) FindByFingerprintDevice(ctx context.Context, fingerprint, deviceID string) (*identity.Identity, error) {
	row := r.s.q(ctx).QueryRow(ctx,
		`SELECT `+identityColumns+` FROM devices WHERE fingerprint = $1 AND device_id = $2`,
		fingerprint, deviceID)
	i, err := scanIdentity(row)
	if err != nil {
		return nil, mapError(err, "find identity")
	}
	return i, nil
}

func (r *IdentityRepository) FindByUserDevice(ctx context.Context, userID, deviceID string) (*identity.Identity, error) {
	row := r.s.q(ctx).QueryRow(ctx,
		`SELECT `+identityColumns+` FROM devices WHERE user_id = $1 AND device_id = $2`,
		userID, deviceID)
	i, err := scanIdentity(row)
	if err != nil {
		return nil, mapError(err, "find user device")
	}
	return i, nil
}

func (r *IdentityRepository) ListByUser(ctx context.Context, userID string) ([]identity.Identity, error) {
	rows, err := r.s.q(ctx).Query(ctx,
		`SELECT `+identityColumns+` FROM devices WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, mapError(err, "list user devices")
	}
	defer rows.Close()

	var result []identity.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		result = append(result, *i)
	}
	return result, rows.Err()
}

func (r *IdentityRepository) Create(ctx context.Context, i *identity.Identity) error {
	err := r.s.q(ctx).QueryRow(ctx,
		`INSERT INTO devices (device_id, public_key, fingerprint, display_name, group_id, user_id)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
		 RETURNING id, created_at, last_used_at`,
		i.DeviceID, i.PublicKey, i.Fingerprint, i.DisplayName, i.GroupID, i.UserID,
	).Scan(&i.ID, &i.CreatedAt, &i.LastUsedAt)
	return mapError(err, "insert device")
}

func (r *IdentityRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	_, err := r.s.q(ctx).Exec(ctx,
		`UPDATE devices SET display_name = $2, last_used_at = NOW() WHERE id = $1`, id, displayName)
	return mapError(err, "update device name")
}

func (r *IdentityRepository) BindUser(ctx context.Context, id, userID string) error {
	tag, err := r.s.q(ctx).Exec(ctx,
		`UPDATE devices SET user_id = $2, last_used_at = NOW() WHERE id = $1`, id, userID)
	if err != nil {
		return mapError(err, "bind device")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "bind device")
	}
	return nil
}

func (r *IdentityRepository) Touch(ctx context.Context, id string) error {
	_, err := r.s.q(ctx).Exec(ctx, `UPDATE devices SET last_used_at = NOW() WHERE id = $1`, id)
	return mapError(err, "touch device")
}

func (r *IdentityRepository) CreateGroup(ctx context.Context, name string) (string, error) {
	var id string
	err := r.s.q(ctx).QueryRow(ctx,
		`INSERT INTO sync_groups (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, mapError(err, "insert group")
}
