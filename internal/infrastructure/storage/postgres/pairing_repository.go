package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/pairing"
)

type PairingRepository struct {
	s   *Storage
	log *slog.Logger
}

func NewPairingRepository(s *Storage, log *slog.Logger) *PairingRepository {
	return &PairingRepository{
		s:   s,
		log: log,
	}
}

func (r *PairingRepository) HasPending(ctx context.Context, fromDevice, toUser string) (bool, error) {
	var exists bool
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pairing_requests
			WHERE from_device = $1 AND to_user = $2 AND status = 'pending'
		)`, fromDevice, toUser).Scan(&exists)
	return exists, mapError(err, "check pending request")
}

func (r *PairingRepository) EdgeExists(ctx context.Context, deviceID, userID string) (bool, error) {
	var exists bool
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM paired_devices pd
			JOIN devices d ON d.id IN (pd.device1, pd.device2) AND d.id <> $1
			WHERE (pd.device1 = $1 OR pd.device2 = $1) AND d.user_id = $2
		)`, deviceID, userID).Scan(&exists)
	return exists, mapError(err, "check paired devices")
}

func (r *PairingRepository) CreateRequest(ctx context.Context, req *pairing.Request) error {
	err := r.s.q(ctx).QueryRow(ctx, `
		INSERT INTO pairing_requests (from_device, to_user, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, created_at`,
		req.FromDevice, req.ToUser,
	).Scan(&req.ID, &req.CreatedAt)
	return mapError(err, "insert pairing request")
}

func (r *PairingRepository) Incoming(ctx context.Context, userID string) ([]pairing.Incoming, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT pr.id, pr.status, pr.created_at, u.username, u.share_id, d.display_name
		FROM pairing_requests pr
		JOIN devices d ON d.id = pr.from_device
		JOIN users u ON u.id = d.user_id
		WHERE pr.to_user = $1 AND pr.status = 'pending'
		ORDER BY pr.created_at DESC`, userID)
	if err != nil {
		return nil, mapError(err, "list pairing requests")
	}
	defer rows.Close()

	requests := make([]pairing.Incoming, 0)
	for rows.Next() {
		var (
			in     pairing.Incoming
			status string
		)
		if err := rows.Scan(&in.ID, &status, &in.CreatedAt, &in.FromUsername, &in.FromShareID, &in.FromDeviceName); err != nil {
			return nil, fmt.Errorf("scan pairing request: %w", err)
		}
		in.Status = pairing.Status(status)
		requests = append(requests, in)
	}
	return requests, rows.Err()
}

func (r *PairingRepository) LockPending(ctx context.Context, requestID, toUser string) (*pairing.Request, error) {
	var (
		req    pairing.Request
		status string
	)
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT pr.id, pr.from_device, COALESCE(d.user_id::text, ''), pr.to_user, pr.status, pr.created_at, pr.responded_at
		FROM pairing_requests pr
		JOIN devices d ON d.id = pr.from_device
		WHERE pr.id = $1 AND pr.to_user = $2 AND pr.status = 'pending'
		FOR UPDATE OF pr`, requestID, toUser,
	).Scan(&req.ID, &req.FromDevice, &req.FromUserID, &req.ToUser, &status, &req.CreatedAt, &req.RespondedAt)
	if err != nil {
		return nil, mapError(err, "lock pairing request")
	}
	req.Status = pairing.Status(status)
	return &req, nil
}

// SetStatus меняет только pending запрос: конечные состояния неизменны
func (r *PairingRepository) SetStatus(ctx context.Context, requestID string, status pairing.Status) error {
	tag, err := r.s.q(ctx).Exec(ctx, `
		UPDATE pairing_requests
		SET status = $2, responded_at = NOW()
		WHERE id = $1 AND status = 'pending'`, requestID, string(status))
	if err != nil {
		return mapError(err, "update pairing request")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "update pairing request")
	}
	return nil
}

func (r *PairingRepository) Paired(ctx context.Context, userID string) ([]pairing.PairedDevice, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT device_name, device_id, last_used_at, username, share_id, paired_at, shared_group_id
		FROM (
			SELECT DISTINCT ON (d.id)
			       d.display_name AS device_name, d.device_id, d.last_used_at,
			       u.username, u.share_id, pd.paired_at, pd.shared_group_id::text AS shared_group_id
			FROM paired_devices pd
			JOIN devices mine ON mine.id IN (pd.device1, pd.device2) AND mine.user_id = $1
			JOIN devices d ON d.id IN (pd.device1, pd.device2) AND d.id <> mine.id
			JOIN users u ON u.id = d.user_id
			WHERE u.id <> $1
			ORDER BY d.id, pd.paired_at DESC
		) p
		ORDER BY paired_at DESC`, userID)
	if err != nil {
		return nil, mapError(err, "list paired devices")
	}
	defer rows.Close()

	devices := make([]pairing.PairedDevice, 0)
	for rows.Next() {
		var d pairing.PairedDevice
		if err := rows.Scan(&d.DeviceName, &d.DeviceID, &d.LastSeen, &d.Username, &d.ShareID, &d.PairedAt, &d.SharedGroupID); err != nil {
			return nil, fmt.Errorf("scan paired device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *PairingRepository) CreateGroup(ctx context.Context, id, name string) error {
	_, err := r.s.q(ctx).Exec(ctx, `INSERT INTO sync_groups (id, name) VALUES ($1, $2)`, id, name)
	return mapError(err, "insert shared group")
}

func (r *PairingRepository) DevicesOfUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.s.q(ctx).Query(ctx, `SELECT id FROM devices WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, mapError(err, "list user devices")
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan device id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PairingRepository) CreateEdge(ctx context.Context, device1, device2, groupID string) (bool, error) {
	tag, err := r.s.q(ctx).Exec(ctx, `
		INSERT INTO paired_devices (device1, device2, shared_group_id)
		SELECT $1::uuid, $2::uuid, $3::uuid
		WHERE NOT EXISTS (
			SELECT 1 FROM paired_devices
			WHERE (device1 = $1::uuid AND device2 = $2::uuid) OR (device1 = $2::uuid AND device2 = $1::uuid)
		)
		ON CONFLICT (device1, device2) DO NOTHING`, device1, device2, groupID)
	if err != nil {
		return false, mapError(err, "insert paired devices")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PairingRepository) GroupsOfUsers(ctx context.Context, userIDs ...string) ([]string, error) {
	rows, err := r.s.q(ctx).Query(ctx,
		`SELECT DISTINCT group_id::text FROM devices WHERE user_id = ANY($1::uuid[])`, userIDs)
	if err != nil {
		return nil, mapError(err, "list user groups")
	}
	defer rows.Close()

	groups := make([]string, 0)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *PairingRepository) MoveDevices(ctx context.Context, groups []string, to string) (int64, error) {
	tag, err := r.s.q(ctx).Exec(ctx,
		`UPDATE devices SET group_id = $1 WHERE group_id = ANY($2::uuid[])`, to, groups)
	if err != nil {
		return 0, mapError(err, "move devices")
	}
	return tag.RowsAffected(), nil
}

func (r *PairingRepository) Rehome(ctx context.Context, groups []string, to string) error {
	for _, stmt := range []struct{ op, sql string }{
		{"rehome notes", `UPDATE notes SET group_id = $1 WHERE group_id = ANY($2::uuid[])`},
		{"rehome images", `UPDATE images SET group_id = $1 WHERE group_id = ANY($2::uuid[])`},
		{"rehome sync events", `UPDATE sync_events SET group_id = $1 WHERE group_id = ANY($2::uuid[])`},
	} {
		if _, err := r.s.q(ctx).Exec(ctx, stmt.sql, to, groups); err != nil {
			return mapError(err, stmt.op)
		}
	}
	return nil
}

func (r *PairingRepository) DeleteGroups(ctx context.Context, groups []string, keep string) error {
	_, err := r.s.q(ctx).Exec(ctx, `
		DELETE FROM sync_groups g
		WHERE g.id = ANY($1::uuid[]) AND g.id <> $2
		  AND NOT EXISTS (SELECT 1 FROM devices d WHERE d.group_id = g.id)`, groups, keep)
	return mapError(err, "delete vacated groups")
}
