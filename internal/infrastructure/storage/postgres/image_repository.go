package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/attachment"
)

const imageColumns = `id, group_id, COALESCE(note_id::text, ''), filename, original_filename, storage_path,
	public_ref, content_type, size, device_id, fingerprint, is_deleted, deleted_at, created_at, updated_at`

type ImageRepository struct {
	s   *Storage
	log *slog.Logger
}

func NewImageRepository(s *Storage, log *slog.Logger) *ImageRepository {
	return &ImageRepository{
		s:   s,
		log: log,
	}
}

func scanImage(row pgx.Row) (*attachment.Image, error) {
	var img attachment.Image
	err := row.Scan(
		&img.ID,
		&img.GroupID,
		&img.NoteID,
		&img.Filename,
		&img.OriginalFilename,
		&img.StoragePath,
		&img.PublicRef,
		&img.ContentType,
		&img.Size,
		&img.DeviceID,
		&img.Fingerprint,
		&img.IsDeleted,
		&img.DeletedAt,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *ImageRepository) Create(ctx context.Context, img *attachment.Image) error {
	err := r.s.q(ctx).QueryRow(ctx, `
		INSERT INTO images (group_id, note_id, filename, original_filename, storage_path, public_ref,
		                    content_type, size, device_id, fingerprint)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		img.GroupID, img.NoteID, img.Filename, img.OriginalFilename, img.StoragePath, img.PublicRef,
		img.ContentType, img.Size, img.DeviceID, img.Fingerprint,
	).Scan(&img.ID, &img.CreatedAt, &img.UpdatedAt)
	return mapError(err, "insert image")
}

func (r *ImageRepository) LockActive(ctx context.Context, groupID, imageID string) (*attachment.Image, error) {
	row := r.s.q(ctx).QueryRow(ctx, `
		SELECT `+imageColumns+`
		FROM images
		WHERE id = $1 AND group_id = $2 AND NOT is_deleted
		FOR UPDATE`,
		imageID, groupID)
	img, err := scanImage(row)
	if err != nil {
		return nil, mapError(err, "lock image")
	}
	return img, nil
}

func (r *ImageRepository) ListByNote(ctx context.Context, groupID, noteID string) ([]attachment.Image, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT `+imageColumns+`
		FROM images
		WHERE note_id = $1 AND group_id = $2 AND NOT is_deleted
		ORDER BY created_at ASC`,
		noteID, groupID)
	if err != nil {
		return nil, mapError(err, "list images")
	}
	defer rows.Close()

	images := make([]attachment.Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

func (r *ImageRepository) SoftDelete(ctx context.Context, groupID, imageID string) error {
	tag, err := r.s.q(ctx).Exec(ctx, `
		UPDATE images
		SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND group_id = $2 AND NOT is_deleted`,
		imageID, groupID)
	if err != nil {
		return mapError(err, "soft delete image")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "soft delete image")
	}
	return nil
}

func (r *ImageRepository) CountActive(ctx context.Context, groupID, noteID string) (int, error) {
	var n int
	err := r.s.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM images WHERE note_id = $1 AND group_id = $2 AND NOT is_deleted`,
		noteID, groupID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "count images")
	}
	return n, nil
}
