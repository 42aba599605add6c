package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/sync"
)

const noteColumns = `n.id, n.group_id, n.title, n.content, n.version, COALESCE(n.local_id, ''),
	COALESCE(n.folder_path, ''), COALESCE(n.file_name, ''), COALESCE(n.relative_path, ''),
	n.device_id, n.fingerprint, n.has_images, n.created_at, n.updated_at`

// SyncRepository реализация репозитория синхронизации для PostgreSQL
type SyncRepository struct {
	s   *Storage
	log *slog.Logger
}

// NewSyncRepository создает новый репозиторий синхронизации
func NewSyncRepository(s *Storage, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		s:   s,
		log: log,
	}
}

func noteDest(n *sync.Note) []any {
	return []any{
		&n.ID,
		&n.GroupID,
		&n.Title,
		&n.Content,
		&n.Version,
		&n.LocalID,
		&n.FolderPath,
		&n.FileName,
		&n.RelativePath,
		&n.DeviceID,
		&n.Fingerprint,
		&n.HasImages,
		&n.CreatedAt,
		&n.UpdatedAt,
	}
}

func scanNote(row pgx.Row) (*sync.Note, error) {
	var n sync.Note
	if err := row.Scan(noteDest(&n)...); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *SyncRepository) CreateNote(ctx context.Context, note *sync.Note) error {
	err := r.s.q(ctx).QueryRow(ctx, `
		INSERT INTO notes (group_id, title, content, local_id, folder_path, file_name, relative_path,
		                   device_id, fingerprint, has_images)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)
		RETURNING id, version, created_at, updated_at`,
		note.GroupID, note.Title, note.Content, note.LocalID, note.FolderPath, note.FileName,
		note.RelativePath, note.DeviceID, note.Fingerprint, note.HasImages,
	).Scan(&note.ID, &note.Version, &note.CreatedAt, &note.UpdatedAt)
	return mapError(err, "insert note")
}

// UpdateNote блокирует строку самим UPDATE, группа входит в условие
func (r *SyncRepository) UpdateNote(ctx context.Context, groupID string, upd sync.NoteUpdate) (*sync.Note, error) {
	row := r.s.q(ctx).QueryRow(ctx, `
		UPDATE notes n
		SET title = $3,
		    content = $4,
		    folder_path = COALESCE($5, n.folder_path),
		    file_name = COALESCE($6, n.file_name),
		    relative_path = COALESCE($7, n.relative_path),
		    version = n.version + 1,
		    updated_at = NOW()
		WHERE n.id = $1 AND n.group_id = $2
		RETURNING `+noteColumns,
		upd.ID, groupID, upd.Title, upd.Content, upd.FolderPath, upd.FileName, upd.RelativePath)
	n, err := scanNote(row)
	if err != nil {
		return nil, mapError(err, "update note")
	}
	return n, nil
}

func (r *SyncRepository) LockNote(ctx context.Context, groupID, noteID string) (*sync.Note, error) {
	row := r.s.q(ctx).QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes n WHERE n.id = $1 AND n.group_id = $2 FOR UPDATE`,
		noteID, groupID)
	n, err := scanNote(row)
	if err != nil {
		return nil, mapError(err, "lock note")
	}
	return n, nil
}

func (r *SyncRepository) SetContent(ctx context.Context, groupID, noteID, content string) (*sync.Note, error) {
	row := r.s.q(ctx).QueryRow(ctx, `
		UPDATE notes n
		SET content = $3, version = n.version + 1, updated_at = NOW()
		WHERE n.id = $1 AND n.group_id = $2
		RETURNING `+noteColumns,
		noteID, groupID, content)
	n, err := scanNote(row)
	if err != nil {
		return nil, mapError(err, "set note content")
	}
	return n, nil
}

func (r *SyncRepository) BumpImages(ctx context.Context, groupID, noteID string, hasImages bool) (*sync.Note, error) {
	row := r.s.q(ctx).QueryRow(ctx, `
		UPDATE notes n
		SET has_images = $3, version = n.version + 1, updated_at = NOW()
		WHERE n.id = $1 AND n.group_id = $2
		RETURNING `+noteColumns,
		noteID, groupID, hasImages)
	n, err := scanNote(row)
	if err != nil {
		return nil, mapError(err, "bump note images")
	}
	return n, nil
}

// AppendEvent берет advisory lock группы до конца транзакции, время события
// clock_timestamp() после захвата, а не начало транзакции
func (r *SyncRepository) AppendEvent(ctx context.Context, e *sync.Event) error {
	err := r.s.q(ctx).QueryRow(ctx, `
		WITH l AS (SELECT pg_advisory_xact_lock(hashtext($1::uuid::text)))
		INSERT INTO sync_events (group_id, note_id, event_type, device_id, fingerprint, created_at)
		SELECT $1::uuid, $2::uuid, $3::text, $4::text, $5::text, clock_timestamp() FROM l
		RETURNING seq, created_at`,
		e.GroupID, e.NoteID, string(e.Type), e.DeviceID, e.Fingerprint,
	).Scan(&e.Seq, &e.CreatedAt)
	return mapError(err, "insert sync event")
}

// Cursor ждет завершения пишущих транзакций группы (shared lock) и возвращает clock_timestamp()
func (r *SyncRepository) Cursor(ctx context.Context, groupID string) (time.Time, error) {
	var cursor time.Time
	err := r.s.q(ctx).QueryRow(ctx, `
		WITH l AS (SELECT pg_advisory_xact_lock_shared(hashtext($1::uuid::text)))
		SELECT clock_timestamp() FROM l`,
		groupID,
	).Scan(&cursor)
	if err != nil {
		return time.Time{}, mapError(err, "read sync cursor")
	}
	return cursor, nil
}

func (r *SyncRepository) ListNotes(ctx context.Context, groupID string) ([]sync.Note, error) {
	rows, err := r.s.q(ctx).Query(ctx,
		`SELECT `+noteColumns+` FROM notes n WHERE n.group_id = $1 ORDER BY n.updated_at DESC`, groupID)
	if err != nil {
		return nil, mapError(err, "list notes")
	}
	defer rows.Close()

	notes := make([]sync.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// ListChanges события группы по возрастанию seq, без событий самого вызывающего
func (r *SyncRepository) ListChanges(ctx context.Context, q sync.ChangeQuery) ([]sync.Change, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT `+noteColumns+`, e.event_type, e.created_at, e.seq
		FROM sync_events e
		JOIN notes n ON n.id = e.note_id AND n.group_id = e.group_id
		WHERE e.group_id = $1
		  AND NOT (e.device_id = $2 AND e.fingerprint = $3)
		  AND ($4::timestamptz IS NULL OR e.created_at > $4)
		ORDER BY e.seq ASC`,
		q.GroupID, q.ExcludeDeviceID, q.ExcludeFingerprint, q.Since)
	if err != nil {
		return nil, mapError(err, "list changes")
	}
	defer rows.Close()

	changes := make([]sync.Change, 0)
	for rows.Next() {
		var (
			c   sync.Change
			typ string
		)
		dest := append(noteDest(&c.Note), &typ, &c.EventTime, &c.Seq)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.EventType = sync.EventType(typ)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
