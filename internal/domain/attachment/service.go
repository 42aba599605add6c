package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/apperr"
	"notesync/internal/domain/identity"
	"notesync/internal/domain/sync"
	"notesync/internal/infrastructure/blob"
	"notesync/internal/infrastructure/storage"
)

const (
	defaultMaxBytes     = 10 << 20
	defaultURLTTL       = 24 * time.Hour
	defaultUploadURLTTL = time.Hour
	cleanupTimeout      = 30 * time.Second
)

type Servicer interface {
	Upload(ctx context.Context, p identity.Principal, in UploadInput) (*Image, error)
	List(ctx context.Context, p identity.Principal, noteID string) ([]Image, error)
	Delete(ctx context.Context, p identity.Principal, imageID string) error
	UploadURL(ctx context.Context, p identity.Principal, in UploadURLInput) (*UploadURL, error)
}

type Service struct {
	repo     Repository
	notes    sync.Repository
	store    blob.Store
	remover  Remover
	tx       storage.Transactor
	notifier sync.ChangeNotifier
	log      *slog.Logger
	config   Config

	now   func() time.Time
	newID func() string
}

func NewService(
	repo Repository,
	notes sync.Repository,
	store blob.Store,
	remover Remover,
	tx storage.Transactor,
	notifier sync.ChangeNotifier,
	log *slog.Logger,
	config Config,
) *Service {
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultMaxBytes
	}
	if config.URLTTL <= 0 {
		config.URLTTL = defaultURLTTL
	}
	if config.UploadURLTTL <= 0 {
		config.UploadURLTTL = defaultUploadURLTTL
	}

	return &Service{
		repo:     repo,
		notes:    notes,
		store:    store,
		remover:  remover,
		tx:       tx,
		notifier: notifier,
		log:      log.With(slog.String("component", "attachment")),
		config:   config,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// StoragePath строит путь объекта: group/note/<unixms>_<uuid>.<ext>, без note при его отсутствии
func StoragePath(groupID, noteID, ext string, at time.Time, id string) string {
	name := fmt.Sprintf("%d_%s.%s", at.UnixMilli(), id, ext)
	if noteID == "" {
		return groupID + "/" + name
	}
	return groupID + "/" + noteID + "/" + name
}

func extension(filename string, mtype *mimetype.MIME) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" && mtype != nil {
		ext = strings.TrimPrefix(mtype.Extension(), ".")
	}
	if ext == "" {
		ext = "bin"
	}
	return ext
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// MaxBytes действующий лимит размера файла
func (s *Service) MaxBytes() int64 {
	return s.config.MaxBytes
}

func (s *Service) Upload(ctx context.Context, p identity.Principal, in UploadInput) (*Image, error) {
	if len(in.Data) == 0 {
		return nil, ErrNoFile
	}
	size := int64(len(in.Data))
	if size > s.config.MaxBytes {
		return nil, errTooLarge(s.config.MaxBytes)
	}

	// заявленный клиентом тип не учитывается, решает содержимое
	mtype := mimetype.Detect(in.Data)
	if !isImage(mtype.String()) {
		s.log.Debug("upload rejected",
			slog.String("declared", in.ContentType),
			slog.String("detected", mtype.String()),
		)
		return nil, ErrNotImage
	}
	if in.NoteID != "" && !validID(in.NoteID) {
		return nil, ErrNoteNotFound
	}

	path := StoragePath(p.GroupID, in.NoteID, extension(in.Filename, mtype), s.now(), s.newID())
	if err := s.store.Put(ctx, path, bytes.NewReader(in.Data), size, mtype.String()); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	signed, err := s.store.SignGet(ctx, path, s.config.URLTTL)
	if err != nil {
		s.cleanup(ctx, path)
		return nil, fmt.Errorf("sign image url: %w", err)
	}

	img := &Image{
		GroupID:          p.GroupID,
		NoteID:           in.NoteID,
		Filename:         filepath.Base(path),
		OriginalFilename: in.Filename,
		StoragePath:      path,
		PublicRef:        signed,
		ContentType:      mtype.String(),
		Size:             size,
		DeviceID:         p.DeviceID,
		Fingerprint:      p.Fingerprint,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if img.NoteID != "" {
			if _, err := s.notes.LockNote(ctx, p.GroupID, img.NoteID); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return ErrNoteNotFound
				}
				return fmt.Errorf("lock note: %w", err)
			}
		}
		if err := s.repo.Create(ctx, img); err != nil {
			return fmt.Errorf("create image: %w", err)
		}
		if img.NoteID == "" {
			return nil
		}
		if _, err := s.notes.BumpImages(ctx, p.GroupID, img.NoteID, true); err != nil {
			return fmt.Errorf("mark note images: %w", err)
		}
		return s.emit(ctx, p, img.NoteID, sync.EventImageUpload)
	})
	if err != nil {
		s.cleanup(ctx, path)
		return nil, err
	}

	if img.NoteID != "" && s.notifier != nil {
		s.notifier.NotifyGroup(p.GroupID, p.DeviceID)
	}

	s.log.Info("image uploaded",
		slog.String("group_id", p.GroupID),
		slog.String("image_id", img.ID),
		slog.String("path", path),
		slog.Int64("size", size),
	)
	img.SignedURL = signed
	return img, nil
}

// cleanup удаляет объект, для которого не удалось создать запись
func (s *Service) cleanup(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, path); err != nil {
		s.log.Warn("failed to remove orphan blob", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (s *Service) List(ctx context.Context, p identity.Principal, noteID string) ([]Image, error) {
	if !validID(noteID) {
		return []Image{}, nil
	}

	images, err := s.repo.ListByNote(ctx, p.GroupID, noteID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	for i := range images {
		signed, err := s.store.SignGet(ctx, images[i].StoragePath, s.config.URLTTL)
		if err != nil {
			return nil, fmt.Errorf("sign image url: %w", err)
		}
		images[i].SignedURL = signed
	}
	return images, nil
}

func (s *Service) Delete(ctx context.Context, p identity.Principal, imageID string) error {
	if !validID(imageID) {
		return ErrImageNotFound
	}

	var img *Image
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		img, err = s.repo.LockActive(ctx, p.GroupID, imageID)
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrImageNotFound
		}
		if err != nil {
			return fmt.Errorf("find image: %w", err)
		}

		if err := s.repo.SoftDelete(ctx, p.GroupID, imageID); err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		if img.NoteID == "" {
			return nil
		}

		remaining, err := s.repo.CountActive(ctx, p.GroupID, img.NoteID)
		if err != nil {
			return fmt.Errorf("count images: %w", err)
		}
		if _, err := s.notes.BumpImages(ctx, p.GroupID, img.NoteID, remaining > 0); err != nil {
			return fmt.Errorf("update note images: %w", err)
		}
		return s.emit(ctx, p, img.NoteID, sync.EventImageDelete)
	})
	if err != nil {
		return err
	}

	if s.remover != nil {
		s.remover.Enqueue(img.StoragePath)
	}
	if img.NoteID != "" && s.notifier != nil {
		s.notifier.NotifyGroup(p.GroupID, p.DeviceID)
	}

	s.log.Info("image deleted", slog.String("group_id", p.GroupID), slog.String("image_id", imageID))
	return nil
}

func (s *Service) UploadURL(ctx context.Context, p identity.Principal, in UploadURLInput) (*UploadURL, error) {
	if strings.TrimSpace(in.Filename) == "" || strings.TrimSpace(in.ContentType) == "" {
		return nil, ErrFilenameRequired
	}
	if !isImage(in.ContentType) {
		return nil, ErrNotImage
	}
	if in.NoteID != "" && !validID(in.NoteID) {
		return nil, ErrNoteNotFound
	}

	path := StoragePath(p.GroupID, in.NoteID, extension(in.Filename, mimetype.Lookup(in.ContentType)), s.now(), s.newID())
	signed, err := s.store.SignPut(ctx, path, s.config.UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign upload url: %w", err)
	}

	return &UploadURL{
		UploadURL:   signed,
		StoragePath: path,
		ExpiresIn:   int(s.config.UploadURLTTL.Seconds()),
	}, nil
}

func (s *Service) emit(ctx context.Context, p identity.Principal, noteID string, typ sync.EventType) error {
	if err := s.notes.AppendEvent(ctx, &sync.Event{
		GroupID:     p.GroupID,
		NoteID:      noteID,
		Type:        typ,
		DeviceID:    p.DeviceID,
		Fingerprint: p.Fingerprint,
	}); err != nil {
		return fmt.Errorf("append %s event: %w", typ, err)
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
