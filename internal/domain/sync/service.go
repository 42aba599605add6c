package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/apperr"
	"notesync/internal/domain/identity"
	"notesync/internal/infrastructure/storage"
)

const defaultMaxBatch = 500

// Servicer интерфейс сервиса синхронизации
type Servicer interface {
	// Pull возвращает события группы после since, исключая собственные события вызывающего,
	// и курсор для следующего since
	Pull(ctx context.Context, p identity.Principal, since *time.Time) ([]Change, time.Time, error)
	// Snapshot возвращает все заметки группы, сначала самые свежие, и курсор для pull
	Snapshot(ctx context.Context, p identity.Principal) ([]Note, time.Time, error)
	// Push применяет пакет в одной транзакции
	Push(ctx context.Context, p identity.Principal, items []PushItem) (*PushResult, error)
}

// Service реализация сервиса синхронизации
type Service struct {
	repo     Repository
	tx       storage.Transactor
	patcher  Patcher
	notifier ChangeNotifier
	log      *slog.Logger
	config   Config
	now      func() time.Time
}

// NewService создает новый сервис синхронизации
func NewService(repo Repository, tx storage.Transactor, patcher Patcher, notifier ChangeNotifier, log *slog.Logger, config Config) *Service {
	if config.MaxBatch <= 0 {
		config.MaxBatch = defaultMaxBatch
	}
	if patcher == nil {
		patcher = NewPatcher()
	}

	return &Service{
		repo:     repo,
		tx:       tx,
		patcher:  patcher,
		notifier: notifier,
		log:      log.With(slog.String("component", "sync")),
		config:   config,
		now:      time.Now,
	}
}

func (s *Service) Pull(ctx context.Context, p identity.Principal, since *time.Time) ([]Change, time.Time, error) {
	var (
		changes []Change
		cursor  time.Time
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if cursor, err = s.repo.Cursor(ctx, p.GroupID); err != nil {
			return fmt.Errorf("failed to read cursor: %w", err)
		}
		changes, err = s.repo.ListChanges(ctx, ChangeQuery{
			GroupID:            p.GroupID,
			ExcludeDeviceID:    p.DeviceID,
			ExcludeFingerprint: p.Fingerprint,
			Since:              since,
		})
		if err != nil {
			return fmt.Errorf("failed to list changes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	s.log.Debug("returning changes",
		slog.String("group_id", p.GroupID),
		slog.Int("count", len(changes)),
	)
	return changes, cursor.UTC(), nil
}

func (s *Service) Snapshot(ctx context.Context, p identity.Principal) ([]Note, time.Time, error) {
	var (
		notes  []Note
		cursor time.Time
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if cursor, err = s.repo.Cursor(ctx, p.GroupID); err != nil {
			return fmt.Errorf("failed to read cursor: %w", err)
		}
		if notes, err = s.repo.ListNotes(ctx, p.GroupID); err != nil {
			return fmt.Errorf("failed to list notes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return notes, cursor.UTC(), nil
}

// Validate проверяет пакет до любых записей
func (s *Service) Validate(items []PushItem) error {
	if len(items) == 0 {
		return ErrEmptyBatch
	}
	if len(items) > s.config.MaxBatch {
		return apperr.Validation("batch exceeds %d items", s.config.MaxBatch)
	}

	var details []string
	for i, it := range items {
		switch {
		case !it.EventType.Pushable():
			details = append(details, fmt.Sprintf("notes[%d]: unknown eventType %q", i, it.EventType))
		case it.EventType != EventCreate && strings.TrimSpace(it.ServerID) == "":
			details = append(details, fmt.Sprintf("notes[%d]: serverId is required for %s", i, it.EventType))
		case it.EventType == EventPatch && it.Patch == "":
			details = append(details, fmt.Sprintf("notes[%d]: patch is required", i))
		}
	}
	if len(details) > 0 {
		return apperr.Validation("invalid push batch").WithDetails(details...)
	}
	return nil
}

func (s *Service) Push(ctx context.Context, p identity.Principal, items []PushItem) (*PushResult, error) {
	if err := s.Validate(items); err != nil {
		return nil, err
	}

	results := make([]ItemResult, 0, len(items))
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		results = results[:0]
		for _, it := range items {
			res, err := s.apply(ctx, p, it)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		s.log.Error("push aborted",
			slog.String("group_id", p.GroupID),
			slog.String("device_id", p.DeviceID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if mutated(results) && s.notifier != nil {
		s.notifier.NotifyGroup(p.GroupID, p.DeviceID)
	}

	s.log.Info("push applied",
		slog.String("group_id", p.GroupID),
		slog.String("device_id", p.DeviceID),
		slog.Int("items", len(results)),
	)
	return &PushResult{Results: results, Timestamp: s.now().UTC()}, nil
}

func (s *Service) apply(ctx context.Context, p identity.Principal, it PushItem) (ItemResult, error) {
	switch it.EventType {
	case EventCreate:
		return s.create(ctx, p, it)
	case EventUpdate:
		return s.update(ctx, p, it)
	default:
		return s.patch(ctx, p, it)
	}
}

func (s *Service) create(ctx context.Context, p identity.Principal, it PushItem) (ItemResult, error) {
	note := &Note{
		GroupID:      p.GroupID,
		Title:        it.Title,
		Content:      it.Content,
		LocalID:      it.LocalID,
		FolderPath:   deref(it.FolderPath),
		FileName:     deref(it.FileName),
		RelativePath: deref(it.RelativePath),
		DeviceID:     p.DeviceID,
		Fingerprint:  p.Fingerprint,
		HasImages:    it.HasImages != nil && *it.HasImages,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return ItemResult{}, fmt.Errorf("create note: %w", err)
	}
	if err := s.emit(ctx, p, note.ID, EventCreate); err != nil {
		return ItemResult{}, err
	}

	return ItemResult{
		LocalID:   it.LocalID,
		ServerID:  note.ID,
		Status:    StatusCreated,
		Version:   note.Version,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}, nil
}

func (s *Service) update(ctx context.Context, p identity.Principal, it PushItem) (ItemResult, error) {
	if !validID(it.ServerID) {
		return notFound(it), nil
	}

	note, err := s.repo.UpdateNote(ctx, p.GroupID, NoteUpdate{
		ID:           it.ServerID,
		Title:        it.Title,
		Content:      it.Content,
		FolderPath:   it.FolderPath,
		FileName:     it.FileName,
		RelativePath: it.RelativePath,
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return notFound(it), nil
	}
	if err != nil {
		return ItemResult{}, fmt.Errorf("update note: %w", err)
	}
	if err := s.emit(ctx, p, note.ID, EventUpdate); err != nil {
		return ItemResult{}, err
	}

	return ItemResult{
		LocalID:   it.LocalID,
		ServerID:  note.ID,
		Status:    StatusUpdated,
		Version:   note.Version,
		UpdatedAt: note.UpdatedAt,
	}, nil
}

// patch применяется к текущему содержимому на сервере под блокировкой строки.
// Любой неприменившийся фрагмент отклоняет операцию целиком.
func (s *Service) patch(ctx context.Context, p identity.Principal, it PushItem) (ItemResult, error) {
	if !validID(it.ServerID) {
		return notFound(it), nil
	}

	current, err := s.repo.LockNote(ctx, p.GroupID, it.ServerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return notFound(it), nil
	}
	if err != nil {
		return ItemResult{}, fmt.Errorf("lock note: %w", err)
	}

	content, hunks, err := s.patcher.Apply(current.Content, it.Patch)
	if err != nil || !allApplied(hunks) {
		reason := "one or more hunks failed to apply"
		if err != nil {
			reason = err.Error()
		}
		s.log.Debug("patch rejected",
			slog.String("note_id", current.ID),
			slog.Int("version", current.Version),
			slog.String("reason", reason),
		)
		return ItemResult{
			LocalID:  it.LocalID,
			ServerID: current.ID,
			Status:   StatusPatchFailed,
			Version:  current.Version,
			Hunks:    hunks,
			Reason:   reason,
		}, nil
	}

	note, err := s.repo.SetContent(ctx, p.GroupID, current.ID, content)
	if err != nil {
		return ItemResult{}, fmt.Errorf("save patched note: %w", err)
	}
	if err := s.emit(ctx, p, note.ID, EventPatch); err != nil {
		return ItemResult{}, err
	}

	return ItemResult{
		LocalID:   it.LocalID,
		ServerID:  note.ID,
		Status:    StatusPatched,
		Version:   note.Version,
		UpdatedAt: note.UpdatedAt,
		Hunks:     hunks,
	}, nil
}

func (s *Service) emit(ctx context.Context, p identity.Principal, noteID string, typ EventType) error {
	if err := s.repo.AppendEvent(ctx, &Event{
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

func notFound(it PushItem) ItemResult {
	return ItemResult{LocalID: it.LocalID, ServerID: it.ServerID, Status: StatusNotFound}
}

func mutated(results []ItemResult) bool {
	for _, r := range results {
		switch r.Status {
		case StatusCreated, StatusUpdated, StatusPatched:
			return true
		}
	}
	return false
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
