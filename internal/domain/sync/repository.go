package sync

import (
	"context"
	"time"
)

// Repository всегда фильтрует по groupID
type Repository interface {
	// CreateNote заполняет ID, Version и временные метки
	CreateNote(ctx context.Context, note *Note) error
	// UpdateNote возвращает apperr.ErrNotFound, если заметки нет в группе
	UpdateNote(ctx context.Context, groupID string, upd NoteUpdate) (*Note, error)
	// LockNote читает заметку с SELECT ... FOR UPDATE
	LockNote(ctx context.Context, groupID, noteID string) (*Note, error)
	SetContent(ctx context.Context, groupID, noteID, content string) (*Note, error)
	// BumpImages увеличивает версию и выставляет has_images
	BumpImages(ctx context.Context, groupID, noteID string, hasImages bool) (*Note, error)
	// AppendEvent сериализует запись событий группы до конца транзакции
	AppendEvent(ctx context.Context, event *Event) error
	// Cursor момент чтения; событие, не видимое после Cursor, получит время позже него.
	// Вызывается внутри транзакции.
	Cursor(ctx context.Context, groupID string) (time.Time, error)
	ListNotes(ctx context.Context, groupID string) ([]Note, error)
	ListChanges(ctx context.Context, q ChangeQuery) ([]Change, error)
}

// ChangeNotifier получает сигнал после фиксации изменений группы
type ChangeNotifier interface {
	NotifyGroup(groupID, authorDeviceID string)
}
