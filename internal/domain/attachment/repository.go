package attachment

import "context"

type Repository interface {
	// Create заполняет ID и временные метки
	Create(ctx context.Context, img *Image) error
	// LockActive читает неудаленное изображение группы с блокировкой строки
	LockActive(ctx context.Context, groupID, imageID string) (*Image, error)
	ListByNote(ctx context.Context, groupID, noteID string) ([]Image, error)
	SoftDelete(ctx context.Context, groupID, imageID string) error
	CountActive(ctx context.Context, groupID, noteID string) (int, error)
}

// Remover асинхронно удаляет объекты из хранилища после фиксации
type Remover interface {
	Enqueue(path string) bool
}
