package pairing

import "context"

type Repository interface {
	HasPending(ctx context.Context, fromDevice, toUser string) (bool, error)
	// EdgeExists сообщает, связано ли устройство с каким-либо устройством пользователя
	EdgeExists(ctx context.Context, deviceID, userID string) (bool, error)
	// CreateRequest возвращает apperr.ErrConflict при уже существующем pending запросе
	CreateRequest(ctx context.Context, r *Request) error
	Incoming(ctx context.Context, userID string) ([]Incoming, error)
	// LockPending блокирует pending запрос, адресованный toUser
	LockPending(ctx context.Context, requestID, toUser string) (*Request, error)
	SetStatus(ctx context.Context, requestID string, status Status) error
	Paired(ctx context.Context, userID string) ([]PairedDevice, error)

	Merger
}

// Merger операции объединения групп при принятии запроса
type Merger interface {
	CreateGroup(ctx context.Context, id, name string) error
	DevicesOfUser(ctx context.Context, userID string) ([]string, error)
	// CreateEdge пропускает пару, уже связанную в любом направлении
	CreateEdge(ctx context.Context, device1, device2, groupID string) (bool, error)
	GroupsOfUsers(ctx context.Context, userIDs ...string) ([]string, error)
	// MoveDevices переносит все устройства из groups, включая чужие устройства этих групп
	MoveDevices(ctx context.Context, groups []string, to string) (int64, error)
	// Rehome переносит заметки, изображения и события; повторный вызов ничего не меняет
	Rehome(ctx context.Context, groups []string, to string) error
	// DeleteGroups удаляет опустевшие группы
	DeleteGroups(ctx context.Context, groups []string, keep string) error
}
