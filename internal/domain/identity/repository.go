package identity

import "context"

type Repository interface {
	// FindByFingerprintDevice возвращает apperr.ErrNotFound, если записи нет
	FindByFingerprintDevice(ctx context.Context, fingerprint, deviceID string) (*Identity, error)
	FindByUserDevice(ctx context.Context, userID, deviceID string) (*Identity, error)
	ListByUser(ctx context.Context, userID string) ([]Identity, error)
	// Create заполняет ID и временные метки
	Create(ctx context.Context, identity *Identity) error
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	BindUser(ctx context.Context, id, userID string) error
	Touch(ctx context.Context, id string) error
	CreateGroup(ctx context.Context, name string) (string, error)
}
