package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotConfigured = errors.New("blob storage is not configured")

// Store непрозрачное хранилище объектов: положить, удалить, подписать ссылку
type Store interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, path string) error
	// SignGet возвращает временную ссылку на чтение
	SignGet(ctx context.Context, path string, ttl time.Duration) (string, error)
	// SignPut возвращает временную ссылку для прямой загрузки клиентом
	SignPut(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// Disabled используется, когда хранилище не настроено. Все операции возвращают ErrNotConfigured.
type Disabled struct{}

func (Disabled) Put(context.Context, string, io.Reader, int64, string) error {
	return ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error {
	return ErrNotConfigured
}

func (Disabled) SignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) SignPut(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}
