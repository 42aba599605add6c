package storage

import "context"

// Transactor выполняет fn в одной транзакции хранилища.
// Репозитории, вызванные с ctx внутри fn, работают в этой транзакции.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
