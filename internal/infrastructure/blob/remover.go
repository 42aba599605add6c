package blob

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

const (
	DefaultRemoverWorkers = 2
	DefaultRemoverQueue   = 256
	DefaultRemoveTimeout  = 30 * time.Second
)

// Remover удаляет объекты асинхронно. Ошибки логируются и не возвращаются.
type Remover struct {
	store   Store
	log     *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
}

func NewRemover(store Store, log *slog.Logger, workers, queue int, timeout time.Duration) *Remover {
	if workers <= 0 {
		workers = DefaultRemoverWorkers
	}
	if queue <= 0 {
		queue = DefaultRemoverQueue
	}
	if timeout <= 0 {
		timeout = DefaultRemoveTimeout
	}

	r := &Remover{
		store:   store,
		log:     log.With(slog.String("component", "blob_remover")),
		timeout: timeout,
		jobs:    make(chan string, queue),
	}

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// Enqueue не блокирует: при переполненной очереди или после Close путь отбрасывается
func (r *Remover) Enqueue(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.log.Warn("remover closed, dropping blob", slog.String("path", path))
		return false
	}

	select {
	case r.jobs <- path:
		return true
	default:
		r.log.Warn("remover queue full, dropping blob", slog.String("path", path))
		return false
	}
}

func (r *Remover) worker() {
	defer r.wg.Done()

	for path := range r.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.store.Delete(ctx, path); err != nil {
			r.log.Error("failed to delete blob", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			r.log.Debug("blob deleted", slog.String("path", path))
		}
		cancel()
	}
}

// Close перестает принимать задачи и ждет, пока очередь опустеет, или отмены ctx
func (r *Remover) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
