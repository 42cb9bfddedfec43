package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// RunLock serializes import execution per import type. Two concurrent
// runs of the same type would both pass the duplicate pre-check against
// the same hash snapshot, so only one may hold the lock at a time.
type RunLock struct {
	cache  *RedisCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewRunLock creates a run lock with the given lease duration. The TTL
// is a crash guard: a worker that dies mid-run releases the lock when
// the lease expires.
func NewRunLock(cache *RedisCache, ttl time.Duration, logger *slog.Logger) *RunLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunLock{cache: cache, ttl: ttl, logger: logger}
}

func lockKey(tipo domain.TipoImportacion) string {
	return fmt.Sprintf("import:lock:%s", tipo)
}

// Acquire takes the lock for an import type, storing the run owner for
// diagnostics. Returns ErrCodeRunLocked when another run holds it.
func (l *RunLock) Acquire(ctx context.Context, tipo domain.TipoImportacion, owner string) error {
	ok, err := l.cache.SetNX(ctx, lockKey(tipo), owner, l.ttl)
	if err != nil {
		return fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !ok {
		holder, _ := l.cache.Get(ctx, lockKey(tipo))
		l.logger.Warn("import lock already held",
			slog.String("tipo", string(tipo)),
			slog.String("holder", holder))
		return apperrors.RunLocked(string(tipo))
	}
	l.logger.Debug("import lock acquired",
		slog.String("tipo", string(tipo)),
		slog.String("owner", owner))
	return nil
}

// Release frees the lock. Releasing a lock that already expired is not
// an error.
func (l *RunLock) Release(ctx context.Context, tipo domain.TipoImportacion) error {
	if err := l.cache.Delete(ctx, lockKey(tipo)); err != nil {
		return fmt.Errorf("failed to release import lock: %w", err)
	}
	l.logger.Debug("import lock released", slog.String("tipo", string(tipo)))
	return nil
}
