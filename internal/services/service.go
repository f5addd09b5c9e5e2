// Package services implements the write operations and read queries. Every
// operation passes the validation gate first; every compound write runs as
// one unit of work through repositories.Store.
package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"querystack/internal/apperror"
	"querystack/internal/cache"
	"querystack/internal/events"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     repositories.Store
	Gate      *validation.Gate
	Cache     cache.Cache
	Publisher events.Publisher
	Logger    *zap.Logger
	CacheTTL  time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 30 * time.Second
	}
	return d
}

// Page is one page of a paginated read.
type Page[T any] struct {
	Items  []T   `json:"items"`
	IsNext bool  `json:"isNext"`
	Total  int64 `json:"total"`
}

func newPage[T any](p validation.Pagination, items []T, total int64) *Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return &Page[T]{Items: items, IsNext: p.IsNext(total, len(items)), Total: total}
}

func toPage(p validation.Pagination) repositories.Page {
	return repositories.Page{Page: p.Page, PageSize: p.PageSize}
}

// committed runs after a unit of work commits: it drops stale cache entries
// and publishes the event. Neither failure affects the committed write.
func (d Deps) committed(ctx context.Context, e events.Event) {
	if keys := events.CacheKeys(e.Type); len(keys) > 0 {
		if err := d.Cache.Delete(ctx, keys...); err != nil {
			d.Logger.Warn("cache invalidation failed", zap.String("event", e.Type), zap.Error(err))
		}
	}
	if err := d.Publisher.Publish(ctx, e); err != nil {
		d.Logger.Warn("event publish failed", zap.String("event", e.Type), zap.Error(err))
	}
}

// aborted logs a rolled-back unit of work. Caller-side failures are logged
// below error level.
func (d Deps) aborted(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrUnauthorized),
		errors.Is(err, apperror.ErrForbidden), errors.Is(err, apperror.ErrNotFound):
		d.Logger.Info("operation rejected", fields...)
	case errors.Is(err, apperror.ErrConflict):
		d.Logger.Warn("operation aborted by concurrent write", fields...)
	default:
		d.Logger.Error("operation failed", fields...)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
