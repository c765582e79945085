package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eaglebank/personnel-service/shared/models"
	sharedredis "github.com/eaglebank/personnel-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	employeeKeyPrefix = "personnel:employee:"
	fillTimeout       = 5 * time.Second
)

// CachedEmployeeStore puts a Redis read-through cache in front of another
// EmployeeStore. Only single-record lookups are served from the cache.
// Updates and deletes invalidate the entry; a miss only fills it when no
// invalidation happened while the record was being loaded.
type CachedEmployeeStore struct {
	next  EmployeeStore
	cache *sharedredis.ViewCache[models.EmployeeRecord]
	group singleflight.Group
}

func NewCachedEmployeeStore(next EmployeeStore, client *goredis.Client, ttl time.Duration, logger *zap.Logger) *CachedEmployeeStore {
	return &CachedEmployeeStore{
		next:  next,
		cache: sharedredis.NewViewCache[models.EmployeeRecord](client, ttl, logger),
	}
}

func (s *CachedEmployeeStore) FindAll(ctx context.Context) ([]models.EmployeeRecord, error) {
	return s.next.FindAll(ctx)
}

// FindByID returns the cached record, falling back to the wrapped store.
// Concurrent misses for the same id share one backend lookup, which is not
// tied to the cancellation of whichever caller started it.
func (s *CachedEmployeeStore) FindByID(ctx context.Context, id string) (*models.EmployeeRecord, error) {
	key := employeeKeyPrefix + id
	if record, ok := s.cache.Get(ctx, key); ok {
		return record, nil
	}

	ch := s.group.DoChan(id, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()

		version, ok := s.cache.Version(fillCtx, key)
		record, err := s.next.FindByID(fillCtx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			s.cache.SetIfVersion(fillCtx, key, version, record)
		}
		return record, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		record := *res.Val.(*models.EmployeeRecord)
		return &record, nil
	}
}

func (s *CachedEmployeeStore) Create(ctx context.Context, details models.PersonalDetails) (*models.EmployeeRecord, error) {
	record, err := s.next.Create(ctx, details)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, employeeKeyPrefix+record.ID, record)
	return record, nil
}

func (s *CachedEmployeeStore) UpdateByID(ctx context.Context, id string, changes models.EmployeeChanges) (*models.EmployeeRecord, error) {
	record, err := s.next.UpdateByID(ctx, id, changes)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return nil, err
	}
	s.invalidate(ctx, id)
	return record, err
}

func (s *CachedEmployeeStore) DeleteByID(ctx context.Context, id string) (*models.EmployeeRecord, error) {
	record, err := s.next.DeleteByID(ctx, id)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return nil, err
	}
	s.invalidate(ctx, id)
	return record, err
}

// invalidate drops the entry and detaches in-flight lookups of id, so later
// readers load the record again instead of joining a lookup that predates
// the write.
func (s *CachedEmployeeStore) invalidate(ctx context.Context, id string) {
	s.group.Forget(id)
	s.cache.Invalidate(context.WithoutCancel(ctx), employeeKeyPrefix+id)
}
