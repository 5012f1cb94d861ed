package repositories

import (
	"context"
	"github.com/maxaizer/apply-archive/internal/entities"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

type applicationRepository interface {
	GetAll(ctx context.Context) ([]entities.JobRecord, error)
	GetByID(ctx context.Context, id string) (*entities.JobRecord, error)
	Add(ctx context.Context, record entities.JobRecord) error
	Update(ctx context.Context, record entities.JobRecord) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	ReferencedFiles(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// CachedApplications caches single-record reads and drops the entry on every write to it.
// The entry is dropped again once the write returns, so a read racing the write cannot
// leave the old version cached.
type CachedApplications struct {
	repo  applicationRepository
	cache *gocache.Cache
}

func NewCachedApplications(repo applicationRepository, ttl time.Duration) *CachedApplications {
	return &CachedApplications{repo: repo, cache: gocache.New(ttl, 2*ttl)}
}

func (c CachedApplications) GetAll(ctx context.Context) ([]entities.JobRecord, error) {
	return c.repo.GetAll(ctx)
}

func (c CachedApplications) GetByID(ctx context.Context, id string) (*entities.JobRecord, error) {
	if value, found := c.cache.Get(id); found {
		record := value.(entities.JobRecord)
		return &record, nil
	}

	record, err := c.repo.GetByID(ctx, id)
	if record != nil {
		c.cache.SetDefault(id, *record)
	}
	return record, err
}

func (c CachedApplications) Add(ctx context.Context, record entities.JobRecord) error {
	return c.repo.Add(ctx, record)
}

func (c CachedApplications) Update(ctx context.Context, record entities.JobRecord) (bool, error) {
	c.cache.Delete(record.ID)
	defer c.cache.Delete(record.ID)
	return c.repo.Update(ctx, record)
}

func (c CachedApplications) Remove(ctx context.Context, id string) (bool, error) {
	c.cache.Delete(id)
	defer c.cache.Delete(id)
	return c.repo.Remove(ctx, id)
}

func (c CachedApplications) ReferencedFiles(ctx context.Context) ([]string, error) {
	return c.repo.ReferencedFiles(ctx)
}

func (c CachedApplications) Ping(ctx context.Context) error {
	return c.repo.Ping(ctx)
}
