package repositorycache

import (
	"context"
	"io"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/repository"
	"github.com/goliatone/go-user-cache/user"
)

// Interface assertion to ensure CachedRepository implements repository.Repository
var _ repository.Repository = (*CachedRepository)(nil)

const getUserMethod = "GetUser"

// CachedRepository decorates a user repository with an in-memory tier.
type CachedRepository struct {
	base          repository.Repository
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	keyRegistry   *xsync.MapOf[string, struct{}]
	logger        logrus.FieldLogger
}

// Option configures a CachedRepository.
type Option func(*CachedRepository)

// WithLogger sets the logger used to report invalidation failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *CachedRepository) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a CachedRepository that wraps base with caching.
func New(base repository.Repository, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedRepository {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &CachedRepository{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		keyRegistry:   xsync.NewMapOf[string, struct{}](),
		logger:        discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUser serves id from memory, falling back to the wrapped repository.
// Invalid ids are rejected before a key is built or tracked.
func (c *CachedRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	if err := user.ValidateID(id); err != nil {
		return user.User{}, err
	}

	key := c.keySerializer.SerializeKey(getUserMethod, id)
	u, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (user.User, error) {
		return c.base.GetUser(ctx, id)
	})
	if err != nil {
		return user.User{}, err
	}
	c.trackKey(key)
	return u, nil
}

// Refresh delegates to the wrapped repository and drops the in-memory copy on success.
func (c *CachedRepository) Refresh(ctx context.Context, id string) (user.User, error) {
	result, err := c.base.Refresh(ctx, id)
	if err == nil {
		c.Invalidate(ctx, id)
	}
	return result, err
}

// Invalidate drops every tracked entry for id.
func (c *CachedRepository) Invalidate(ctx context.Context, id string) {
	key := c.keySerializer.SerializeKey(getUserMethod, id)
	c.invalidateKey(ctx, key)
	c.invalidateByPrefix(ctx, key+cache.KeySeparator)
}

// TrackedKeys reports how many keys the registry currently holds.
func (c *CachedRepository) TrackedKeys() int {
	return c.keyRegistry.Size()
}

// trackKey registers a key once its value is cached.
func (c *CachedRepository) trackKey(key string) {
	c.keyRegistry.Store(key, struct{}{})
}

func (c *CachedRepository) invalidateKey(ctx context.Context, key string) {
	c.keyRegistry.Delete(key)
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache delete failed")
	}
}

// invalidateByPrefix removes all tracked keys that start with prefix.
func (c *CachedRepository) invalidateByPrefix(ctx context.Context, prefix string) {
	var keys []string
	c.keyRegistry.Range(func(key string, _ struct{}) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})

	for _, key := range keys {
		c.invalidateKey(ctx, key)
	}
}
