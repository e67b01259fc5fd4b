package repository

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-user-cache/mapper"
	"github.com/goliatone/go-user-cache/user"
)

// Interface assertion to ensure UserRepository implements Repository
var _ Repository = (*UserRepository)(nil)

// Repository is the contract the use cases depend on.
type Repository interface {
	GetUser(ctx context.Context, id string) (user.User, error)
	Refresh(ctx context.Context, id string) (user.User, error)
}

// LocalStore is the local cache accessor.
type LocalStore interface {
	Lookup(ctx context.Context, id string) (*user.Entity, error)
	Insert(ctx context.Context, entity user.Entity) error
	Upsert(ctx context.Context, entity user.Entity) error
}

// RemoteFetcher retrieves the wire representation of a user.
type RemoteFetcher interface {
	Fetch(ctx context.Context, id string) (user.DTO, error)
}

// UserRepository reads users through the local cache, falling back to the
// remote fetcher on a miss and writing the result back.
type UserRepository struct {
	local  LocalStore
	remote RemoteFetcher
	logger logrus.FieldLogger
}

// Option configures a UserRepository.
type Option func(*UserRepository)

// WithLogger sets the logger used for hit/miss tracing.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *UserRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a read-through repository over the given local store and remote fetcher.
func New(local LocalStore, remote RemoteFetcher, opts ...Option) *UserRepository {
	r := &UserRepository{
		local:  local,
		remote: remote,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetUser returns the cached user for id. On a miss the user is fetched
// remotely, written to the local cache and returned. A cached record is never
// refreshed by this path; errors from either store are returned unchanged and
// a failed remote fetch leaves the cache untouched.
func (r *UserRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	if err := user.ValidateID(id); err != nil {
		return user.User{}, err
	}

	log := r.logger.WithField("user_id", id)

	cached, err := r.local.Lookup(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if cached != nil {
		log.Debug("local cache hit")
		return mapper.FromEntity(*cached), nil
	}

	log.Debug("local cache miss, fetching remote")

	dto, err := r.remote.Fetch(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	u := mapper.ToDomain(dto)
	if err := r.local.Insert(ctx, mapper.ToEntity(u)); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// Refresh fetches id from the remote unconditionally and overwrites the cached row.
func (r *UserRepository) Refresh(ctx context.Context, id string) (user.User, error) {
	if err := user.ValidateID(id); err != nil {
		return user.User{}, err
	}

	dto, err := r.remote.Fetch(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	u := mapper.ToDomain(dto)
	if err := r.local.Upsert(ctx, mapper.ToEntity(u)); err != nil {
		return user.User{}, err
	}

	r.logger.WithField("user_id", id).Debug("local cache refreshed")
	return u, nil
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
