package di

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/internal/config"
	"github.com/goliatone/go-user-cache/local"
	"github.com/goliatone/go-user-cache/presentation/navigation"
	"github.com/goliatone/go-user-cache/presentation/viewmodel"
	"github.com/goliatone/go-user-cache/presentation/web"
	"github.com/goliatone/go-user-cache/remote"
	"github.com/goliatone/go-user-cache/repository"
	"github.com/goliatone/go-user-cache/repositorycache"
	"github.com/goliatone/go-user-cache/usecase"
)

// Container holds the application object graph. It is built once at startup;
// every component receives its dependencies explicitly.
type Container struct {
	config config.Config
	logger *logrus.Logger

	store      *local.Store
	remote     *remote.Client
	repository repository.Repository
	cached     *repositorycache.CachedRepository

	getUser     *usecase.GetUser
	refreshUser *usecase.RefreshUser

	router    *navigation.Router
	viewModel *viewmodel.UserViewModel
}

// NewContainer opens the local store, applies migrations and wires the rest
// of the graph on top of it: remote fetcher, repository, optional memory
// tier, use cases and view-model.
func NewContainer(cfg config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	store, err := local.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyMigrations(); err != nil {
		_ = store.Close()
		return nil, err
	}

	c := &Container{
		config: cfg,
		logger: logger,
		store:  store,
		remote: newRemoteClient(cfg),
	}

	base := repository.New(store, c.remote,
		repository.WithLogger(logger.WithField("component", "repository")))
	c.repository = base

	if cfg.Cache.Enabled {
		svc, err := cache.NewCacheService(cfg.CacheConfig())
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, "memory cache")
		}
		c.cached = repositorycache.New(base, svc, cache.NewNamespacedKeySerializer("user"),
			repositorycache.WithLogger(logger.WithField("component", "repositorycache")))
		c.repository = c.cached
	}

	c.getUser = usecase.NewGetUser(c.repository)
	c.refreshUser = usecase.NewRefreshUser(c.repository)
	c.router = navigation.NewRouter(navigation.AuthGraph)
	c.viewModel = viewmodel.New(c.getUser,
		viewmodel.WithLogger(logger.WithField("component", "viewmodel")))

	return c, nil
}

func newRemoteClient(cfg config.Config) *remote.Client {
	burst := int(cfg.Remote.RateLimit)
	if burst < 1 {
		burst = 1
	}
	return remote.NewClient(cfg.Remote.BaseURL,
		remote.WithHTTPClient(&http.Client{Timeout: cfg.Remote.Timeout}),
		remote.WithRateLimit(cfg.Remote.RateLimit, burst),
	)
}

func (c *Container) Config() config.Config {
	return c.config
}

func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

func (c *Container) Store() *local.Store {
	return c.store
}

func (c *Container) GetUser() *usecase.GetUser {
	return c.getUser
}

func (c *Container) RefreshUser() *usecase.RefreshUser {
	return c.refreshUser
}

func (c *Container) Router() *navigation.Router {
	return c.router
}

func (c *Container) ViewModel() *viewmodel.UserViewModel {
	return c.viewModel
}

// MemoryTier returns the in-memory cache layer, or nil when it is disabled.
func (c *Container) MemoryTier() *repositorycache.CachedRepository {
	return c.cached
}

// Engine builds the HTTP engine. Loads started from the screens are bound to
// screens, which should live as long as the server.
func (c *Container) Engine(screens context.Context) *gin.Engine {
	h := web.NewHandler(screens, c.viewModel, c.router, c.getUser, c.store, c.logger)
	return web.NewEngine(h, c.logger)
}

// Close waits for pending view-model loads and closes the database.
func (c *Container) Close() error {
	c.viewModel.Wait()
	return c.store.Close()
}
