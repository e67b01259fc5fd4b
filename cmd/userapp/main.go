package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/goliatone/go-user-cache/internal/config"
	"github.com/goliatone/go-user-cache/internal/logging"
	"github.com/goliatone/go-user-cache/local"
	"github.com/goliatone/go-user-cache/mapper"
	"github.com/goliatone/go-user-cache/pkg/di"
	"github.com/goliatone/go-user-cache/user"
)

// cli holds the kingpin application and where command output goes.
type cli struct {
	app        *kingpin.Application
	configPath *string
	out        io.Writer
}

func newCLI(out io.Writer) *cli {
	c := &cli{
		app: kingpin.New("userapp", "Fetch users by id, cache them locally and display them."),
		out: out,
	}
	c.configPath = c.app.Flag("config", "path to a config file").Short('c').String()

	c.setupServeCommand()
	c.setupGetCommand()
	c.setupRefreshCommand()
	c.setupMigrateCommand()
	c.setupStatsCommand()
	return c
}

func main() {
	kingpin.MustParse(newCLI(os.Stdout).app.Parse(os.Args[1:]))
}

func (c *cli) bootstrap() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func (c *cli) newContainer() (*di.Container, error) {
	cfg, logger, err := c.bootstrap()
	if err != nil {
		return nil, err
	}
	return di.NewContainer(cfg, logger)
}

// newServer builds the HTTP server for serve. Gin runs in release mode.
func newServer(ctx context.Context, container *di.Container) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	return &http.Server{
		Addr:    container.Config().Server.Addr,
		Handler: container.Engine(ctx),
	}
}

func (c *cli) setupServeCommand() {
	cmd := c.app.Command("serve", "run the web screens and JSON API")
	cmd.Action(func(*kingpin.ParseContext) error {
		container, err := c.newContainer()
		if err != nil {
			return err
		}
		logger := container.Logger()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := newServer(ctx, container)

		serveErr := make(chan error, 1)
		go func() {
			logger.Infof("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				stop()
				_ = container.Close()
				return errors.Wrap(err, "http server")
			}
		}
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
		if err := container.Close(); err != nil {
			logger.Warnf("close: %v", err)
		}

		logger.Info("bye")
		return nil
	})
}

func (c *cli) setupGetCommand() {
	cmd := c.app.Command("get", "print a user, fetching and caching it on a miss")
	id := cmd.Arg("id", "user id").Required().String()
	cmd.Action(func(*kingpin.ParseContext) error {
		return c.runUserCommand(*id, func(ctx context.Context, container *di.Container, id string) (user.User, error) {
			return container.GetUser().Execute(ctx, id)
		})
	})
}

func (c *cli) setupRefreshCommand() {
	cmd := c.app.Command("refresh", "re-fetch a user from the remote endpoint and overwrite the cached copy")
	id := cmd.Arg("id", "user id").Required().String()
	cmd.Action(func(*kingpin.ParseContext) error {
		return c.runUserCommand(*id, func(ctx context.Context, container *di.Container, id string) (user.User, error) {
			return container.RefreshUser().Execute(ctx, id)
		})
	})
}

func (c *cli) runUserCommand(id string, run func(context.Context, *di.Container, string) (user.User, error)) error {
	container, err := c.newContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	u, err := run(ctx, container, id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(mapper.ToDTO(u))
}

func (c *cli) setupMigrateCommand() {
	cmd := c.app.Command("migrate", "create or upgrade the local cache schema")
	cmd.Action(func(*kingpin.ParseContext) error {
		cfg, logger, err := c.bootstrap()
		if err != nil {
			return err
		}

		store, err := local.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ApplyMigrations(); err != nil {
			return err
		}
		version, _, err := store.Version()
		if err != nil {
			return err
		}
		logger.WithField("version", version).Info("schema up to date")
		return nil
	})
}

func (c *cli) setupStatsCommand() {
	cmd := c.app.Command("stats", "print local cache statistics")
	cmd.Action(func(*kingpin.ParseContext) error {
		cfg, _, err := c.bootstrap()
		if err != nil {
			return err
		}

		store, err := local.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		version, dirty, err := store.Version()
		if err != nil {
			return err
		}
		count, err := store.Count(context.Background())
		if err != nil {
			return err
		}

		fmt.Fprintf(c.out, "database:       %s\n", cfg.Database.Path)
		fmt.Fprintf(c.out, "schema version: %d (dirty: %v)\n", version, dirty)
		fmt.Fprintf(c.out, "cached users:   %d\n", count)
		return nil
	})
}
