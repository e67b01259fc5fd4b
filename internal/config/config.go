// Package config loads application settings from defaults, an optional
// config file, a .env file and USERAPP_* environment variables.
package config

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/goliatone/go-user-cache/cache"
)

const EnvPrefix = "USERAPP"

// Config holds application level configuration.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Remote struct {
		BaseURL   string        `mapstructure:"base_url"`
		Timeout   time.Duration `mapstructure:"timeout"`
		RateLimit float64       `mapstructure:"rate_limit"`
	}
	Cache struct {
		Enabled            bool
		Capacity           int
		NumShards          int           `mapstructure:"num_shards"`
		TTL                time.Duration `mapstructure:"ttl"`
		EvictionPercentage int           `mapstructure:"eviction_percentage"`
		EvictionInterval   time.Duration `mapstructure:"eviction_interval"`
		EarlyRefresh       struct {
			Enabled        bool
			MinAsync       time.Duration `mapstructure:"min_async"`
			MaxAsync       time.Duration `mapstructure:"max_async"`
			Sync           time.Duration `mapstructure:"sync"`
			RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
		} `mapstructure:"early_refresh"`
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration. path names an explicit config file; when empty a
// file called config.* in the working directory is used if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("database.path", "data/users.db")
	v.SetDefault("remote.base_url", "http://localhost:9000")
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("remote.rate_limit", 0)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("cache.num_shards", 64)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.eviction_percentage", 10)
	v.SetDefault("cache.eviction_interval", time.Duration(0))
	v.SetDefault("cache.early_refresh.enabled", false)
	v.SetDefault("cache.early_refresh.min_async", time.Minute)
	v.SetDefault("cache.early_refresh.max_async", 2*time.Minute)
	v.SetDefault("cache.early_refresh.sync", 4*time.Minute)
	v.SetDefault("cache.early_refresh.retry_base_delay", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
	); err != nil {
		return errors.Wrap(err, "server")
	}
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Path, validation.Required),
	); err != nil {
		return errors.Wrap(err, "database")
	}
	if err := validation.ValidateStruct(&c.Remote,
		validation.Field(&c.Remote.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Remote.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Remote.RateLimit, validation.Min(0.0)),
	); err != nil {
		return errors.Wrap(err, "remote")
	}
	if err := c.CacheConfig().Validate(); err != nil {
		return errors.Wrap(err, "cache")
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.Required, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")),
		validation.Field(&c.Log.Format, validation.Required, validation.In("text", "json")),
	); err != nil {
		return errors.Wrap(err, "log")
	}
	return nil
}

// CacheConfig maps the cache section onto the memory tier configuration.
// Early refresh is only set when enabled.
func (c Config) CacheConfig() cache.Config {
	cfg := cache.Config{
		Capacity:           c.Cache.Capacity,
		NumShards:          c.Cache.NumShards,
		TTL:                c.Cache.TTL,
		EvictionPercentage: c.Cache.EvictionPercentage,
		EvictionInterval:   c.Cache.EvictionInterval,
	}
	if r := c.Cache.EarlyRefresh; r.Enabled {
		cfg.EarlyRefresh = &cache.EarlyRefreshConfig{
			MinAsyncRefreshTime: r.MinAsync,
			MaxAsyncRefreshTime: r.MaxAsync,
			SyncRefreshTime:     r.Sync,
			RetryBaseDelay:      r.RetryBaseDelay,
		}
	}
	return cfg
}
