/*
Package config resolves runtime configuration.

PURPOSE:
  Builds the server configuration from environment variables with
  command-line flag overrides. Env parsing uses caarlos0/env struct
  tags; flags take precedence because they are parsed last with env
  values as defaults.

KEYS:
  RUN_ADDRESS        -a   Listen address            (default :8080)
  DATABASE_PATH      -d   SQLite database path      (default office.db)
  SECRET_KEY         -k   JWT signing secret
  LOG_LEVEL          -l   slog level                (default info)
  REMINDER_INTERVAL  -i   Invite sweep interval     (default 1h)
  REMINDER_AGE       -g   Stale invite age          (default 72h)

USAGE:
  cfg := config.NewBuilder(log).FromEnv().FromFlags().GetConfig()

SEE ALSO:
  - cmd/server/main.go: The only consumer
*/
package config

import (
	"flag"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config is the resolved server configuration.
type Config struct {
	RunAddr          string        `env:"RUN_ADDRESS"       envDefault:":8080"`
	DatabasePath     string        `env:"DATABASE_PATH"     envDefault:"office.db"`
	SecretKey        string        `env:"SECRET_KEY"        envDefault:""`
	LogLevel         string        `env:"LOG_LEVEL"         envDefault:"info"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"1h"`
	ReminderAge      time.Duration `env:"REMINDER_AGE"      envDefault:"72h"`
}

// Builder layers configuration sources in call order.
type Builder struct {
	cfg *Config
	log *slog.Logger
}

// NewBuilder creates an empty builder.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{cfg: &Config{}, log: log}
}

// FromEnv fills the config from environment variables.
func (b *Builder) FromEnv() *Builder {
	if err := env.Parse(b.cfg); err != nil {
		b.log.Error("failed to parse config from environment",
			slog.String("error", err.Error()))
	}
	return b
}

// FromFlags overrides the config from command-line flags.
func (b *Builder) FromFlags() *Builder {
	flag.StringVar(&b.cfg.RunAddr, "a", b.cfg.RunAddr, "listen address")
	flag.StringVar(&b.cfg.DatabasePath, "d", b.cfg.DatabasePath, "SQLite database path (\":memory:\" for in-memory)")
	flag.StringVar(&b.cfg.SecretKey, "k", b.cfg.SecretKey, "JWT signing secret")
	flag.StringVar(&b.cfg.LogLevel, "l", b.cfg.LogLevel, "log level (debug|info|warn|error)")
	flag.DurationVar(&b.cfg.ReminderInterval, "i", b.cfg.ReminderInterval, "invite reminder sweep interval")
	flag.DurationVar(&b.cfg.ReminderAge, "g", b.cfg.ReminderAge, "stale invite age before a reminder")

	flag.Parse()
	return b
}

// GetConfig returns the built configuration.
func (b *Builder) GetConfig() *Config {
	return b.cfg
}

// SlogLevel maps the configured level string onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
