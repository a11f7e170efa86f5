package regdb

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.ntppool.org/common/database/pgdb"
	"go.ntppool.org/common/logger"
)

//go:embed schema.sql
var schema string

// Config selects the database. DSN wins over ConfigFile.
type Config struct {
	DSN        string `name:"dsn" env:"DIAMOND_DATABASE_URL" help:"PostgreSQL connection string"`
	ConfigFile string `name:"config" env:"DIAMOND_DATABASE_CONFIG" help:"database config file"`

	// ConnectTimeout bounds the startup retries; zero means one minute.
	ConnectTimeout time.Duration `name:"connect-timeout" default:"60s" help:"give up connecting after this long"`
}

func (c Config) Enabled() bool {
	return c.DSN != "" || c.ConfigFile != ""
}

// OpenDB opens a PostgreSQL connection pool and waits, with exponential
// backoff, until the database answers.
func OpenDB(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	log := logger.FromContext(ctx)

	if !cfg.Enabled() {
		return nil, errors.New("regdb: no database configured")
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	expback := backoff.NewExponentialBackOff()
	expback.InitialInterval = 500 * time.Millisecond
	expback.MaxInterval = 10 * time.Second

	return backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		pool, err := open(ctx, cfg)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	},
		backoff.WithBackOff(expback),
		backoff.WithMaxElapsedTime(timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WarnContext(ctx, "database not ready", "err", err, "retry_in", next)
		}),
	)
}

func open(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN != "" {
		pcfg, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("regdb: parse dsn: %w", err)
		}
		return pgxpool.NewWithConfig(ctx, pcfg)
	}
	return pgdb.OpenPoolWithConfigFile(ctx, cfg.ConfigFile)
}

// Migrate creates the registry tables when they don't exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("regdb: migrate: %w", err)
	}
	return nil
}
