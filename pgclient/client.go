// Package pgclient is the convenience layer over PostgreSQL: it owns the
// connection pool and translates frames to and from SQL tables.
//
// It handles:
//   - building a pgx pool from config, with zerolog-backed SQL tracing
//   - reading tables into frames and writing frames as tables
//   - bulk insertion through the driver's copy protocol
//   - schema introspection and key management
//   - an optional disk cache of read results
package pgclient

import (
	"context"
	"fmt"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/dataplumb/pgframe/cache"
	"github.com/dataplumb/pgframe/config"
	"github.com/dataplumb/pgframe/internal/logging"
	"github.com/dataplumb/pgframe/sqlerr"
)

// pingTimeout bounds the connection probe at startup.
const pingTimeout = 10 * time.Second

// Client wraps the pgx connection pool together with the logger, the
// verbosity level, and the optional result cache.
//
// A Client is intended for a single synchronous caller; the pool underneath
// provides whatever connection concurrency exists.
type Client struct {
	pool      *pgxpool.Pool
	log       zerolog.Logger
	logSet    bool
	cache     *cache.Cache
	verbosity int
	username  string
}

// Option customizes a Client at connect time.
type Option func(*Client)

// WithVerbosity sets the logging level:
//
//	0 - warnings only
//	1 - operation metadata (timings, row counts)
//	2 - full SQL echo
func WithVerbosity(v int) Option {
	return func(c *Client) { c.verbosity = v }
}

// WithLogger replaces the default console logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
		c.logSet = true
	}
}

// WithCache attaches a result cache used by reads that opt in.
func WithCache(ca *cache.Cache) Option {
	return func(c *Client) { c.cache = ca }
}

// Connect builds the pool, pings it, and returns a ready Client.
//
// At verbosity 2 every statement is echoed through the pgx tracelog with a
// zerolog backend.
func Connect(ctx context.Context, cfg config.ConnConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{verbosity: 1, username: cfg.User}
	for _, opt := range opts {
		opt(c)
	}
	if !c.logSet {
		c.log = logging.New(c.verbosity)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetime) * time.Second
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleTime) * time.Second
	}

	if c.verbosity >= 2 {
		level := logging.Level(c.verbosity)
		pgxLogger := logging.NewPgxLogger(level)
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: logging.PgxTraceLogLevel(level),
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	c.pool = pool
	c.log.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("connected")
	return c, nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	c.log.Info().Msg("closing connection pool")
	c.pool.Close()
}

// Username reports the connected role name.
func (c *Client) Username() string { return c.username }

// Execute runs an arbitrary statement, for the queries the helpers do not
// cover.
func (c *Client) Execute(ctx context.Context, sql string, args ...any) error {
	return c.exec(ctx, sql, args...)
}

// exec runs a statement and normalizes driver errors.
func (c *Client) exec(ctx context.Context, sql string, args ...any) error {
	if _, err := c.pool.Exec(ctx, sql, args...); err != nil {
		return sqlerr.Normalize(err)
	}
	return nil
}

// query runs a query and normalizes driver errors.
func (c *Client) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, sqlerr.Normalize(err)
	}
	return rows, nil
}

// timed logs the duration of an operation at verbosity >= 1.
//
//	defer c.timed("read_table", table)()
func (c *Client) timed(op, table string) func() {
	if c.verbosity < 1 {
		return func() {}
	}
	start := time.Now()
	return func() {
		c.log.Info().
			Str("op", op).
			Str("table", table).
			Dur("elapsed", time.Since(start)).
			Msg("done")
	}
}
