// Package config manages stored connection credentials.
//
// Named connections live in a YAML file (default ~/.pgframe/connections.yaml),
// one entry per connection name. Individual fields can be overridden through
// environment variables with the PGFRAME_ prefix, so credentials never have
// to be written to disk in CI environments.
//
// Responsibilities:
//   - Load the connections file (koanf file provider + yaml parser).
//   - Overlay PGFRAME_* environment variables onto the selected connection.
//   - Validate required fields so callers fail fast on bad config.
//   - Build a DSN safe against special characters in passwords.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variable names before they are
// merged into the selected connection (PGFRAME_HOST -> host).
const envPrefix = "PGFRAME_"

// ConnConfig holds the parameters for one named connection, plus pool
// tuning. Password is optional: peer/trust setups and .pgpass don't need it.
type ConnConfig struct {
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"required"`
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname" validate:"required"`
	SSLMode  string `koanf:"sslmode"`

	MaxConns        int32 `koanf:"max_conns"`
	ConnMaxLifetime int   `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int   `koanf:"conn_max_idle_time"`
}

// DSN builds the postgres:// connection string.
//
// The password is URL-escaped (a password like "pa:ss@word" would otherwise
// destroy the URL structure) and host/port are joined with net.JoinHostPort
// so IPv6 literals come out bracketed.
func (c ConnConfig) DSN() string {
	hostPort := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.User, url.QueryEscape(c.Password), hostPort, c.DBName, sslMode)
}

// Validate checks required fields.
func (c ConnConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid connection config: %w", err)
	}
	return nil
}

// DefaultPath reports the default connections file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "connections.yaml"
	}
	return filepath.Join(home, ".pgframe", "connections.yaml")
}

// LoadConnections reads every named connection from the file at path.
// Environment overrides are not applied here; use Named for that.
func LoadConnections(path string) (map[string]ConnConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading connections file %s: %w", path, err)
	}
	out := make(map[string]ConnConfig)
	for _, name := range k.MapKeys("") {
		var cfg ConnConfig
		if err := k.Unmarshal(name, &cfg); err != nil {
			return nil, fmt.Errorf("connection %q: %w", name, err)
		}
		out[name] = cfg
	}
	return out, nil
}

// Named loads one connection from the file at path, overlays PGFRAME_*
// environment variables, and validates the result.
//
// An empty path means DefaultPath. An empty name with a readable
// environment (PGFRAME_HOST etc.) skips the file entirely.
func Named(path, name string) (ConnConfig, error) {
	if path == "" {
		path = DefaultPath()
	}

	k := koanf.New(".")
	if name != "" {
		root := koanf.New(".")
		if err := root.Load(file.Provider(path), yaml.Parser()); err != nil {
			return ConnConfig{}, fmt.Errorf("loading connections file %s: %w", path, err)
		}
		if !root.Exists(name) {
			return ConnConfig{}, fmt.Errorf("no connection %q in %s", name, path)
		}
		k = root.Cut(name)
	}

	// Environment wins over the file. PGFRAME_HOST -> host, etc.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return ConnConfig{}, fmt.Errorf("loading environment overrides: %w", err)
	}

	cfg := ConnConfig{Port: 5432}
	if err := k.Unmarshal("", &cfg); err != nil {
		return ConnConfig{}, fmt.Errorf("unmarshaling connection config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ConnConfig{}, err
	}
	return cfg, nil
}
