package pgclient

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"

	"github.com/dataplumb/pgframe/internal/sqlbuild"
	"github.com/dataplumb/pgframe/sqlerr"
)

// The registry tracks who created which table and when, plus the privilege
// matrix, in its own pgframe schema. Its migrations are embedded so the
// binary does not depend on the filesystem at runtime.
//
//go:embed migrations/*.sql
var migrations embed.FS

// versionTable records the applied migration version.
const versionTable = "public.pgframe_schema_version"

// Bootstrap creates (or upgrades) the registry schema. It must run once per
// database before Describe and the privilege sync can work; WriteTable
// degrades gracefully without it.
func (c *Client) Bootstrap(ctx context.Context) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	m, err := tern.NewMigrator(ctx, conn.Conn(), versionTable)
	if err != nil {
		return fmt.Errorf("constructing migrator: %w", err)
	}
	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}
	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	to, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}
	if from == to {
		c.log.Info().Int32("version", to).Msg("registry already up to date")
	} else {
		c.log.Info().Int32("from", from).Int32("to", to).Msg("registry migrated")
	}
	return nil
}

// TableInfo is one registry row.
type TableInfo struct {
	Schema    string
	Name      string
	CreatedAt time.Time
	CreatedBy string
}

// Describe reports creation date and author of a table from the registry.
// ok is false when the table was never recorded.
func (c *Client) Describe(ctx context.Context, table string) (TableInfo, bool, error) {
	schema, name := sqlbuild.SplitName(table)
	info := TableInfo{Schema: schema, Name: name}
	err := c.pool.QueryRow(ctx,
		"SELECT created_at, created_by FROM pgframe.tables WHERE schema_name = $1 AND table_name = $2",
		schema, name).Scan(&info.CreatedAt, &info.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return info, false, nil
		}
		err = sqlerr.Normalize(err)
		// A database without the registry bootstrapped is a miss, not an
		// error.
		if sqlerr.ErrCode(err) == sqlerr.UndefinedTable {
			return info, false, nil
		}
		return info, false, err
	}
	return info, true, nil
}

// recordTable upserts the registry row for a freshly written table. Best
// effort: a database without the registry bootstrapped just logs a debug
// line.
func (c *Client) recordTable(ctx context.Context, table string) {
	schema, name := sqlbuild.SplitName(table)
	err := c.exec(ctx, `INSERT INTO pgframe.tables (schema_name, table_name, created_by)
VALUES ($1, $2, $3)
ON CONFLICT (schema_name, table_name)
DO UPDATE SET created_at = now(), created_by = EXCLUDED.created_by`,
		schema, name, c.username)
	if err != nil {
		c.log.Debug().Err(err).Str("table", table).Msg("registry not updated")
	}
}
