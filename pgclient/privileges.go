package pgclient

import (
	"context"
	"fmt"

	"github.com/dataplumb/pgframe/sqlerr"
)

// The privilege matrix lives in pgframe.privileges: one row per
// (username, schema) pair with a level of read or write. SyncPrivileges
// turns those rows into GRANT statements.

// InitPrivileges seeds the matrix from the server's role list: every role
// can read public, and a role owning a schema of its own name can write it.
// Existing rows are left alone.
func (c *Client) InitPrivileges(ctx context.Context) error {
	users, err := c.scanNames(ctx, "SELECT usename FROM pg_catalog.pg_user ORDER BY usename")
	if err != nil {
		return fmt.Errorf("listing roles: %w", err)
	}
	schemas, err := c.SchemaNames(ctx)
	if err != nil {
		return err
	}
	ownSchema := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		ownSchema[s] = true
	}

	for _, user := range users {
		if err := c.seedPrivilege(ctx, user, "public", "read"); err != nil {
			return err
		}
		if ownSchema[user] {
			if err := c.seedPrivilege(ctx, user, user, "write"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) seedPrivilege(ctx context.Context, user, schema, level string) error {
	err := c.exec(ctx, `INSERT INTO pgframe.privileges (username, schema_name, level)
VALUES ($1, $2, $3)
ON CONFLICT (username, schema_name) DO NOTHING`, user, schema, level)
	if err != nil {
		return fmt.Errorf("seeding privilege %s/%s: %w", user, schema, err)
	}
	return nil
}

// SyncPrivileges applies the stored matrix for one schema: every user with
// a read or write row gets USAGE on the schema and SELECT on its tables.
// An empty matrix is seeded first. The public schema needs no sync.
func (c *Client) SyncPrivileges(ctx context.Context, schema string) error {
	if schema == "public" {
		return nil
	}
	defer c.timed("sync_privileges", schema)()

	var count int
	if err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM pgframe.privileges").Scan(&count); err != nil {
		err = sqlerr.Normalize(err)
		if sqlerr.ErrCode(err) == sqlerr.UndefinedTable {
			return fmt.Errorf("privilege matrix missing, run Bootstrap first: %w", err)
		}
		return err
	}
	if count == 0 {
		if err := c.InitPrivileges(ctx); err != nil {
			return err
		}
	}

	users, err := c.scanNames(ctx,
		"SELECT username FROM pgframe.privileges WHERE schema_name = $1 AND level IN ('read', 'write') ORDER BY username",
		schema)
	if err != nil {
		return err
	}
	for _, user := range users {
		// GRANT takes no bind parameters; identifiers come from the
		// matrix, which only trusted roles can write.
		if err := c.exec(ctx, fmt.Sprintf("GRANT USAGE ON SCHEMA %s TO %s", schema, user)); err != nil {
			return fmt.Errorf("granting usage on %s to %s: %w", schema, user, err)
		}
		if err := c.exec(ctx, fmt.Sprintf("GRANT SELECT ON ALL TABLES IN SCHEMA %s TO %s", schema, user)); err != nil {
			return fmt.Errorf("granting select on %s to %s: %w", schema, user, err)
		}
		c.log.Debug().Str("schema", schema).Str("user", user).Msg("privileges granted")
	}
	return nil
}
