// Package sqlbuild assembles the SQL statements used by the client.
//
// Everything here is plain string building over identifiers the caller
// already owns; bind parameters are not applicable to DDL. Statements are
// returned, never executed.
package sqlbuild

import (
	"fmt"
	"strings"
)

// ObjectKind selects the relational object a statement operates on.
type ObjectKind string

const (
	Table ObjectKind = "TABLE"
	View  ObjectKind = "VIEW"
)

// DefaultSchema is used for bare table names without a schema qualifier.
const DefaultSchema = "main"

// SplitName splits "schema.name" into its parts, lowercased.
// A bare name gets the default schema.
func SplitName(name string) (schema, table string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return DefaultSchema, name
}

// Qualify normalizes a table name into the canonical "schema.name" form.
func Qualify(name string) string {
	schema, table := SplitName(name)
	return schema + "." + table
}

// ColumnDef pairs a column name with its PostgreSQL type.
type ColumnDef struct {
	Name string
	UDT  string
}

// Select builds a SELECT over the given columns. Columns are deduplicated
// preserving first occurrence; an empty list selects *.
func Select(table string, columns []string, where string, limit int) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(columns) == 0 {
		b.WriteString("*")
	} else {
		seen := make(map[string]struct{}, len(columns))
		first := true
		for _, c := range columns {
			c = strings.ToLower(c)
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			if !first {
				b.WriteString(",\n  ")
			}
			b.WriteString(c)
			first = false
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(Qualify(table))
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String()
}

// CreateTable builds a CREATE TABLE statement with double-quoted, aligned
// column declarations, followed by COMMENT ON COLUMN statements for any
// provided comments. Single quotes in comments are escaped.
func CreateTable(name string, cols []ColumnDef, comments map[string]string) string {
	name = Qualify(name)
	decls := make([]string, len(cols))
	for i, c := range cols {
		pad := 15 - len(c.Name)
		if pad < 1 {
			pad = 1
		}
		decls[i] = fmt.Sprintf("    %q%s%s", c.Name, strings.Repeat(" ", pad), c.UDT)
	}
	sql := fmt.Sprintf("CREATE TABLE %s (\n%s\n);", name, strings.Join(decls, ",\n"))
	for _, c := range cols {
		comment, ok := comments[c.Name]
		if !ok || comment == "" {
			continue
		}
		comment = strings.ReplaceAll(comment, "'", "''")
		sql += fmt.Sprintf("\nCOMMENT ON COLUMN %s.%s IS '%s';", name, c.Name, comment)
	}
	return sql
}

// DropTable builds a DROP statement. With cascade, dependent objects go too.
func DropTable(name string, kind ObjectKind, cascade bool) string {
	option := ""
	if cascade {
		option = " CASCADE"
	}
	return fmt.Sprintf("DROP %s IF EXISTS %s%s;", kind, Qualify(name), option)
}

// Rename builds an ALTER ... RENAME statement. The new name is reduced to
// its bare table part since renames cannot move objects across schemas.
func Rename(name, newName string, kind ObjectKind) string {
	_, bare := SplitName(newName)
	return fmt.Sprintf("ALTER %s %s RENAME TO %s;", kind, Qualify(name), bare)
}

// CopyObject builds a CREATE TABLE AS / CREATE VIEW AS over the source.
func CopyObject(src, dst string, kind ObjectKind) string {
	if kind == View {
		return fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s;", Qualify(dst), Qualify(src))
	}
	return fmt.Sprintf("CREATE TABLE %s AS TABLE %s;", Qualify(dst), Qualify(src))
}

// DropColumns builds a single ALTER dropping every listed column.
func DropColumns(name string, kind ObjectKind, columns []string, cascade bool) string {
	option := ""
	if cascade {
		option = " CASCADE"
	}
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf(" DROP COLUMN %s%s", strings.ToLower(c), option)
	}
	return fmt.Sprintf("ALTER %s %s%s;", kind, Qualify(name), strings.Join(parts, ","))
}

// AddColumn builds an ALTER ... ADD for one column.
func AddColumn(name string, kind ObjectKind, column, udt string) string {
	return fmt.Sprintf("ALTER %s %s ADD %s %s;", kind, Qualify(name), strings.ToLower(column), udt)
}

// AlterColumnType builds an ALTER COLUMN ... TYPE ... USING cast, needed to
// align a referencing column with its referenced column before adding a
// foreign key.
func AlterColumnType(name, column, udt string) string {
	column = strings.ToLower(column)
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s;",
		Qualify(name), column, udt, column, udt)
}

// PrimaryKey builds an ADD PRIMARY KEY over one or more columns.
func PrimaryKey(name string, columns []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);",
		Qualify(name), joinLower(columns))
}

// ForeignKey builds an ADD FOREIGN KEY referencing foreignKey on the
// foreign table.
func ForeignKey(name string, columns []string, foreignTable, foreignKey string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD FOREIGN KEY (%s) REFERENCES %s (%s);",
		Qualify(name), joinLower(columns), Qualify(foreignTable), strings.ToLower(foreignKey))
}

// Update builds an UPDATE ... SET statement. The value is passed through a
// bind parameter by the caller; here it is the placeholder.
func Update(name, column, placeholder, where string) string {
	sql := fmt.Sprintf("UPDATE %s SET %s = %s", Qualify(name), strings.ToLower(column), placeholder)
	if where != "" {
		sql += " WHERE " + where
	}
	return sql
}

// Count builds a row count query.
func Count(name string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s;", Qualify(name))
}

// CreateSchema builds an idempotent CREATE SCHEMA.
func CreateSchema(name string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", strings.ToLower(name))
}

// ListTables builds the information_schema query listing a schema's tables.
func ListTables(schema string) string {
	return fmt.Sprintf(
		"SELECT table_name, table_type FROM information_schema.tables WHERE table_schema = '%s' ORDER BY table_name",
		strings.ToLower(schema))
}

// Dtypes builds the information_schema query for column names and types.
func Dtypes(schema, table string) string {
	return fmt.Sprintf(
		"SELECT column_name, udt_name FROM information_schema.columns WHERE table_schema = '%s' AND table_name = '%s' ORDER BY ordinal_position",
		schema, table)
}

// Metadata builds the query joining column comments (pg_description) with
// the columns of a table.
func Metadata(schema, table string) string {
	return fmt.Sprintf(`select
    table_cols.column_name,
    pgd.description
from pg_catalog.pg_statio_all_tables as st
full outer join pg_catalog.pg_description pgd on (
    pgd.objoid = st.relid
)
full outer join information_schema.columns table_cols on (
    pgd.objsubid = table_cols.ordinal_position and
    table_cols.table_schema = st.schemaname and
    table_cols.table_name = st.relname
)
where
    table_cols.table_schema = '%s' and
    table_cols.table_name = '%s'`, schema, table)
}

func joinLower(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.ToLower(c)
	}
	return strings.Join(out, ", ")
}
