package schema

import (
	"fmt"
	"strings"
)

// ColumnSpec is the dialect-neutral description of a column rendered by
// ColumnSQL.
type ColumnSpec struct {
	Kind          string
	Sizes         []int
	Unsigned      bool
	NotNull       bool
	Null          bool
	HasDefault    bool
	Default       any
	AutoIncrement bool
	PrimaryKey    bool
	Append        string
}

// ColumnSQL renders a column definition (without the column name).
func (d *Dialect) ColumnSQL(c ColumnSpec) (string, error) {
	typ := d.ColumnType(c.Kind, c.Sizes...)
	if c.AutoIncrement {
		if serial, ok := d.AutoIncrementTypes[c.Kind]; ok {
			typ = serial
		}
	}
	parts := []string{typ}
	if c.Unsigned && d.Unsigned {
		parts = append(parts, "UNSIGNED")
	}
	switch {
	case c.NotNull:
		parts = append(parts, "NOT NULL")
	case c.Null:
		parts = append(parts, "NULL")
	}
	if c.HasDefault {
		lit, err := d.Literal(c.Default)
		if err != nil {
			return "", fmt.Errorf("default value: %w", err)
		}
		parts = append(parts, "DEFAULT "+lit)
	}
	if c.AutoIncrement && !d.AutoIncrementAfterPK && d.AutoIncrement != "" {
		parts = append(parts, d.AutoIncrement)
	}
	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.AutoIncrement && d.AutoIncrementAfterPK && d.AutoIncrement != "" {
		parts = append(parts, d.AutoIncrement)
	}
	if c.Append != "" {
		parts = append(parts, c.Append)
	}
	return strings.Join(parts, " "), nil
}

// ColumnDDL is a named, already rendered column definition.
type ColumnDDL struct {
	Name       string
	Definition string
}

// CreateTableSQL builds the CREATE TABLE statement.
func (d *Dialect) CreateTableSQL(table string, columns []ColumnDDL, options string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = d.Quote(c.Name) + " " + c.Definition
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", d.Quote(table), strings.Join(defs, ",\n\t"))
	if options != "" {
		stmt += " " + options
	}
	return stmt
}

// DropTableSQL builds the DROP TABLE statement.
func (d *Dialect) DropTableSQL(table string) string {
	return "DROP TABLE " + d.Quote(table)
}

// PrimaryKeyClause renders a named table-level primary key constraint.
func (d *Dialect) PrimaryKeyClause(name string, columns []string) string {
	return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", d.Quote(name), d.QuoteList(columns))
}

// AddPrimaryKeySQL builds the ALTER TABLE statement adding a primary key.
func (d *Dialect) AddPrimaryKeySQL(name, table string, columns []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s", d.Quote(table), d.PrimaryKeyClause(name, columns))
}

// DropPrimaryKeySQL builds the ALTER TABLE statement dropping a primary key.
func (d *Dialect) DropPrimaryKeySQL(name, table string) string {
	if !d.DropPrimaryKeyByName {
		return fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", d.Quote(table))
	}
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.Quote(table), d.Quote(name))
}

// CreateIndexSQL generates the CREATE INDEX statement.
func (d *Dialect) CreateIndexSQL(name, table string, columns []string, unique bool) string {
	stmt := "CREATE"
	if unique {
		stmt += " UNIQUE"
	}
	return fmt.Sprintf("%s INDEX %s ON %s (%s)", stmt, d.Quote(name), d.Quote(table), d.QuoteList(columns))
}

// DropIndexSQL generates the DROP INDEX statement.
func (d *Dialect) DropIndexSQL(name, table string) string {
	if d.DropIndexOnTable {
		return fmt.Sprintf("DROP INDEX %s ON %s", d.Quote(name), d.Quote(table))
	}
	return "DROP INDEX " + d.Quote(name)
}

// ForeignKeyClause renders a named table-level foreign key constraint.
func (d *Dialect) ForeignKeyClause(name string, columns []string, refTable string, refColumns []string, onDelete, onUpdate string) string {
	clause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.Quote(name), d.QuoteList(columns), d.Quote(refTable), d.QuoteList(refColumns))
	if onDelete != "" {
		clause += " ON DELETE " + onDelete
	}
	if onUpdate != "" {
		clause += " ON UPDATE " + onUpdate
	}
	return clause
}

// AddForeignKeySQL builds the ALTER TABLE statement adding a foreign key.
func (d *Dialect) AddForeignKeySQL(name, table string, columns []string, refTable string, refColumns []string, onDelete, onUpdate string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s", d.Quote(table),
		d.ForeignKeyClause(name, columns, refTable, refColumns, onDelete, onUpdate))
}

// DropForeignKeySQL builds the ALTER TABLE statement dropping a foreign key.
func (d *Dialect) DropForeignKeySQL(name, table string) string {
	return fmt.Sprintf("ALTER TABLE %s %s %s", d.Quote(table), d.DropForeignKey, d.Quote(name))
}

// MigrationsTableSQL returns the history table DDL.
func (d *Dialect) MigrationsTableSQL(table string) (string, error) {
	if d.MigrationsTable == "" {
		return "", fmt.Errorf("unsupported dialect: %s", d.Name)
	}
	return fmt.Sprintf(d.MigrationsTable, d.Quote(table)), nil
}

// GenerateMigrationsTableSQL returns the history table DDL for driver.
func GenerateMigrationsTableSQL(driver, table string) (string, error) {
	d, err := Lookup(driver)
	if err != nil {
		return "", err
	}
	return d.MigrationsTableSQL(table)
}
