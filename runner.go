package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/burugo/migrate/internal/schema"
)

// SQLRunner implements Runner on top of an Execer (a DBAdapter or a Tx).
// DDL is generated for the driver's dialect; every name goes through the
// template expansion that applies the table prefix.
type SQLRunner struct {
	exec    Execer
	dialect *schema.Dialect
	prefix  string
}

// RunnerOption configures an SQLRunner.
type RunnerOption func(*SQLRunner)

// WithTablePrefix sets the prefix that replaces % in {{%name}} templates.
func WithTablePrefix(prefix string) RunnerOption {
	return func(r *SQLRunner) { r.prefix = prefix }
}

// NewSQLRunner creates a runner for driver that executes through exec.
func NewSQLRunner(exec Execer, driver string, opts ...RunnerOption) (*SQLRunner, error) {
	d, err := schema.Lookup(driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, driver)
	}
	r := &SQLRunner{exec: exec, dialect: d}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Ensure SQLRunner implements Runner.
var _ Runner = (*SQLRunner)(nil)

// DriverName returns the canonical dialect name (mysql, postgres, sqlite,
// sqlserver).
func (r *SQLRunner) DriverName() string { return r.dialect.Name }

// TablePrefix returns the configured table prefix.
func (r *SQLRunner) TablePrefix() string { return r.prefix }

// QuoteTableName quotes a table name. Names holding a {{table}} template are
// returned unchanged; they are expanded when the statement runs.
func (r *SQLRunner) QuoteTableName(name string) string {
	if schema.HasTemplate(name) {
		return name
	}
	return r.dialect.Quote(name)
}

// RawTableName resolves a {{%name}} template to the prefixed, unquoted name.
func (r *SQLRunner) RawTableName(name string) string {
	return schema.ExpandName(name, r.prefix)
}

// Execute runs sql after template expansion.
func (r *SQLRunner) Execute(ctx context.Context, sql string) error {
	_, err := r.exec.Exec(ctx, r.dialect.ExpandSQL(sql, r.prefix))
	return err
}

func (r *SQLRunner) CreateTable(ctx context.Context, table string, columns Columns, options string) error {
	defs := make([]schema.ColumnDDL, 0, len(columns))
	for _, c := range columns {
		if c.Definition == nil {
			return fmt.Errorf("%w: %s", ErrMissingDefinition, c.Name)
		}
		def, err := buildColumn(c.Definition, r.dialect.Name)
		if err != nil {
			return fmt.Errorf("column %s: %w", c.Name, err)
		}
		if def == "" {
			return fmt.Errorf("%w: %s", ErrMissingDefinition, c.Name)
		}
		defs = append(defs, schema.ColumnDDL{Name: c.Name, Definition: def})
	}
	return r.Execute(ctx, r.dialect.CreateTableSQL(r.RawTableName(table), defs, options))
}

func (r *SQLRunner) DropTable(ctx context.Context, table string) error {
	return r.Execute(ctx, r.dialect.DropTableSQL(r.RawTableName(table)))
}

func (r *SQLRunner) AddPrimaryKey(ctx context.Context, name, table string, columns []string) error {
	name, table = r.RawTableName(name), r.RawTableName(table)
	if !r.dialect.AlterConstraints {
		clause := r.dialect.PrimaryKeyClause(name, columns)
		return r.rebuildTable(ctx, table, func(createSQL string) (string, error) {
			return schema.AddTableConstraint(createSQL, clause)
		})
	}
	return r.Execute(ctx, r.dialect.AddPrimaryKeySQL(name, table, columns))
}

func (r *SQLRunner) DropPrimaryKey(ctx context.Context, name, table string) error {
	name, table = r.RawTableName(name), r.RawTableName(table)
	if !r.dialect.AlterConstraints {
		return r.rebuildTable(ctx, table, r.removeConstraint(name, table))
	}
	return r.Execute(ctx, r.dialect.DropPrimaryKeySQL(name, table))
}

func (r *SQLRunner) CreateIndex(ctx context.Context, name, table string, columns []string, unique bool) error {
	return r.Execute(ctx, r.dialect.CreateIndexSQL(r.RawTableName(name), r.RawTableName(table), columns, unique))
}

func (r *SQLRunner) DropIndex(ctx context.Context, name, table string) error {
	return r.Execute(ctx, r.dialect.DropIndexSQL(r.RawTableName(name), r.RawTableName(table)))
}

func (r *SQLRunner) AddForeignKey(ctx context.Context, name, table string, columns []string, refTable string, refColumns []string, onDelete, onUpdate ReferenceOption) error {
	name, table, refTable = r.RawTableName(name), r.RawTableName(table), r.RawTableName(refTable)
	if !r.dialect.AlterConstraints {
		clause := r.dialect.ForeignKeyClause(name, columns, refTable, refColumns, string(onDelete), string(onUpdate))
		return r.rebuildTable(ctx, table, func(createSQL string) (string, error) {
			return schema.AddTableConstraint(createSQL, clause)
		})
	}
	return r.Execute(ctx, r.dialect.AddForeignKeySQL(name, table, columns, refTable, refColumns, string(onDelete), string(onUpdate)))
}

func (r *SQLRunner) DropForeignKey(ctx context.Context, name, table string) error {
	name, table = r.RawTableName(name), r.RawTableName(table)
	if !r.dialect.AlterConstraints {
		return r.rebuildTable(ctx, table, r.removeConstraint(name, table))
	}
	return r.Execute(ctx, r.dialect.DropForeignKeySQL(name, table))
}

func (r *SQLRunner) removeConstraint(name, table string) func(string) (string, error) {
	return func(createSQL string) (string, error) {
		out, found, err := r.dialect.RemoveTableConstraint(createSQL, name)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("constraint %s not found on table %s", name, table)
		}
		return out, nil
	}
}

// rebuildTable changes the constraints of a SQLite table: the table is
// recreated from its amended CREATE statement, rows are copied over and the
// indexes restored.
func (r *SQLRunner) rebuildTable(ctx context.Context, table string, amend func(createSQL string) (string, error)) error {
	var createSQL string
	err := r.exec.Get(ctx, &createSQL, "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return fmt.Errorf("read definition of table %s: %w", table, err)
	}
	var indexes []string
	err = r.exec.Select(ctx, &indexes, "SELECT sql FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL", table)
	if err != nil {
		return fmt.Errorf("read indexes of table %s: %w", table, err)
	}

	amended, err := amend(createSQL)
	if err != nil {
		return err
	}
	tmp := table + "__rebuild"
	created, err := schema.RenameCreateTable(amended, r.dialect.Quote(tmp))
	if err != nil {
		return err
	}

	var fkEnabled bool
	if err := r.exec.Get(ctx, &fkEnabled, "PRAGMA foreign_keys"); err != nil {
		return err
	}
	stmts := []string{
		created,
		fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", r.dialect.Quote(tmp), r.dialect.Quote(table)),
		r.dialect.DropTableSQL(table),
		"PRAGMA legacy_alter_table = ON",
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", r.dialect.Quote(tmp), r.dialect.Quote(table)),
		"PRAGMA legacy_alter_table = OFF",
	}
	stmts = append(stmts, indexes...)
	if fkEnabled {
		stmts = append(append([]string{"PRAGMA foreign_keys = OFF"}, stmts...), "PRAGMA foreign_keys = ON")
	}
	for _, stmt := range stmts {
		if _, err := r.exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table, err)
		}
	}
	return nil
}

// String describes the runner, e.g. for log lines.
func (r *SQLRunner) String() string {
	var b strings.Builder
	b.WriteString("SQLRunner(" + r.dialect.Name)
	if r.prefix != "" {
		b.WriteString(", prefix=" + r.prefix)
	}
	b.WriteString(")")
	return b.String()
}
