// interfaces.go
// Core interfaces for migrate: DBAdapter, Tx, Runner and Step.
// These are public and intended for use by migration authors and driver developers.

package migrate

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Execer is the query surface shared by DBAdapter and Tx.
type Execer interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// DBAdapter defines the interface for database drivers.
type DBAdapter interface {
	Execer
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	Close() error
	DB() *sqlx.DB
	DialectName() string
}

// Tx defines the interface for transaction operations.
type Tx interface {
	Execer
	Commit() error
	Rollback() error
}

// Runner executes schema operations. Table and index names may carry the
// {{%name}} template, which the runner resolves to the prefixed, quoted name.
type Runner interface {
	DriverName() string
	QuoteTableName(name string) string

	CreateTable(ctx context.Context, table string, columns Columns, options string) error
	DropTable(ctx context.Context, table string) error
	AddPrimaryKey(ctx context.Context, name, table string, columns []string) error
	DropPrimaryKey(ctx context.Context, name, table string) error
	CreateIndex(ctx context.Context, name, table string, columns []string, unique bool) error
	DropIndex(ctx context.Context, name, table string) error
	AddForeignKey(ctx context.Context, name, table string, columns []string, refTable string, refColumns []string, onDelete, onUpdate ReferenceOption) error
	DropForeignKey(ctx context.Context, name, table string) error
	Execute(ctx context.Context, sql string) error
}

// Step is one reversible unit of a migration.
type Step interface {
	Up(ctx context.Context, r Runner) error
	Down(ctx context.Context, r Runner) error
}

// Locker keeps concurrent migration runs apart. The returned release
// function frees the lock.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
