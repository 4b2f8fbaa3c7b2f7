package sqlite

import (
	"log"

	"github.com/burugo/migrate"
	"github.com/burugo/migrate/drivers/schema"
	"github.com/burugo/migrate/internal/drivers/db"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteAdapter implements the migrate.DBAdapter interface for SQLite.
type SQLiteAdapter struct {
	*db.Adapter
}

var _ migrate.DBAdapter = (*SQLiteAdapter)(nil)

// NewSQLiteAdapter creates a new SQLite database adapter.
//
// The pool holds a single connection: connection-scoped pragmas used by
// table rebuilds must apply to every statement, and ":memory:" databases
// exist per connection, so the connection never expires either.
func NewSQLiteAdapter(dsn string) (*SQLiteAdapter, error) {
	log.Printf("Initializing SQLite adapter with DSN: %s", dsn)
	sqlxDB, err := db.Open("sqlite3", dsn, 1, 1, 0)
	if err != nil {
		return nil, err
	}
	log.Println("SQLite adapter initialized successfully.")
	return &SQLiteAdapter{Adapter: db.NewAdapter(sqlxDB, "sqlite")}, nil
}

// Register the SQLite introspector factory at init time to avoid import cycles.
func init() {
	migrate.RegisterIntrospectorFactory("sqlite", func(adapter migrate.DBAdapter) schema.Introspector {
		return &SQLiteIntrospector{DB: adapter.DB()}
	})
}
