package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Abstract column kinds understood by every dialect's type table.
const (
	KindInteger   = "integer"
	KindBigInt    = "bigint"
	KindSmallInt  = "smallint"
	KindString    = "string"
	KindText      = "text"
	KindBoolean   = "boolean"
	KindTimestamp = "timestamp"
	KindDateTime  = "datetime"
	KindDate      = "date"
	KindDecimal   = "decimal"
	KindFloat     = "float"
	KindBinary    = "binary"
)

// DefaultSizes holds the size arguments used when a column is declared
// without an explicit length/precision.
var DefaultSizes = map[string][]int{
	KindInteger:  {11},
	KindBigInt:   {20},
	KindSmallInt: {6},
	KindString:   {255},
	KindDecimal:  {10, 0},
}

// Dialect describes how DDL, literals and placeholders are written for one
// database driver.
type Dialect struct {
	Name       string
	OpenQuote  string
	CloseQuote string

	// Types maps abstract kinds to SQL type formats. Every %d verb consumes
	// one size argument.
	Types map[string]string

	// Unsigned reports whether the UNSIGNED modifier exists.
	Unsigned bool
	// AutoIncrementTypes replaces the column type of auto-increment columns
	// (postgres serial family, sqlite integer).
	AutoIncrementTypes map[string]string
	// AutoIncrement is the auto-increment keyword. AutoIncrementAfterPK puts
	// it after PRIMARY KEY instead of before.
	AutoIncrement        string
	AutoIncrementAfterPK bool

	// AlterConstraints is false for backends that cannot add or drop
	// constraints on an existing table (sqlite).
	AlterConstraints bool
	// DropIndexOnTable renders DROP INDEX name ON table.
	DropIndexOnTable bool
	// DropForeignKey is the ALTER TABLE clause that removes a foreign key.
	DropForeignKey string
	// DropPrimaryKeyByName is false when the backend drops the primary key
	// without naming it (mysql).
	DropPrimaryKeyByName bool

	TrueLiteral      string
	FalseLiteral     string
	BackslashEscapes bool
	BytesFormat      string

	// Placeholder renders the n-th (1-based) bind variable.
	Placeholder func(n int) string

	// MigrationsTable is the CREATE TABLE template for the history table;
	// %s receives the quoted table name.
	MigrationsTable string
}

func questionMark(int) string { return "?" }

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]*Dialect{}
)

// Register adds or replaces a dialect under its name and any aliases.
func Register(d *Dialect, aliases ...string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name] = d
	for _, a := range aliases {
		dialects[a] = d
	}
}

// Lookup returns the dialect registered for driver.
func Lookup(driver string) (*Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %s", driver)
	}
	return d, nil
}

// Names returns the registered driver names, sorted.
func Names() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(&Dialect{
		Name:       "mysql",
		OpenQuote:  "`",
		CloseQuote: "`",
		Types: map[string]string{
			KindInteger:   "int(%d)",
			KindBigInt:    "bigint(%d)",
			KindSmallInt:  "smallint(%d)",
			KindString:    "varchar(%d)",
			KindText:      "text",
			KindBoolean:   "tinyint(1)",
			KindTimestamp: "timestamp",
			KindDateTime:  "datetime",
			KindDate:      "date",
			KindDecimal:   "decimal(%d,%d)",
			KindFloat:     "float",
			KindBinary:    "blob",
		},
		Unsigned:             true,
		AutoIncrement:        "AUTO_INCREMENT",
		AlterConstraints:     true,
		DropIndexOnTable:     true,
		DropForeignKey:       "DROP FOREIGN KEY",
		DropPrimaryKeyByName: false,
		TrueLiteral:          "TRUE",
		FalseLiteral:         "FALSE",
		BackslashEscapes:     true,
		BytesFormat:          "X'%s'",
		Placeholder:          questionMark,
		MigrationsTable: `CREATE TABLE IF NOT EXISTS %s (
  id INT AUTO_INCREMENT PRIMARY KEY,
  version VARCHAR(255) NOT NULL UNIQUE,
  applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  description VARCHAR(255)
)`,
	})

	Register(&Dialect{
		Name:       "postgres",
		OpenQuote:  `"`,
		CloseQuote: `"`,
		Types: map[string]string{
			KindInteger:   "integer",
			KindBigInt:    "bigint",
			KindSmallInt:  "smallint",
			KindString:    "varchar(%d)",
			KindText:      "text",
			KindBoolean:   "boolean",
			KindTimestamp: "timestamp(0)",
			KindDateTime:  "timestamp(0)",
			KindDate:      "date",
			KindDecimal:   "numeric(%d,%d)",
			KindFloat:     "double precision",
			KindBinary:    "bytea",
		},
		AutoIncrementTypes: map[string]string{
			KindInteger:  "serial",
			KindBigInt:   "bigserial",
			KindSmallInt: "smallserial",
		},
		AlterConstraints:     true,
		DropForeignKey:       "DROP CONSTRAINT",
		DropPrimaryKeyByName: true,
		TrueLiteral:          "TRUE",
		FalseLiteral:         "FALSE",
		BytesFormat:          `'\x%s'`,
		Placeholder:          func(n int) string { return fmt.Sprintf("$%d", n) },
		MigrationsTable: `CREATE TABLE IF NOT EXISTS %s (
  id SERIAL PRIMARY KEY,
  version VARCHAR(255) NOT NULL UNIQUE,
  applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  description VARCHAR(255)
)`,
	}, "pgx", "postgresql")

	Register(&Dialect{
		Name:       "sqlite",
		OpenQuote:  `"`,
		CloseQuote: `"`,
		Types: map[string]string{
			KindInteger:   "integer",
			KindBigInt:    "bigint",
			KindSmallInt:  "smallint",
			KindString:    "varchar(%d)",
			KindText:      "text",
			KindBoolean:   "boolean",
			KindTimestamp: "timestamp",
			KindDateTime:  "datetime",
			KindDate:      "date",
			KindDecimal:   "decimal(%d,%d)",
			KindFloat:     "float",
			KindBinary:    "blob",
		},
		AutoIncrementTypes: map[string]string{
			KindInteger:  "integer",
			KindBigInt:   "integer",
			KindSmallInt: "integer",
		},
		AutoIncrement:        "AUTOINCREMENT",
		AutoIncrementAfterPK: true,
		AlterConstraints:     false,
		DropForeignKey:       "DROP CONSTRAINT",
		DropPrimaryKeyByName: true,
		TrueLiteral:          "TRUE",
		FalseLiteral:         "FALSE",
		BytesFormat:          "X'%s'",
		Placeholder:          questionMark,
		MigrationsTable: `CREATE TABLE IF NOT EXISTS %s (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  version TEXT NOT NULL UNIQUE,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  description TEXT
)`,
	}, "sqlite3")

	Register(&Dialect{
		Name:       "sqlserver",
		OpenQuote:  "[",
		CloseQuote: "]",
		Types: map[string]string{
			KindInteger:   "int",
			KindBigInt:    "bigint",
			KindSmallInt:  "smallint",
			KindString:    "nvarchar(%d)",
			KindText:      "nvarchar(max)",
			KindBoolean:   "bit",
			KindTimestamp: "datetime2",
			KindDateTime:  "datetime2",
			KindDate:      "date",
			KindDecimal:   "decimal(%d,%d)",
			KindFloat:     "float",
			KindBinary:    "varbinary(max)",
		},
		AutoIncrement:        "IDENTITY",
		AlterConstraints:     true,
		DropIndexOnTable:     true,
		DropForeignKey:       "DROP CONSTRAINT",
		DropPrimaryKeyByName: true,
		TrueLiteral:          "1",
		FalseLiteral:         "0",
		BytesFormat:          "0x%s",
		Placeholder:          func(n int) string { return fmt.Sprintf("@p%d", n) },
		MigrationsTable: `IF OBJECT_ID(N'%[1]s', N'U') IS NULL CREATE TABLE %[1]s (
  id INT IDENTITY PRIMARY KEY,
  version NVARCHAR(255) NOT NULL UNIQUE,
  applied_at DATETIME2 DEFAULT CURRENT_TIMESTAMP,
  description NVARCHAR(255)
)`,
	}, "mssql")
}

// Quote quotes an identifier, quoting each part of a dotted name separately.
func (d *Dialect) Quote(identifier string) string {
	if len(identifier) > 1 && strings.HasPrefix(identifier, d.OpenQuote) && strings.HasSuffix(identifier, d.CloseQuote) {
		return identifier
	}
	parts := strings.Split(identifier, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		p = strings.ReplaceAll(p, d.CloseQuote, d.CloseQuote+d.CloseQuote)
		parts[i] = d.OpenQuote + p + d.CloseQuote
	}
	return strings.Join(parts, ".")
}

// QuoteList quotes every name and joins them with ", ".
func (d *Dialect) QuoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// ColumnType renders the SQL type of an abstract kind. Unknown kinds are
// returned verbatim so callers can pass native types through.
func (d *Dialect) ColumnType(kind string, sizes ...int) string {
	format, ok := d.Types[kind]
	if !ok {
		return kind
	}
	verbs := strings.Count(format, "%d")
	if verbs == 0 {
		return format
	}
	args := make([]any, verbs)
	defaults := DefaultSizes[kind]
	for i := range args {
		switch {
		case i < len(sizes) && sizes[i] > 0:
			args[i] = sizes[i]
		case i < len(defaults):
			args[i] = defaults[i]
		default:
			args[i] = 0
		}
	}
	return fmt.Sprintf(format, args...)
}

// Rebind rewrites ? placeholders into the dialect's bind variable style,
// leaving quoted literals untouched.
func (d *Dialect) Rebind(query string) string {
	if d.Placeholder == nil || d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '?':
			n++
			b.WriteString(d.Placeholder(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
