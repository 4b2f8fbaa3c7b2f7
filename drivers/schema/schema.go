package schema

import (
	"context"
)

// IndexInfo holds metadata for a single index (normal or unique).
type IndexInfo struct {
	Name    string   // Index name
	Columns []string // Column names in index order
	Unique  bool     // Is unique index
}

// ForeignKeyInfo holds metadata for one foreign key constraint.
type ForeignKeyInfo struct {
	Name       string // Constraint name; empty where the backend does not keep it
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

// TableInfo holds the actual schema info introspected from the database.
type TableInfo struct {
	Name        string           // Table name
	Columns     []ColumnInfo     // All columns
	Indexes     []IndexInfo      // Secondary indexes (normal and unique)
	PrimaryKey  []string         // Primary key columns, in key order
	ForeignKeys []ForeignKeyInfo // Foreign key constraints
}

// ColumnInfo holds metadata for a single column in a table.
type ColumnInfo struct {
	Name       string  // Column name
	DataType   string  // Database type (e.g., INT, VARCHAR(255))
	IsNullable bool    // Whether the column is nullable
	IsPrimary  bool    // Whether this column is part of the primary key
	Default    *string // Default value (if any)
}

// Index returns the index with the given name.
func (t *TableInfo) Index(name string) (IndexInfo, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexInfo{}, false
}

// Column returns the column with the given name.
func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// Introspector defines the interface for database schema introspection.
type Introspector interface {
	// GetTableInfo introspects the given table and returns its schema info,
	// or nil when the table does not exist.
	GetTableInfo(ctx context.Context, tableName string) (*TableInfo, error)
	// ViewExists reports whether a view with the given name exists.
	ViewExists(ctx context.Context, viewName string) (bool, error)
}
