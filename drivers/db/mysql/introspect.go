package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/migrate/drivers/schema"
)

// MySQLIntrospector implements schema.Introspector for MySQL.
type MySQLIntrospector struct {
	DB *sqlx.DB
}

type columnRow struct {
	Name       string         `db:"name"`
	ColumnType string         `db:"column_type"`
	IsNullable string         `db:"is_nullable"`
	ColumnKey  string         `db:"column_key"`
	Default    sql.NullString `db:"column_default"`
}

type indexRow struct {
	Name      string `db:"index_name"`
	NonUnique int    `db:"non_unique"`
	Column    string `db:"column_name"`
}

type foreignKeyRow struct {
	Name      string `db:"constraint_name"`
	Column    string `db:"column_name"`
	RefTable  string `db:"ref_table"`
	RefColumn string `db:"ref_column"`
	OnDelete  string `db:"delete_rule"`
	OnUpdate  string `db:"update_rule"`
}

// GetTableInfo introspects the given table and returns its schema info (MySQL).
func (mi *MySQLIntrospector) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	if mi.DB == nil {
		return nil, fmt.Errorf("MySQLIntrospector: DB is nil")
	}

	// 1. Columns
	var cols []columnRow
	err := mi.DB.SelectContext(ctx, &cols, `SELECT COLUMN_NAME AS name, COLUMN_TYPE AS column_type,
		IS_NULLABLE AS is_nullable, COLUMN_KEY AS column_key, COLUMN_DEFAULT AS column_default
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ORDINAL_POSITION`, tableName)
	if err != nil {
		return nil, fmt.Errorf("information_schema.columns failed: %w", err)
	}
	if len(cols) == 0 {
		return nil, nil
	}
	info := &schema.TableInfo{Name: tableName}
	for _, c := range cols {
		var def *string
		if c.Default.Valid {
			v := c.Default.String
			def = &v
		}
		info.Columns = append(info.Columns, schema.ColumnInfo{
			Name:       c.Name,
			DataType:   c.ColumnType,
			IsNullable: c.IsNullable == "YES",
			IsPrimary:  c.ColumnKey == "PRI",
			Default:    def,
		})
	}

	// 2. Indexes, the primary key among them
	var idxRows []indexRow
	err = mi.DB.SelectContext(ctx, &idxRows, `SELECT INDEX_NAME AS index_name, NON_UNIQUE AS non_unique, COLUMN_NAME AS column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`, tableName)
	if err != nil {
		return nil, fmt.Errorf("information_schema.statistics failed: %w", err)
	}
	for _, r := range idxRows {
		if r.Name == "PRIMARY" {
			info.PrimaryKey = append(info.PrimaryKey, r.Column)
			continue
		}
		n := len(info.Indexes)
		if n == 0 || info.Indexes[n-1].Name != r.Name {
			info.Indexes = append(info.Indexes, schema.IndexInfo{Name: r.Name, Unique: r.NonUnique == 0})
			n++
		}
		info.Indexes[n-1].Columns = append(info.Indexes[n-1].Columns, r.Column)
	}

	// 3. Foreign keys
	var fkRows []foreignKeyRow
	err = mi.DB.SelectContext(ctx, &fkRows, `SELECT k.CONSTRAINT_NAME AS constraint_name, k.COLUMN_NAME AS column_name,
		k.REFERENCED_TABLE_NAME AS ref_table, k.REFERENCED_COLUMN_NAME AS ref_column,
		r.DELETE_RULE AS delete_rule, r.UPDATE_RULE AS update_rule
		FROM information_schema.key_column_usage k
		JOIN information_schema.referential_constraints r
			ON r.CONSTRAINT_SCHEMA = k.CONSTRAINT_SCHEMA AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
		WHERE k.table_schema = DATABASE() AND k.table_name = ?
		ORDER BY k.CONSTRAINT_NAME, k.ORDINAL_POSITION`, tableName)
	if err != nil {
		return nil, fmt.Errorf("information_schema.key_column_usage failed: %w", err)
	}
	for _, r := range fkRows {
		n := len(info.ForeignKeys)
		if n == 0 || info.ForeignKeys[n-1].Name != r.Name {
			info.ForeignKeys = append(info.ForeignKeys, schema.ForeignKeyInfo{
				Name:     r.Name,
				RefTable: r.RefTable,
				OnDelete: r.OnDelete,
				OnUpdate: r.OnUpdate,
			})
			n++
		}
		info.ForeignKeys[n-1].Columns = append(info.ForeignKeys[n-1].Columns, r.Column)
		info.ForeignKeys[n-1].RefColumns = append(info.ForeignKeys[n-1].RefColumns, r.RefColumn)
	}

	return info, nil
}

// ViewExists reports whether the view exists in the current database.
func (mi *MySQLIntrospector) ViewExists(ctx context.Context, viewName string) (bool, error) {
	var n int
	err := mi.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM information_schema.views
		WHERE table_schema = DATABASE() AND table_name = ?`, viewName)
	if err != nil {
		return false, fmt.Errorf("information_schema.views failed: %w", err)
	}
	return n > 0, nil
}
