package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/migrate/drivers/schema"
)

// PostgreSQLIntrospector implements schema.Introspector for PostgreSQL.
type PostgreSQLIntrospector struct {
	DB *sqlx.DB
}

type columnRow struct {
	Name       string         `db:"column_name"`
	DataType   string         `db:"data_type"`
	IsNullable string         `db:"is_nullable"`
	Default    sql.NullString `db:"column_default"`
}

type indexRow struct {
	Name      string `db:"index_name"`
	IsUnique  bool   `db:"is_unique"`
	IsPrimary bool   `db:"is_primary"`
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

// referential actions as stored in pg_constraint
var actionNames = map[string]string{
	"a": "NO ACTION",
	"r": "RESTRICT",
	"c": "CASCADE",
	"n": "SET NULL",
	"d": "SET DEFAULT",
}

// GetTableInfo introspects the given table and returns its schema info (PostgreSQL).
func (pi *PostgreSQLIntrospector) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	if pi.DB == nil {
		return nil, fmt.Errorf("PostgreSQLIntrospector: DB is nil")
	}

	// 1. Columns
	var cols []columnRow
	err := pi.DB.SelectContext(ctx, &cols, `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, tableName)
	if err != nil {
		return nil, fmt.Errorf("information_schema.columns failed: %w", err)
	}
	if len(cols) == 0 {
		// Table does not exist
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
			DataType:   c.DataType,
			IsNullable: c.IsNullable == "YES",
			Default:    def,
		})
	}

	// 2. Indexes, the primary key among them
	var idxRows []indexRow
	err = pi.DB.SelectContext(ctx, &idxRows, `SELECT i.relname AS index_name, ix.indisunique AS is_unique,
			ix.indisprimary AS is_primary, a.attname AS column_name
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE t.relname = $1 AND pg_table_is_visible(t.oid)
		ORDER BY i.relname, k.ord`, tableName)
	if err != nil {
		return nil, fmt.Errorf("pg_index failed: %w", err)
	}
	primary := map[string]bool{}
	for _, r := range idxRows {
		if r.IsPrimary {
			info.PrimaryKey = append(info.PrimaryKey, r.Column)
			primary[r.Column] = true
			continue
		}
		n := len(info.Indexes)
		if n == 0 || info.Indexes[n-1].Name != r.Name {
			info.Indexes = append(info.Indexes, schema.IndexInfo{Name: r.Name, Unique: r.IsUnique})
			n++
		}
		info.Indexes[n-1].Columns = append(info.Indexes[n-1].Columns, r.Column)
	}
	for i := range info.Columns {
		info.Columns[i].IsPrimary = primary[info.Columns[i].Name]
	}

	// 3. Foreign keys
	var fkRows []foreignKeyRow
	err = pi.DB.SelectContext(ctx, &fkRows, `SELECT c.conname AS constraint_name, a.attname AS column_name,
			rt.relname AS ref_table, ra.attname AS ref_column,
			c.confdeltype::text AS delete_rule, c.confupdtype::text AS update_rule
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_class rt ON rt.oid = c.confrelid
		JOIN LATERAL unnest(c.conkey, c.confkey) WITH ORDINALITY AS k(attnum, refattnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
		JOIN pg_attribute ra ON ra.attrelid = c.confrelid AND ra.attnum = k.refattnum
		WHERE c.contype = 'f' AND t.relname = $1 AND pg_table_is_visible(t.oid)
		ORDER BY c.conname, k.ord`, tableName)
	if err != nil {
		return nil, fmt.Errorf("pg_constraint failed: %w", err)
	}
	for _, r := range fkRows {
		n := len(info.ForeignKeys)
		if n == 0 || info.ForeignKeys[n-1].Name != r.Name {
			info.ForeignKeys = append(info.ForeignKeys, schema.ForeignKeyInfo{
				Name:     r.Name,
				RefTable: r.RefTable,
				OnDelete: actionNames[r.OnDelete],
				OnUpdate: actionNames[r.OnUpdate],
			})
			n++
		}
		info.ForeignKeys[n-1].Columns = append(info.ForeignKeys[n-1].Columns, r.Column)
		info.ForeignKeys[n-1].RefColumns = append(info.ForeignKeys[n-1].RefColumns, r.RefColumn)
	}

	return info, nil
}

// ViewExists reports whether the view exists in the current schema.
func (pi *PostgreSQLIntrospector) ViewExists(ctx context.Context, viewName string) (bool, error) {
	var n int
	err := pi.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM information_schema.views
		WHERE table_schema = current_schema() AND table_name = $1`, viewName)
	if err != nil {
		return false, fmt.Errorf("information_schema.views failed: %w", err)
	}
	return n > 0, nil
}
