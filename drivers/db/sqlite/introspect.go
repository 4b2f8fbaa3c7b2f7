package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/migrate/drivers/schema"
	internalschema "github.com/burugo/migrate/internal/schema"
)

// SQLiteIntrospector implements schema.Introspector for SQLite.
type SQLiteIntrospector struct {
	DB *sqlx.DB
}

type tableInfoRow struct {
	CID       int            `db:"cid"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	NotNull   int            `db:"notnull"`
	DfltValue sql.NullString `db:"dflt_value"`
	PK        int            `db:"pk"`
}

type indexListRow struct {
	Seq    int    `db:"seq"`
	Name   string `db:"name"`
	Unique int    `db:"unique"`
	Origin string `db:"origin"`
}

type foreignKeyRow struct {
	ID       int    `db:"id"`
	Seq      int    `db:"seq"`
	Table    string `db:"table"`
	From     string `db:"from"`
	To       string `db:"to"`
	OnUpdate string `db:"on_update"`
	OnDelete string `db:"on_delete"`
}

// GetTableInfo introspects the given table and returns its schema info (SQLite).
func (si *SQLiteIntrospector) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	if si.DB == nil {
		return nil, fmt.Errorf("SQLiteIntrospector: DB is nil")
	}
	db := si.DB.Unsafe()

	var createSQL string
	err := db.GetContext(ctx, &createSQL, "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sqlite_master: %w", err)
	}

	// 1. Columns
	var colRows []tableInfoRow
	if err := db.SelectContext(ctx, &colRows, "SELECT * FROM pragma_table_info(?)", tableName); err != nil {
		return nil, fmt.Errorf("pragma_table_info failed: %w", err)
	}
	info := &schema.TableInfo{Name: tableName}
	var pkCols []tableInfoRow
	for _, c := range colRows {
		var def *string
		if c.DfltValue.Valid {
			v := c.DfltValue.String
			def = &v
		}
		info.Columns = append(info.Columns, schema.ColumnInfo{
			Name:       c.Name,
			DataType:   c.Type,
			IsNullable: c.NotNull == 0 && c.PK == 0,
			IsPrimary:  c.PK > 0,
			Default:    def,
		})
		if c.PK > 0 {
			pkCols = append(pkCols, c)
		}
	}
	sort.Slice(pkCols, func(i, j int) bool { return pkCols[i].PK < pkCols[j].PK })
	for _, c := range pkCols {
		info.PrimaryKey = append(info.PrimaryKey, c.Name)
	}

	// 2. Indexes
	var idxRows []indexListRow
	if err := db.SelectContext(ctx, &idxRows, "SELECT * FROM pragma_index_list(?)", tableName); err != nil {
		return nil, fmt.Errorf("pragma_index_list failed: %w", err)
	}
	for _, idx := range idxRows {
		if idx.Origin == "pk" {
			continue // primary key index
		}
		var cols []string
		if err := db.SelectContext(ctx, &cols, "SELECT name FROM pragma_index_info(?) ORDER BY seqno", idx.Name); err != nil {
			return nil, fmt.Errorf("pragma_index_info(%s) failed: %w", idx.Name, err)
		}
		info.Indexes = append(info.Indexes, schema.IndexInfo{
			Name:    idx.Name,
			Columns: cols,
			Unique:  idx.Unique == 1,
		})
	}
	sort.Slice(info.Indexes, func(i, j int) bool { return info.Indexes[i].Name < info.Indexes[j].Name })

	// 3. Foreign keys; names come from the stored CREATE statement.
	var fkRows []foreignKeyRow
	if err := db.SelectContext(ctx, &fkRows, "SELECT * FROM pragma_foreign_key_list(?) ORDER BY id, seq", tableName); err != nil {
		return nil, fmt.Errorf("pragma_foreign_key_list failed: %w", err)
	}
	names := foreignKeyNames(createSQL)
	byID := map[int]*schema.ForeignKeyInfo{}
	var order []int
	for _, r := range fkRows {
		fk, ok := byID[r.ID]
		if !ok {
			fk = &schema.ForeignKeyInfo{RefTable: r.Table, OnDelete: r.OnDelete, OnUpdate: r.OnUpdate}
			byID[r.ID] = fk
			order = append(order, r.ID)
		}
		fk.Columns = append(fk.Columns, r.From)
		fk.RefColumns = append(fk.RefColumns, r.To)
	}
	for _, id := range order {
		fk := byID[id]
		fk.Name = names[strings.Join(fk.Columns, ",")+"->"+fk.RefTable]
		info.ForeignKeys = append(info.ForeignKeys, *fk)
	}
	sort.Slice(info.ForeignKeys, func(i, j int) bool { return info.ForeignKeys[i].Name < info.ForeignKeys[j].Name })

	return info, nil
}

// foreignKeyNames maps "col1,col2->reftable" to the constraint name for every
// named FOREIGN KEY clause in createSQL.
func foreignKeyNames(createSQL string) map[string]string {
	names := map[string]string{}
	defs, err := internalschema.SplitDefinitions(createSQL)
	if err != nil {
		return names
	}
	for _, def := range defs {
		fields := tokenize(def)
		if len(fields) < 4 || !strings.EqualFold(fields[0], "CONSTRAINT") {
			continue
		}
		upper := strings.ToUpper(def)
		fkAt := strings.Index(upper, "FOREIGN KEY")
		refAt := strings.Index(upper, "REFERENCES")
		if fkAt < 0 || refAt < fkAt {
			continue
		}
		cols := parenList(def[fkAt:refAt])
		refFields := tokenize(def[refAt+len("REFERENCES"):])
		if len(refFields) == 0 {
			continue
		}
		names[strings.Join(cols, ",")+"->"+unquote(refFields[0])] = unquote(fields[1])
	}
	return names
}

// tokenize splits on whitespace and parentheses, keeping quoted identifiers
// whole.
func tokenize(s string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '`':
			quote = c
			cur.WriteByte(c)
		case c == '[':
			quote = ']'
			cur.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n' || c == '(' || c == ')':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

func parenList(s string) []string {
	open := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if open < 0 || end <= open {
		return nil
	}
	parts := strings.Split(s[open+1:end], ",")
	for i, p := range parts {
		parts[i] = unquote(strings.TrimSpace(p))
	}
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"',
			s[0] == '`' && s[len(s)-1] == '`',
			s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return s
}

// ViewExists reports whether the view exists.
func (si *SQLiteIntrospector) ViewExists(ctx context.Context, viewName string) (bool, error) {
	var n int
	if err := si.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'view' AND name = ?", viewName); err != nil {
		return false, fmt.Errorf("read sqlite_master: %w", err)
	}
	return n > 0, nil
}
