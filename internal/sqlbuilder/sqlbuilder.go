package sqlbuilder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/burugo/migrate/internal/schema"
)

// Clause is an SQL fragment with ? placeholders and its arguments.
type Clause struct {
	SQL  string
	Args []interface{}
}

// Join is one JOIN clause.
type Join struct {
	Kind  string // "JOIN", "LEFT JOIN", ...
	Table string
	On    Clause
}

// Select describes a SELECT statement.
type Select struct {
	Columns  []string
	Distinct bool
	From     []string
	Joins    []Join
	Where    []Clause
	GroupBy  []string
	Having   []Clause
	OrderBy  []string
	Limit    int // negative means none
	Offset   int // negative means none
}

// BuildSelectSQL renders s with ? placeholders. Slice arguments are expanded
// for IN (?) lists.
func BuildSelectSQL(s *Select, d *schema.Dialect) (string, []interface{}) {
	var query strings.Builder
	var args []interface{}

	query.WriteString("SELECT ")
	if s.Distinct {
		query.WriteString("DISTINCT ")
	}
	if len(s.Columns) == 0 {
		query.WriteString("*")
	} else {
		cols := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			cols[i] = QuoteColumn(d, c)
		}
		query.WriteString(strings.Join(cols, ", "))
	}

	if len(s.From) > 0 {
		tables := make([]string, len(s.From))
		for i, t := range s.From {
			tables[i] = QuoteTable(d, t)
		}
		query.WriteString(" FROM ")
		query.WriteString(strings.Join(tables, ", "))
	}

	for _, j := range s.Joins {
		query.WriteString(" " + j.Kind + " " + QuoteTable(d, j.Table))
		if j.On.SQL != "" {
			on, onArgs := ExpandInClauses(j.On.SQL, j.On.Args)
			query.WriteString(" ON " + on)
			args = append(args, onArgs...)
		}
	}

	if where, whereArgs := joinClauses(s.Where); where != "" {
		query.WriteString(" WHERE " + where)
		args = append(args, whereArgs...)
	}

	if len(s.GroupBy) > 0 {
		cols := make([]string, len(s.GroupBy))
		for i, c := range s.GroupBy {
			cols[i] = QuoteColumn(d, c)
		}
		query.WriteString(" GROUP BY " + strings.Join(cols, ", "))
	}

	if having, havingArgs := joinClauses(s.Having); having != "" {
		query.WriteString(" HAVING " + having)
		args = append(args, havingArgs...)
	}

	if len(s.OrderBy) > 0 {
		query.WriteString(" ORDER BY " + strings.Join(s.OrderBy, ", "))
	}
	query.WriteString(pagination(d, s))
	return query.String(), args
}

func pagination(d *schema.Dialect, s *Select) string {
	if s.Limit < 0 && s.Offset < 0 {
		return ""
	}
	if d.Name == "sqlserver" {
		var b strings.Builder
		if len(s.OrderBy) == 0 {
			b.WriteString(" ORDER BY (SELECT NULL)")
		}
		b.WriteString(fmt.Sprintf(" OFFSET %d ROWS", max(s.Offset, 0)))
		if s.Limit >= 0 {
			b.WriteString(fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", s.Limit))
		}
		return b.String()
	}
	limit := ""
	switch {
	case s.Limit >= 0:
		limit = " LIMIT " + strconv.Itoa(s.Limit)
	case d.Name == "mysql":
		limit = " LIMIT 18446744073709551615"
	case d.Name == "sqlite":
		limit = " LIMIT -1"
	}
	if s.Offset >= 0 {
		return limit + " OFFSET " + strconv.Itoa(s.Offset)
	}
	return limit
}

func joinClauses(clauses []Clause) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, c := range clauses {
		sql, cArgs := ExpandInClauses(c.SQL, c.Args)
		if len(clauses) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		args = append(args, cArgs...)
	}
	return strings.Join(parts, " AND "), args
}

// QuoteTable quotes a table reference, keeping an alias and leaving
// {{table}} templates for the runner.
func QuoteTable(d *schema.Dialect, table string) string {
	if schema.HasTemplate(table) || strings.Contains(table, "(") {
		return table
	}
	name, alias := splitAlias(table)
	if alias != "" {
		return d.Quote(name) + " " + d.Quote(alias)
	}
	return d.Quote(name)
}

// QuoteColumn quotes a column reference. Expressions and templates are
// returned unchanged.
func QuoteColumn(d *schema.Dialect, column string) string {
	if schema.HasTemplate(column) || strings.Contains(column, "[[") || strings.Contains(column, "(") {
		return column
	}
	name, alias := splitAlias(column)
	if alias != "" {
		return d.Quote(name) + " AS " + d.Quote(alias)
	}
	return d.Quote(name)
}

func splitAlias(ref string) (name, alias string) {
	ref = strings.TrimSpace(ref)
	if i := strings.Index(strings.ToUpper(ref), " AS "); i > 0 {
		return strings.TrimSpace(ref[:i]), strings.TrimSpace(ref[i+4:])
	}
	if fields := strings.Fields(ref); len(fields) == 2 {
		return fields[0], fields[1]
	}
	return ref, ""
}

// ExpandInClauses replaces each ? bound to a slice with one placeholder per
// element and flattens the arguments. An empty slice becomes NULL so that
// IN (?) matches nothing.
func ExpandInClauses(sql string, args []interface{}) (string, []interface{}) {
	var out strings.Builder
	newArgs := make([]interface{}, 0, len(args))
	argIdx := 0
	scanPlaceholders(sql, func(literal string) {
		out.WriteString(literal)
	}, func() {
		if argIdx >= len(args) {
			out.WriteByte('?')
			return
		}
		arg := args[argIdx]
		argIdx++
		v := reflect.ValueOf(arg)
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && !isBytes(v) {
			n := v.Len()
			if n == 0 {
				out.WriteString("NULL")
				return
			}
			for j := 0; j < n; j++ {
				if j > 0 {
					out.WriteString(", ")
				}
				out.WriteByte('?')
				newArgs = append(newArgs, v.Index(j).Interface())
			}
			return
		}
		out.WriteByte('?')
		newArgs = append(newArgs, arg)
	})
	newArgs = append(newArgs, args[min(argIdx, len(args)):]...)
	return out.String(), newArgs
}

func isBytes(v reflect.Value) bool {
	return v.Type().Elem().Kind() == reflect.Uint8
}

// InlineArgs replaces every ? placeholder with its argument rendered as a
// literal of the dialect.
func InlineArgs(d *schema.Dialect, sql string, args []interface{}) (string, error) {
	var out strings.Builder
	argIdx := 0
	var err error
	scanPlaceholders(sql, func(literal string) {
		out.WriteString(literal)
	}, func() {
		if err != nil {
			return
		}
		if argIdx >= len(args) {
			err = fmt.Errorf("missing argument for placeholder %d", argIdx+1)
			return
		}
		lit, litErr := d.Literal(args[argIdx])
		if litErr != nil {
			err = fmt.Errorf("argument %d: %w", argIdx+1, litErr)
			return
		}
		argIdx++
		out.WriteString(lit)
	})
	if err != nil {
		return "", err
	}
	if argIdx != len(args) {
		return "", fmt.Errorf("%d arguments given for %d placeholders", len(args), argIdx)
	}
	return out.String(), nil
}

// scanPlaceholders walks sql and calls placeholder for every ? outside quoted
// literals and identifiers, and literal for the text in between.
func scanPlaceholders(sql string, literal func(string), placeholder func()) {
	start := 0
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '?':
			literal(sql[start:i])
			placeholder()
			start = i + 1
		}
	}
	literal(sql[start:])
}
