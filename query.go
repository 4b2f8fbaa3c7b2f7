package migrate

import (
	"fmt"

	"github.com/burugo/migrate/internal/schema"
	"github.com/burugo/migrate/internal/sqlbuilder"
)

// Query builds a SELECT statement. Table names may use the {{%table}}
// template; it is left in place for the runner to expand.
//
//	q := migrate.NewQuery().
//		Select("u.id", "u.name").
//		From("{{%user}} u").
//		Where("u.active = ?", true)
type Query struct {
	stmt sqlbuilder.Select
}

// NewQuery returns an empty query selecting *.
func NewQuery() *Query {
	return &Query{stmt: sqlbuilder.Select{Limit: -1, Offset: -1}}
}

// Select sets the selected columns. Column names are quoted unless they
// contain an expression or a template.
func (q *Query) Select(columns ...string) *Query {
	q.stmt.Columns = append([]string(nil), columns...)
	return q
}

func (q *Query) Distinct() *Query {
	q.stmt.Distinct = true
	return q
}

// From sets the FROM tables; "table alias" is accepted.
func (q *Query) From(tables ...string) *Query {
	q.stmt.From = append([]string(nil), tables...)
	return q
}

func (q *Query) Join(table, on string, args ...interface{}) *Query {
	return q.join("JOIN", table, on, args)
}

func (q *Query) LeftJoin(table, on string, args ...interface{}) *Query {
	return q.join("LEFT JOIN", table, on, args)
}

func (q *Query) InnerJoin(table, on string, args ...interface{}) *Query {
	return q.join("INNER JOIN", table, on, args)
}

func (q *Query) join(kind, table, on string, args []interface{}) *Query {
	q.stmt.Joins = append(q.stmt.Joins, sqlbuilder.Join{
		Kind:  kind,
		Table: table,
		On:    sqlbuilder.Clause{SQL: on, Args: args},
	})
	return q
}

// Where replaces the WHERE condition.
func (q *Query) Where(cond string, args ...interface{}) *Query {
	q.stmt.Where = []sqlbuilder.Clause{{SQL: cond, Args: args}}
	return q
}

// AndWhere adds a condition joined with AND.
func (q *Query) AndWhere(cond string, args ...interface{}) *Query {
	q.stmt.Where = append(q.stmt.Where, sqlbuilder.Clause{SQL: cond, Args: args})
	return q
}

func (q *Query) GroupBy(columns ...string) *Query {
	q.stmt.GroupBy = append(q.stmt.GroupBy, columns...)
	return q
}

func (q *Query) Having(cond string, args ...interface{}) *Query {
	q.stmt.Having = append(q.stmt.Having, sqlbuilder.Clause{SQL: cond, Args: args})
	return q
}

// OrderBy appends ORDER BY terms, written as-is ("name DESC").
func (q *Query) OrderBy(terms ...string) *Query {
	q.stmt.OrderBy = append(q.stmt.OrderBy, terms...)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.stmt.Limit = n
	return q
}

func (q *Query) Offset(n int) *Query {
	q.stmt.Offset = n
	return q
}

// SQL renders the query for driver with bind variables in the driver's
// placeholder style.
func (q *Query) SQL(driver string) (string, []interface{}, error) {
	d, err := schema.Lookup(driver)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, driver)
	}
	sql, args := sqlbuilder.BuildSelectSQL(&q.stmt, d)
	return d.Rebind(sql), args, nil
}

// RawSQL renders the query for driver with every argument inlined as a
// literal. It implements ViewQuery.
func (q *Query) RawSQL(driver string) (string, error) {
	d, err := schema.Lookup(driver)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, driver)
	}
	sql, args := sqlbuilder.BuildSelectSQL(&q.stmt, d)
	return sqlbuilder.InlineArgs(d, sql, args)
}
