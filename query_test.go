package migrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_SQL(t *testing.T) {
	q := NewQuery().
		Select("u.id", "u.name AS label", "COUNT(p.id) AS posts").
		From("user u").
		LeftJoin("post p", "p.author = u.id AND p.state = ?", "published").
		Where("u.active = ?", true).
		AndWhere("u.id IN (?)", []int{1, 2, 3}).
		GroupBy("u.id").
		Having("COUNT(p.id) > ?", 1).
		OrderBy("u.id DESC").
		Limit(10).
		Offset(20)

	sql, args, err := q.SQL("postgres")
	require.NoError(t, err)
	assert.Equal(t, `SELECT "u"."id", "u"."name" AS "label", COUNT(p.id) AS posts FROM "user" "u"`+
		` LEFT JOIN "post" "p" ON p.author = u.id AND p.state = $1`+
		` WHERE (u.active = $2) AND (u.id IN ($3, $4, $5))`+
		` GROUP BY "u"."id" HAVING COUNT(p.id) > $6 ORDER BY u.id DESC LIMIT 10 OFFSET 20`, sql)
	assert.Equal(t, []interface{}{"published", true, 1, 2, 3, 1}, args)

	sql, _, err = q.SQL("sqlserver")
	require.NoError(t, err)
	assert.Contains(t, sql, "p.state = @p1")
	assert.Contains(t, sql, "ORDER BY u.id DESC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY")
}

func TestQuery_RawSQL(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	q := NewQuery().
		From("{{%event}}").
		Where("name = ?", "it's").
		AndWhere("created_at < ?", ts).
		AndWhere("kind IN (?)", []string{"a", "b"}).
		AndWhere("deleted_at IS ?", nil).
		AndWhere("score > ?", Expression("(SELECT AVG(score) FROM {{%event}})"))

	raw, err := q.RawSQL("mysql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM {{%event}} WHERE (name = 'it''s') AND (created_at < '2024-01-02 03:04:05')"+
		" AND (kind IN ('a', 'b')) AND (deleted_at IS NULL) AND (score > (SELECT AVG(score) FROM {{%event}}))", raw)

	raw, err = NewQuery().From("t").Where("id IN (?)", []int{}).RawSQL("sqlite")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "t" WHERE id IN (NULL)`, raw)
}

func TestQuery_Pagination(t *testing.T) {
	raw, err := NewQuery().From("t").Offset(5).RawSQL("sqlite")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "t" LIMIT -1 OFFSET 5`, raw)

	raw, err = NewQuery().From("t").Offset(5).RawSQL("mysql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `t` LIMIT 18446744073709551615 OFFSET 5", raw)

	raw, err = NewQuery().From("t").Limit(3).RawSQL("sqlserver")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [t] ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 3 ROWS ONLY", raw)
}

func TestQuery_Errors(t *testing.T) {
	_, _, err := NewQuery().From("t").SQL("oracle")
	assert.ErrorIs(t, err, ErrUnsupportedDialect)

	_, err = NewQuery().From("t").RawSQL("oracle")
	assert.ErrorIs(t, err, ErrUnsupportedDialect)

	_, err = NewQuery().From("t").Where("a = ?").RawSQL("mysql")
	assert.Error(t, err)
}
