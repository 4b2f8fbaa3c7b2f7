package schema

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	mysql := mustDialect(t, "mysql")
	pg := mustDialect(t, "postgres")
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	n := 7

	cases := []struct {
		d    *Dialect
		in   any
		want string
	}{
		{mysql, nil, "NULL"},
		{mysql, "it's", "'it''s'"},
		{mysql, `a\b`, `'a\\b'`},
		{pg, `a\b`, `'a\b'`},
		{mysql, 42, "42"},
		{mysql, int64(-3), "-3"},
		{mysql, uint8(9), "9"},
		{mysql, 1.5, "1.5"},
		{mysql, true, "TRUE"},
		{mustDialect(t, "sqlserver"), true, "1"},
		{mysql, ts, "'2024-03-09 14:05:00'"},
		{mysql, []byte{0xca, 0xfe}, "X'cafe'"},
		{pg, []byte{0xca, 0xfe}, `'\xcafe'`},
		{mysql, Expression("NOW()"), "NOW()"},
		{mysql, &n, "7"},
		{mysql, (*int)(nil), "NULL"},
		{mysql, sql.NullString{String: "x", Valid: true}, "'x'"},
		{mysql, sql.NullInt64{}, "NULL"},
	}
	for _, tc := range cases {
		got, err := tc.d.Literal(tc.in)
		require.NoError(t, err, "%#v", tc.in)
		assert.Equal(t, tc.want, got, "%#v", tc.in)
	}

	_, err := mysql.Literal(map[string]int{})
	assert.Error(t, err)
}
