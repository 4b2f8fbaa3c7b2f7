package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateView_Up(t *testing.T) {
	view := CreateView{
		Name: "active_user",
		Query: NewQuery().
			Select("id", "name").
			From("{{%user}}").
			Where("active = ?", true),
	}
	r := newRecordingRunner("mysql")
	require.NoError(t, view.Up(context.Background(), r))
	assert.Equal(t, []string{
		"Execute CREATE VIEW {{%active_user}} AS SELECT `id`, `name` FROM {{%user}} WHERE active = TRUE",
	}, r.ops)

	r = newRecordingRunner("mysql")
	require.NoError(t, view.Down(context.Background(), r))
	assert.Equal(t, []string{"Execute DROP VIEW {{%active_user}}"}, r.ops)
}

func TestCreateView_RawQuery(t *testing.T) {
	view := CreateView{Name: "v", Query: Raw("SELECT 1")}
	r := newRecordingRunner("sqlite")
	require.NoError(t, view.Up(context.Background(), r))
	assert.Equal(t, []string{"Execute CREATE VIEW {{%v}} AS SELECT 1"}, r.ops)
}

func TestCreateView_Errors(t *testing.T) {
	r := newRecordingRunner("mysql")
	assert.ErrorIs(t, CreateView{Query: Raw("SELECT 1")}.Up(context.Background(), r), ErrMissingViewName)
	assert.ErrorIs(t, CreateView{Name: "v"}.Up(context.Background(), r), ErrMissingViewQuery)
	assert.ErrorIs(t, CreateView{}.Down(context.Background(), r), ErrMissingViewName)

	// argument count mismatch surfaces from the query
	bad := CreateView{Name: "v", Query: NewQuery().From("t").Where("a = ? AND b = ?", 1)}
	assert.Error(t, bad.Up(context.Background(), r))
	assert.Empty(t, r.ops)
}

func TestSQLStep(t *testing.T) {
	step := SQLStep{UpSQL: "INSERT INTO {{%t}} VALUES (1)"}
	r := newRecordingRunner("sqlite")
	require.NoError(t, step.Up(context.Background(), r))
	require.NoError(t, step.Down(context.Background(), r))
	assert.Equal(t, []string{"Execute INSERT INTO {{%t}} VALUES (1)"}, r.ops)
}
