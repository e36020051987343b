package session

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return NewPostgresStore(mock), mock
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newPostgresStore(t)

	user, _ := json.Marshal(Message{Role: RoleUser, Content: "hi"})
	assistant, _ := json.Marshal(Message{Role: RoleAssistant, Content: "hello"})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT message FROM chat_messages WHERE session_id = $1 ORDER BY id`)).
		WithArgs("s1").
		WillReturnRows(mock.NewRows([]string{"message"}).AddRow(user).AddRow(assistant))

	msgs, ok, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, msgs)
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT message FROM chat_messages`)).
		WithArgs("nope").
		WillReturnRows(mock.NewRows([]string{"message"}))

	msgs, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, msgs)
}

func TestPostgresStore_Append(t *testing.T) {
	store, mock := newPostgresStore(t)

	msgs := []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleTool, ToolCallID: "c1", Content: "{}"}}
	encoded := make([]string, 0, len(msgs))
	for _, m := range msgs {
		b, _ := json.Marshal(m)
		encoded = append(encoded, string(b))
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chat_messages (session_id, message)`)).
		WithArgs("s1", encoded).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	require.NoError(t, store.Append(context.Background(), "s1", msgs...))
	require.NoError(t, store.Append(context.Background(), "s1"))
}

func TestPostgresStore_AppendError(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chat_messages`)).
		WithArgs("s1", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := store.Append(context.Background(), "s1", Message{Role: RoleUser, Content: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_Clear(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "existing session", affected: 3, want: true},
		{name: "missing session", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newPostgresStore(t)

			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM chat_messages WHERE session_id = $1`)).
				WithArgs("s1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			got, err := store.Clear(context.Background(), "s1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT session_id FROM chat_messages ORDER BY session_id`)).
		WillReturnRows(mock.NewRows([]string{"session_id"}).AddRow("a").AddRow("default"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "default"}, ids)
}

func TestPostgresStore_Ping(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir(migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	b, err := migrationsFS.ReadFile(migrationsDir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.Contains(t, string(b), "CREATE TABLE IF NOT EXISTS chat_messages")
}
