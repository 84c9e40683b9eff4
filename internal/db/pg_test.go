package db

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactDSN(t *testing.T) {
	got := redactDSN("postgres://focus:hunter2@db:5432/focusnest?sslmode=disable")
	assert.NotContains(t, got, "hunter2")
	assert.Contains(t, got, "@db:5432/focusnest")
	assert.Equal(t, "(invalid DATABASE_URL)", redactDSN("postgres://[::1"))
}

func TestExtractDBName(t *testing.T) {
	u, err := url.Parse("postgres://localhost/focusnest?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "focusnest", extractDBName(u))
	assert.Equal(t, "", extractDBName(nil))
}

func TestClassifyConnectError(t *testing.T) {
	err := classifyConnectError(&pq.Error{Code: codeInvalidCatalog, Message: `database "x" does not exist`}, "x")
	assert.ErrorIs(t, err, ErrDatabaseMissing)

	err = classifyConnectError(errors.New(`pq: database "x" does not exist`), "x")
	assert.ErrorIs(t, err, ErrDatabaseMissing)

	err = classifyConnectError(&pq.Error{Code: codeInvalidAuth, Message: "password authentication failed"}, "x")
	assert.NotErrorIs(t, err, ErrDatabaseMissing)
	assert.Contains(t, err.Error(), "authentication failed")

	refused := errors.New("connection refused")
	err = classifyConnectError(refused, "x")
	assert.ErrorIs(t, err, refused)
}

func TestOpen_RejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "   ")
	assert.Error(t, err)

	_, err = Open(context.Background(), "postgres://[::1")
	assert.Error(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "00001_create_users.sql", entries[0].Name())
	assert.Equal(t, "00002_create_tasks.sql", entries[1].Name())
}
