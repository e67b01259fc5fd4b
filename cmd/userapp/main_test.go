package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-user-cache/pkg/testsupport"
	"github.com/goliatone/go-user-cache/user"
)

func setupEnv(t *testing.T, baseURL string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "users.db")
	t.Setenv("USERAPP_DATABASE_PATH", dbPath)
	t.Setenv("USERAPP_REMOTE_BASE_URL", baseURL)
	t.Setenv("USERAPP_LOG_LEVEL", "error")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	_, err := newCLI(&out).app.Parse(args)
	return out.String(), err
}

func TestCommands_GetRefreshStats(t *testing.T) {
	srv := testsupport.NewUserServer(t, user.DTO{ID: "42", Name: "Ada"})
	dbPath := setupEnv(t, srv.URL)

	out, err := run(t, "get", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","name":"Ada"}`, out)

	out, err = run(t, "get", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","name":"Ada"}`, out)
	assert.Equal(t, 1, srv.Calls("42"), "second get is served from the local cache")

	srv.Put(user.DTO{ID: "42", Name: "Ada Lovelace"})
	out, err = run(t, "refresh", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","name":"Ada Lovelace"}`, out)

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "database:       "+dbPath)
	assert.Contains(t, out, "schema version: 1")
	assert.Contains(t, out, "cached users:   1")
}

func TestCommands_GetMissingUser(t *testing.T) {
	srv := testsupport.NewUserServer(t)
	setupEnv(t, srv.URL)

	out, err := run(t, "get", "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.Empty(t, out)
}

func TestCommands_Migrate(t *testing.T) {
	srv := testsupport.NewUserServer(t)
	setupEnv(t, srv.URL)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "cached users:   0")
}

func TestNewServer_ReleaseMode(t *testing.T) {
	srv := testsupport.NewUserServer(t)
	setupEnv(t, srv.URL)
	t.Setenv("USERAPP_SERVER_ADDR", "127.0.0.1:18080")

	previous := gin.Mode()
	t.Cleanup(func() { gin.SetMode(previous) })

	c := newCLI(&bytes.Buffer{})
	container, err := c.newContainer()
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	server := newServer(context.Background(), container)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
	assert.Equal(t, "127.0.0.1:18080", server.Addr)
	assert.NotNil(t, server.Handler)
}
