package kvstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/kbchat/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	store, err := kvstore.Open(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)

	_, ok := store.Get("token")
	assert.False(t, ok)
}

func TestSetPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")

	store, err := kvstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("token", "abc"))
	require.NoError(t, store.SetMany(map[string]string{"user": `{"name":"Ada"}`, "theme": "dark"}))

	reopened, err := kvstore.Open(path)
	require.NoError(t, err)

	v, ok := reopened.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = reopened.Get("user")
	assert.True(t, ok)
	assert.Equal(t, `{"name":"Ada"}`, v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "state file holds a bearer token")
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	store, err := kvstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetMany(map[string]string{"token": "abc", "user": "u", "keep": "k"}))
	require.NoError(t, store.Remove("token", "user", "never-set"))

	reopened, err := kvstore.Open(path)
	require.NoError(t, err)

	_, ok := reopened.Get("token")
	assert.False(t, ok)
	_, ok = reopened.Get("user")
	assert.False(t, ok)
	v, ok := reopened.Get("keep")
	assert.True(t, ok)
	assert.Equal(t, "k", v)
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, err := kvstore.Open(path)
	assert.Error(t, err)
}
