package credentials_test

import (
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/kbchat/internal/credentials"
	"github.com/raphaelgruber/kbchat/internal/kvstore"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*credentials.Store, *kvstore.Store) {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)
	return credentials.NewStore(kv, nil), kv
}

func TestGetEmpty(t *testing.T) {
	store, _ := newStore(t)

	_, ok := store.Get()
	assert.False(t, ok)
	assert.Empty(t, store.Token())
}

func TestSetGetClear(t *testing.T) {
	store, kv := newStore(t)

	cred := models.Credential{
		Token: "jwt-token",
		User:  models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
	}
	require.NoError(t, store.Set(cred))

	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, cred, got)
	assert.Equal(t, "jwt-token", store.Token())

	// Survives a restart of the process
	reopened, err := kvstore.Open(kv.Path())
	require.NoError(t, err)
	got, ok = credentials.NewStore(reopened, nil).Get()
	require.True(t, ok)
	assert.Equal(t, cred, got)

	require.NoError(t, store.Clear())
	_, ok = store.Get()
	assert.False(t, ok)
}

func TestGetRequiresBothKeys(t *testing.T) {
	store, kv := newStore(t)

	require.NoError(t, kv.Set(credentials.KeyToken, "jwt-token"))
	_, ok := store.Get()
	assert.False(t, ok, "token without profile is not a session")

	require.NoError(t, kv.Set(credentials.KeyUser, "{not json"))
	_, ok = store.Get()
	assert.False(t, ok, "unreadable profile is not a session")

	require.NoError(t, kv.Set(credentials.KeyUser, `{"name":"Ada","email":"ada@example.com"}`))
	cred, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "Ada", cred.User.Name)
}

func TestSetRejectsEmptyToken(t *testing.T) {
	store, _ := newStore(t)
	assert.Error(t, store.Set(models.Credential{User: models.User{Name: "Ada"}}))
}
