package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractor-desk/contractor-desk/internal/shared"
)

func TestUserUnmarshalIDs(t *testing.T) {
	cases := map[string]string{
		`{"id":7,"name":"Admin","email":"a@x.io"}`:         "7",
		`{"id":"u-1","name":"Admin","email":"a@x.io"}`:     "u-1",
		`{"_id":"65f0c1","name":"Admin","email":"a@x.io"}`: "65f0c1",
		`{"name":"Admin","email":"a@x.io"}`:                "",
	}
	for raw, want := range cases {
		var u User
		require.NoError(t, json.Unmarshal([]byte(raw), &u), raw)
		assert.Equal(t, want, u.ID, raw)
		assert.Equal(t, "Admin", u.Name)
		assert.Equal(t, "a@x.io", u.Email)
	}
}

// exerciseStore runs the lifecycle every Store must honour.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	assert.False(t, Authenticated(s))
	_, ok := s.User()
	assert.False(t, ok)

	user := User{ID: "7", Name: "Admin", Email: "admin@example.com"}
	require.NoError(t, s.Save("tok-1", user))
	assert.True(t, Authenticated(s))
	assert.Equal(t, "tok-1", s.Token())
	got, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, user, got)

	require.NoError(t, s.Clear())
	assert.False(t, Authenticated(s))
	_, ok = s.User()
	assert.False(t, ok)
	require.NoError(t, s.Clear(), "clearing twice is harmless")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)
	assert.Equal(t, path, store.Path())
	exerciseStore(t, store)

	require.NoError(t, store.Save("tok-2", User{Name: "Ops", Email: "ops@example.com"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileStore(path)
	assert.Equal(t, "tok-2", reopened.Token())
}

func TestFileStoreIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)
	assert.Empty(t, store.Token())
	assert.False(t, Authenticated(store))
}

func newBrowserSession(t *testing.T) *shared.Session {
	t.Helper()
	manager := shared.NewSessionManager(nil, "test_session", "secret", 0, false)
	sess, err := manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return sess
}

func TestWebStore(t *testing.T) {
	sess := newBrowserSession(t)
	exerciseStore(t, NewWebStore(sess))

	store := NewWebStore(sess)
	require.NoError(t, store.Save("tok-3", User{Email: "anon@example.com"}))
	assert.Equal(t, "anon@example.com", sess.User(), "email stands in for a missing id")
	require.NoError(t, store.Clear())
	assert.Empty(t, sess.User())
}

func TestWebStoreWithoutSession(t *testing.T) {
	var store *WebStore
	assert.Empty(t, store.Token())
	assert.ErrorIs(t, NewWebStore(nil).Save("tok", User{}), shared.ErrSessionExpired)
	assert.NoError(t, NewWebStore(nil).Clear())
}

func TestContextStore(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	assert.False(t, Authenticated(FromContext(ctx)))

	store := NewMemoryStore()
	ctx = WithStore(ctx, store)
	assert.Same(t, store, FromContext(ctx))
}
