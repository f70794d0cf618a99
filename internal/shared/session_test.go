package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)

	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("token", "abc")
	sess.SetUser("7")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Welcome"})

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, sess))
	cookie := sessionCookie(t, res, manager.CookieName())
	assert.True(t, strings.HasPrefix(cookie.Value, sess.ID+"."), "cookie carries the signed id")
	assert.True(t, mr.Exists("desk:session:"+sess.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := manager.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "abc", loaded.Get("token"))
	assert.Equal(t, "7", loaded.User())
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Welcome", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	manager, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: "gone"})

	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "gone", sess.ID)
	assert.Empty(t, sess.User())
}

func TestSessionForgedCookieStartsFresh(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)
	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("7")
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: sess.ID + ".forged"})
	loaded, err := manager.Load(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)
	assert.Empty(t, loaded.User())

	other := NewSessionManager(nil, manager.CookieName(), "other-secret", time.Hour, false)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: other.sign(sess.ID)})
	loaded, err = manager.Load(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)
}

func TestSessionRenew(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)
	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("token", "abc")
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID

	manager.Renew(sess)
	require.NotEqual(t, oldID, sess.ID)
	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, sess))

	assert.False(t, mr.Exists("desk:session:"+oldID))
	assert.True(t, mr.Exists("desk:session:"+sess.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, res, manager.CookieName()))
	loaded, err := manager.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "abc", loaded.Get("token"))
}

func TestSessionDestroy(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)
	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), sess))
	require.True(t, mr.Exists("desk:session:"+sess.ID))

	manager.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, sess))
	assert.False(t, mr.Exists("desk:session:"+sess.ID))
	assert.Equal(t, -1, sessionCookie(t, res, manager.CookieName()).MaxAge)
}

func TestSessionCommitRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)
	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), sess))

	mr.FastForward(30 * time.Minute)
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), sess))
	assert.Equal(t, time.Hour, mr.TTL("desk:session:"+sess.ID))
}

func TestCSRFToken(t *testing.T) {
	manager, _ := newTestManager(t)
	csrf := NewCSRFManager("csrf-secret")
	sess, err := manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token := csrf.EnsureToken(sess)
	require.NotEmpty(t, token)
	assert.Equal(t, token, csrf.EnsureToken(sess), "token is stable within a session")

	assert.NoError(t, csrf.VerifyToken(sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(sess, token+"x"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(nil, token), ErrCSRFTokenMissing)
	assert.Empty(t, csrf.EnsureToken(nil))
}

func TestCSRFTokenRotatesWithSessionID(t *testing.T) {
	manager, _ := newTestManager(t)
	csrf := NewCSRFManager("csrf-secret")
	sess, err := manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	before := csrf.EnsureToken(sess)

	manager.Renew(sess)
	assert.ErrorIs(t, csrf.VerifyToken(sess, before), ErrCSRFTokenMismatch)
	after := csrf.EnsureToken(sess)
	assert.NotEqual(t, before, after)
	assert.NoError(t, csrf.VerifyToken(sess, after))
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(CSRFHeader, "from-header")
	assert.Equal(t, "from-header", TokenFromRequest(req))
}
