package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necessities/swap/internal/config"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 3600, []byte("0123456789abcdef0123456789abcdef")), mr
}

func TestEmbeddedRedisFallback(t *testing.T) {
	r, err := NewRedisClient(context.Background(), config.RedisConfig{}, zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.Embedded())
	require.NoError(t, r.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, "v", r.Get(context.Background(), "k").Val())
}

func TestSessionRoundTrip(t *testing.T) {
	store, mr := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, "swap_session")
	require.NoError(t, err)
	assert.True(t, session.IsNew)

	session.Values["user_id"] = "abc"
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, session))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, mr.Exists(sessionKeyPrefix+session.ID))
	assert.NotContains(t, cookies[0].Value, "abc")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := store.New(next, "swap_session")
	require.NoError(t, err)
	assert.False(t, loaded.IsNew)
	assert.Equal(t, "abc", loaded.Values["user_id"])
}

func TestSessionForgedCookieStartsFresh(t *testing.T) {
	store, _ := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "swap_session", Value: "forged"})
	session, err := store.New(req, "swap_session")
	require.NoError(t, err)
	assert.True(t, session.IsNew)
	assert.Empty(t, session.Values)
}

func TestSessionExpiredEntryStartsFresh(t *testing.T) {
	store, mr := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, _ := store.New(req, "swap_session")
	session.Values["admin"] = "x"
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, session))

	mr.FastForward(2 * time.Hour)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(rec.Result().Cookies()[0])
	loaded, err := store.New(next, "swap_session")
	require.NoError(t, err)
	assert.True(t, loaded.IsNew)
}

func TestSessionDelete(t *testing.T) {
	store, mr := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, _ := store.New(req, "swap_session")
	session.Values["user_id"] = "abc"
	require.NoError(t, store.Save(req, httptest.NewRecorder(), session))
	key := sessionKeyPrefix + session.ID

	session.Options.MaxAge = -1
	require.NoError(t, store.Save(req, httptest.NewRecorder(), session))
	assert.False(t, mr.Exists(key))
}
