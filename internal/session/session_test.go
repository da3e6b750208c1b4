package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necessities/swap/internal/cache"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(sessions.Sessions("swap_session", cache.NewRedisStore(client, 3600, []byte("0123456789abcdef0123456789abcdef"))))
	r.POST("/user/:id", func(c *gin.Context) {
		require.NoError(t, SetUser(c, c.Param("id")))
		c.Status(http.StatusNoContent)
	})
	r.POST("/admin/:id", func(c *gin.Context) {
		require.NoError(t, SetAdmin(c, c.Param("id")))
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		require.NoError(t, ClearUser(c))
		c.Status(http.StatusNoContent)
	})
	r.GET("/whoami", func(c *gin.Context) {
		id := Load(c)
		c.JSON(http.StatusOK, gin.H{"user": id.UserID, "admin": id.AdminID})
	})
	return r
}

func do(r http.Handler, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestIdentityKeysAreIndependent(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodGet, "/whoami", nil)
	assert.JSONEq(t, `{"user":"","admin":""}`, rec.Body.String())

	cookies := do(r, http.MethodPost, "/user/u1", nil).Result().Cookies()
	require.NotEmpty(t, cookies)

	do(r, http.MethodPost, "/admin/a1", cookies)
	rec = do(r, http.MethodGet, "/whoami", cookies)
	assert.JSONEq(t, `{"user":"u1","admin":"a1"}`, rec.Body.String())

	do(r, http.MethodPost, "/logout", cookies)
	rec = do(r, http.MethodGet, "/whoami", cookies)
	assert.JSONEq(t, `{"user":"","admin":"a1"}`, rec.Body.String())
}
