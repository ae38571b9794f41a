package session

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/crypto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sessions.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	enc, err := crypto.NewEncryptorFromSecret([]byte("test secret"), crypto.PurposeUserKey)
	require.NoError(t, err)

	m, err := NewManager(sqlDB, config.Session{Lifetime: time.Hour, SecureCookies: false}, enc)
	require.NoError(t, err)
	return m, db
}

func keyRouter(m *Manager) *gin.Engine {
	r := gin.New()
	r.Use(m.LoadAndSave())
	r.PUT("/key", func(c *gin.Context) {
		if err := m.PutUserKey(c.Request.Context(), c.Query("v")); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/key", func(c *gin.Context) {
		key, err := m.UserKey(c.Request.Context())
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.String(http.StatusOK, key)
	})
	r.DELETE("/key", func(c *gin.Context) {
		m.DeleteUserKey(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return r
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestNewManager_CookieSettings(t *testing.T) {
	m, _ := setupManager(t)

	assert.Equal(t, CookieName, m.Cookie.Name)
	assert.True(t, m.Cookie.HttpOnly)
	assert.False(t, m.Cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, m.Cookie.SameSite)
	assert.Equal(t, time.Hour, m.Lifetime)
}

func TestManager_UserKeyLifecycle(t *testing.T) {
	m, db := setupManager(t)
	router := keyRouter(m)
	const apiKey = "sk-or-v1-supersecret"

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/key?v="+apiKey, nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	cookie := sessionCookie(t, rr)

	req := httptest.NewRequest(http.MethodGet, "/key", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, apiKey, rr.Body.String())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	rows, err := sqlDB.Query("SELECT data FROM sessions")
	require.NoError(t, err)
	var stored int
	for rows.Next() {
		var data []byte
		require.NoError(t, rows.Scan(&data))
		assert.NotContains(t, string(data), apiKey, "key must be encrypted at rest")
		stored++
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, 1, stored)

	req = httptest.NewRequest(http.MethodDelete, "/key", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/key", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestManager_RejectsEmptyKey(t *testing.T) {
	m, _ := setupManager(t)

	rr := httptest.NewRecorder()
	keyRouter(m).ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/key?v=%20", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestManager_NoKeyWithoutSession(t *testing.T) {
	m, _ := setupManager(t)

	rr := httptest.NewRecorder()
	keyRouter(m).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/key", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "********cdef", MaskKey("sk-or-abcdef"))
	assert.Equal(t, "***", MaskKey("abc"))
}

func csrfRouter(reached *bool) *gin.Engine {
	r := gin.New()
	r.Use(CSRFMiddleware([]byte("0123456789abcdef0123456789abcdef"), false, "/api/session/"))
	r.GET("/api/csrf", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": Token(c)})
	})
	r.POST("/api/thing", func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusOK)
	})
	r.PUT("/api/session/key", func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusOK)
	})
	return r
}

func TestCSRFMiddleware_SetsTokenOnGET(t *testing.T) {
	var reached bool
	rr := httptest.NewRecorder()
	csrfRouter(&reached).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"token":"`)
	assert.NotContains(t, rr.Body.String(), `"token":""`)
}

func TestCSRFMiddleware_SkipsRequestsWithoutSession(t *testing.T) {
	var reached bool
	rr := httptest.NewRecorder()
	csrfRouter(&reached).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/thing", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, reached)
}

func TestCSRFMiddleware_ProtectsSessionCreationWithoutCookie(t *testing.T) {
	var reached bool
	router := csrfRouter(&reached)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/session/key", strings.NewReader(`{"apiKey":"sk-or-attacker"}`)))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, reached)
	assert.Contains(t, rr.Body.String(), "CSRF_FAILED")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	body := rr.Body.String()
	token := body[strings.Index(body, `"token":"`)+len(`"token":"`) : strings.LastIndex(body, `"`)]

	req := httptest.NewRequest(http.MethodPut, "/api/session/key", strings.NewReader(`{"apiKey":"sk-or-mine"}`))
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set(TokenHeader, token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, reached)
}

func TestCSRFMiddleware_BlocksSessionPOSTWithoutToken(t *testing.T) {
	var reached bool
	req := httptest.NewRequest(http.MethodPost, "/api/thing", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})
	rr := httptest.NewRecorder()
	csrfRouter(&reached).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, reached)
	assert.Contains(t, rr.Body.String(), "CSRF_FAILED")
}

func TestCSRFMiddleware_AcceptsValidToken(t *testing.T) {
	var reached bool
	router := csrfRouter(&reached)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	body := rr.Body.String()
	token := body[strings.Index(body, `"token":"`)+len(`"token":"`) : strings.LastIndex(body, `"`)]

	req := httptest.NewRequest(http.MethodPost, "/api/thing", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})
	req.Header.Set(TokenHeader, token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, reached)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(), StrictTransportSecurityMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, wait := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "limits are per client")

	now = now.Add(time.Minute)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "window resets")

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.windows)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.POST("/generate", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/generate", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/generate", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "Wait a minute")
}
