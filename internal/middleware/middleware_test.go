package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/gentacalc/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	// Generated when absent
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	// Reused when valid
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "0b5e1a8e-3f8c-4c55-9a9e-2d1c4c0c6a11")
	w = serve(r, req)
	assert.Equal(t, "0b5e1a8e-3f8c-4c55-9a9e-2d1c4c0c6a11", w.Header().Get(HeaderXRequestID))

	// Replaced when garbage
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "<script>")
	w = serve(r, req)
	assert.NotEqual(t, "<script>", w.Header().Get(HeaderXRequestID))
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2, TTL: time.Minute})
	r := newEngine(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"))
	assert.Equal(t, 2, rl.Clients())
}

func TestSizeLimit(t *testing.T) {
	r := newEngine(SizeLimit(SizeLimitConfig{MaxBodySize: 16, MaxHeaderSize: 1 << 10}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sex":"female"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 17))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestErrorHandler(t *testing.T) {
	r := newEngine(ErrorHandler())
	r.GET("/validation", func(c *gin.Context) { _ = c.Error(errors.NewValidation("Vekt må være minst 35")) })
	r.GET("/rule", func(c *gin.Context) { _ = c.Error(errors.NewBusinessRule("for ung", nil)) })
	r.GET("/internal", func(c *gin.Context) { _ = c.Error(fmt.Errorf("database on fire")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/validation", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Vekt må være minst 35"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/rule", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/internal", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database")
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Intern feil"}`, w.Body.String())
}

func TestTimeout_DeadlineVisibleToHandler(t *testing.T) {
	r := newEngine(Timeout(TimeoutConfig{Duration: time.Second}))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}

func TestTimeout_Expired(t *testing.T) {
	r := newEngine(Timeout(TimeoutConfig{Duration: time.Millisecond}))
	r.GET("/", func(c *gin.Context) { <-c.Request.Context().Done() })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestCache(t *testing.T) {
	r := newEngine()
	r.GET("/api", Cache(NoStoreConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/page", Cache(StaticCacheConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/page", nil))
	assert.Equal(t, "public, max-age=300, must-revalidate", w.Header().Get("Cache-Control"))
}

func TestCORS_Preflight(t *testing.T) {
	r := newEngine(CORS(DefaultCORSConfig()))
	r.POST("/api/dose", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/dose", nil)
	req.Header.Set("Origin", "http://ward.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	r := newEngine(SecurityHeaders(DefaultSecurityConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
