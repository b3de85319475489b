package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetUint(ContextUserID),
			"role":    c.GetString(ContextRole),
		})
	})
	return r
}

func do(r http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	token, err := tokens.GenerateToken(7, models.RoleChef)
	require.NoError(t, err)
	r := newEngine(AuthMiddleware(tokens))

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   int
	}{
		{"bearer header", "/x", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK},
		{"query token", "/x?token=" + token, nil, http.StatusOK},
		{"missing", "/x", nil, http.StatusUnauthorized},
		{"wrong scheme", "/x", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized},
		{"garbage", "/x", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.target, tt.header)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":7,"role":"chef"}`, w.Body.String())
			}
		})
	}

	other := utils.NewTokenManager("other-secret", time.Hour)
	forged, err := other.GenerateToken(7, models.RoleAdmin)
	require.NoError(t, err)
	w := do(r, "/x", map[string]string{"Authorization": "Bearer " + forged})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleCheck(t *testing.T) {
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set(ContextRole, role)
			}
			c.Next()
		}
	}

	tests := []struct {
		role string
		want int
	}{
		{models.RoleChef, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
		{models.RoleCashier, http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		r := newEngine(withRole(tt.role), RoleCheck(models.RoleChef, models.RoleStaff))
		assert.Equal(t, tt.want, do(r, "/x", nil).Code, "role %q", tt.role)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := newEngine(rl.RateLimit())

	assert.Equal(t, http.StatusOK, do(r, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, "/x", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/x", nil).Code)

	// buckets are per client
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoggerSetsRequestID(t *testing.T) {
	r := newEngine(LoggerMiddleware(utils.NewTestLogger()))

	w := do(r, "/x", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(r, "/x", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	r := newEngine(CORSMiddlewares("https://pos.example.com"), SecurityHeaders(false))

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://pos.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, "/x", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
