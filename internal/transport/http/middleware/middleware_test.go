package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func code(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var b struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b.Code
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.0001, 2))
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) })

	a := map[string]string{"X-Forwarded-For": "10.0.0.1"}
	assert.Equal(t, 0, code(t, serve(r, http.MethodGet, "/", a)))
	assert.Equal(t, 0, code(t, serve(r, http.MethodGet, "/", a)))
	assert.Equal(t, 429, code(t, serve(r, http.MethodGet, "/", a)))
}

func TestRateLimitGlobal(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0.0001, 1))
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) })
	assert.Equal(t, 0, code(t, serve(r, http.MethodGet, "/", nil)))
	assert.Equal(t, 429, code(t, serve(r, http.MethodGet, "/", nil)))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w := serve(r, http.MethodGet, "/", map[string]string{KeyRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(KeyRequestID))
	assert.Equal(t, "abc", w.Body.String())

	w = serve(r, http.MethodGet, "/", nil)
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	assert.Equal(t, 504, code(t, serve(r, http.MethodGet, "/slow", nil)))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })
	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, code(t, w))
}

func TestMaskQuery(t *testing.T) {
	out := maskQuery(map[string][]string{"Password": {"hunter2"}, "q": {"tomato"}})
	assert.Equal(t, []string{"****"}, out["Password"])
	assert.Equal(t, []string{"tomato"}, out["q"])
}
