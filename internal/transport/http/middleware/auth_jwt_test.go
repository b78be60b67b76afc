package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplysphere/internal/core/auth"
	"supplysphere/internal/core/session"
	"supplysphere/internal/domain"
	mdw "supplysphere/internal/transport/http/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type body struct {
	Code int            `json:"code"`
	Msg  string         `json:"msg"`
	Data map[string]any `json:"data"`
}

type fixture struct {
	jwter *auth.JWTer
	store *session.MemoryStore
	app   *gin.Engine
}

func newFixture(roles ...string) *fixture {
	f := &fixture{
		jwter: &auth.JWTer{Secret: []byte("test-secret-key-for-unit-tests"), Issuer: "ss-test", TTL: time.Hour},
		store: session.NewMemoryStore(),
		app:   gin.New(),
	}
	f.app.GET("/protected", mdw.AuthJWT(f.jwter, f.store, roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
			"uid": c.GetString(mdw.KeyUserID), "role": c.GetString(mdw.KeyRole),
		}})
	})
	f.app.GET("/optional", mdw.OptionalAuth(f.jwter, f.store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"uid": c.GetString(mdw.KeyUserID)}})
	})
	return f
}

// login 签发 token 并写入会话
func (f *fixture) login(t *testing.T, uid string, role domain.Role) auth.Token {
	t.Helper()
	tok, err := f.jwter.Issue(uid, string(role))
	require.NoError(t, err)
	require.NoError(t, f.store.Save(context.Background(), &session.Session{
		ID:        tok.SessionID,
		User:      domain.User{ID: uid, Name: "Test " + string(role), Role: role, Status: domain.StatusActive},
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.ExpiresAt,
	}))
	return tok
}

func (f *fixture) get(t *testing.T, path, token string) body {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.app.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestAuthJWT_AllowsMatchingRole(t *testing.T) {
	f := newFixture("admin")
	tok := f.login(t, "u-admin", domain.RoleAdmin)
	b := f.get(t, "/protected", tok.Value)
	assert.Equal(t, 0, b.Code)
	assert.Equal(t, "u-admin", b.Data["uid"])
	assert.Equal(t, "admin", b.Data["role"])
}

func TestAuthJWT_ForbidsOtherRole(t *testing.T) {
	f := newFixture("admin")
	tok := f.login(t, "u-vendor", domain.RoleVendor)
	b := f.get(t, "/protected", tok.Value)
	assert.Equal(t, 403, b.Code)
}

func TestAuthJWT_MissingAndInvalidToken(t *testing.T) {
	f := newFixture()
	assert.Equal(t, 401, f.get(t, "/protected", "").Code)
	b := f.get(t, "/protected", "not-a-jwt")
	assert.Equal(t, 401, b.Code)
	assert.Equal(t, "invalid token", b.Msg)
}

func TestAuthJWT_RevokedSession(t *testing.T) {
	f := newFixture()
	tok := f.login(t, "u1", domain.RoleSupplier)
	require.Equal(t, 0, f.get(t, "/protected", tok.Value).Code)

	require.NoError(t, f.store.Delete(context.Background(), tok.SessionID))
	b := f.get(t, "/protected", tok.Value)
	assert.Equal(t, 401, b.Code)
	assert.Equal(t, "session expired", b.Msg)
}

func TestOptionalAuth(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "", f.get(t, "/optional", "").Data["uid"])
	assert.Equal(t, "", f.get(t, "/optional", "junk").Data["uid"])

	tok := f.login(t, "u9", domain.RoleAnalyst)
	assert.Equal(t, "u9", f.get(t, "/optional", tok.Value).Data["uid"])
}
