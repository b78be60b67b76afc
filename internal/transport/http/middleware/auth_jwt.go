package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"supplysphere/internal/core/auth"
	"supplysphere/internal/core/session"
	"supplysphere/internal/domain"
	resp "supplysphere/internal/transport/http/response"
)

var errNoToken = errors.New("missing token")

func bearer(c *gin.Context) string {
	ah := c.GetHeader("Authorization")
	if !strings.HasPrefix(ah, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(ah, "Bearer "))
}

// resolve token → 会话；会话被删除（登出/封禁）即失效
func resolve(c *gin.Context, j *auth.JWTer, store session.Store) (*session.Session, error) {
	tok := bearer(c)
	if tok == "" {
		return nil, errNoToken
	}
	claims, err := j.Parse(tok)
	if err != nil {
		return nil, err
	}
	s, err := store.Get(c.Request.Context(), claims.SessionID())
	if err != nil {
		return nil, err
	}
	if s.User.ID != claims.UID {
		return nil, auth.ErrInvalidToken
	}
	return s, nil
}

func bind(c *gin.Context, s *session.Session) {
	c.Set(KeySession, s)
	c.Set(KeySessionID, s.ID)
	c.Set(KeyUserID, s.User.ID)
	c.Set(KeyUserName, s.User.Name)
	c.Set(KeyRole, string(s.User.Role))
}

// AuthJWT 要求登录；roles 非空时限定角色
func AuthJWT(j *auth.JWTer, store session.Store, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := resolve(c, j, store)
		switch {
		case errors.Is(err, errNoToken):
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		case errors.Is(err, auth.ErrInvalidToken):
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		case errors.Is(err, domain.ErrSessionNotFound):
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "session expired"))
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, "session lookup failed"))
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, string(s.User.Role)) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		bind(c, s)
		c.Next()
	}
}

// OptionalAuth 有合法会话就写入上下文，否则按游客放行
func OptionalAuth(j *auth.JWTer, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s, err := resolve(c, j, store); err == nil {
			bind(c, s)
		}
		c.Next()
	}
}

// CurrentSession 鉴权后取会话
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(KeySession)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}
