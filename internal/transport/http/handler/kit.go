// Package handler 各业务模块的 HTTP 入口，实现 router.APIModule / router.AdminModule。
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"supplysphere/internal/core/auth"
	"supplysphere/internal/core/session"
	"supplysphere/internal/domain"
	"supplysphere/internal/service"
	mdw "supplysphere/internal/transport/http/middleware"
)

// Kit 模块共享的鉴权中间件与日志
type Kit struct {
	Log       *zap.Logger
	Auth      func(roles ...string) gin.HandlerFunc
	Optional  gin.HandlerFunc
	AuthLimit gin.HandlerFunc // /auth/* 每 IP 限速
}

func (k Kit) limit() []gin.HandlerFunc {
	if k.AuthLimit == nil {
		return nil
	}
	return []gin.HandlerFunc{k.AuthLimit}
}

func meta(c *gin.Context) service.Meta {
	return service.Meta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func current(c *gin.Context) (*session.Session, *domain.User, error) {
	s, ok := mdw.CurrentSession(c)
	if !ok {
		return nil, nil, domain.ErrUnauthorized
	}
	return s, &s.User, nil
}

func NewKit(l *zap.Logger, j *auth.JWTer, store session.Store, authRPS float64, authBurst int) Kit {
	if l == nil {
		l = zap.NewNop()
	}
	k := Kit{
		Log:      l,
		Auth:     func(roles ...string) gin.HandlerFunc { return mdw.AuthJWT(j, store, roles...) },
		Optional: mdw.OptionalAuth(j, store),
	}
	if authRPS > 0 {
		k.AuthLimit = mdw.RateLimitPerIP(rate.Limit(authRPS), max(authBurst, 1))
	}
	return k
}
