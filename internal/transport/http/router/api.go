package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"supplysphere/internal/core/auth"
	"supplysphere/internal/core/config"
	"supplysphere/internal/core/server"
	"supplysphere/internal/core/session"
	mdw "supplysphere/internal/transport/http/middleware"
)

type Options struct {
	Log         *zap.Logger
	CORSOrigins []string
	Limits      config.Limits
	JWT         *auth.JWTer
	Sessions    session.Store
}

// base 两个 engine 共用的中间件链 + /health + /metrics
func base(o Options) *gin.Engine {
	l := o.Limits
	if l.RPS <= 0 {
		l.RPS, l.Burst = 200, 400
	}
	if l.MaxConcurrent <= 0 {
		l.MaxConcurrent = 300
	}
	if l.MaxBodyMB <= 0 {
		l.MaxBodyMB = 16
	}
	if l.TimeoutSec <= 0 {
		l.TimeoutSec = 10
	}

	r := server.NewRouter(o.Log, o.CORSOrigins)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(l.RPS), l.Burst),
		mdw.ConcurrencyLimit(l.MaxConcurrent),
		mdw.MaxBodyBytes(l.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(l.TimeoutSec)*time.Second),
		mdw.Recovery(o.Log),
		mdw.Metrics(),
		mdw.AccessLog(o.Log),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())
	return r
}

func NewAPIEngine(o Options, reg *Registry) *gin.Engine {
	r := base(o)
	api := r.Group("/api/v1")
	reg.MountAPI(api)
	return r
}
