// Package app 组装依赖：DB、会话存储、服务、HTTP 模块。
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"supplysphere/internal/core/auth"
	"supplysphere/internal/core/cache"
	"supplysphere/internal/core/config"
	"supplysphere/internal/core/database"
	"supplysphere/internal/core/session"
	"supplysphere/internal/repo"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/handler"
	"supplysphere/internal/transport/http/router"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	RDB      *redis.Client // session.backend=memory 且未配 redis 时为 nil
	Sessions session.Store
	JWT      *auth.JWTer

	Users    *repo.UserRepo
	Auth     *service.AuthService
	Admin    *service.UserService
	Registry *router.Registry
}

func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
}

func OpenRedis(ctx context.Context, c config.Redis) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", c.Addr, err)
	}
	return rdb, nil
}

// New 打开外部依赖并装配全部模块
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		if rdb, err = OpenRedis(ctx, cfg.Redis); err != nil {
			if cfg.Session.Backend == "redis" {
				return nil, err
			}
			l.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			rdb = nil
		}
	}
	return Assemble(ctx, cfg, l, db, rdb)
}

// Assemble 在已打开的 DB/Redis 上装配（测试直接用）
func Assemble(ctx context.Context, cfg *config.Config, l *zap.Logger, db *gorm.DB, rdb *redis.Client) (*App, error) {
	a := &App{Cfg: cfg, Log: l, DB: db, RDB: rdb}

	switch {
	case cfg.Session.Backend == "redis" && rdb != nil:
		a.Sessions = session.NewRedisStore(rdb)
	case cfg.Session.Backend == "redis":
		return nil, fmt.Errorf("session backend redis needs a redis client")
	default:
		a.Sessions = session.NewMemoryStore()
	}
	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	a.Users = repo.NewUserRepo(db)
	products := repo.NewProductRepo(db)
	verifs := repo.NewVerificationRepo(db)
	orders := repo.NewOrderRepo(db)
	auditor := service.NewAuditor(repo.NewAuditRepo(db), l)

	a.Auth = service.NewAuthService(a.Users, a.Sessions, a.JWT, auditor, l).WithPolicy(service.Policy{
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
		MinPasswordLen:   cfg.Auth.MinPasswordLen,
	})
	a.Admin = service.NewUserService(a.Users, a.Sessions, auditor, l)
	dash := service.NewDashboardService(products, verifs, repo.NewShipmentRepo(db), orders, a.Admin,
		cache.New(rdb, cfg.App.Name+":"), time.Duration(cfg.Cache.DashboardTTLSec)*time.Second)
	verify := service.NewVerifyService(products, verifs, auditor)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	system := service.NewSystemService(sqlDB, a.Sessions)

	if cfg.Seed.Enable {
		n, err := service.Seed(ctx, a.Users, cfg.Seed.DefaultPassword, l)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		l.Info("seed done", zap.Int("created", n))
	}

	kit := handler.NewKit(l, a.JWT, a.Sessions, cfg.Limits.AuthRPS, cfg.Limits.AuthBurst)
	a.Registry = router.NewRegistry(
		handler.NewAuthHandler(kit, a.Auth),
		handler.NewNavHandler(kit, dash),
		handler.NewProductHandler(kit, db, products, dash),
		handler.NewVerifyHandler(kit, verify, dash),
		handler.NewShipmentHandler(kit, db, products, dash),
		handler.NewOrderHandler(kit, db, products, service.NewOrderService(orders, auditor), dash),
		handler.NewAdminHandler(kit, a.Admin, auditor, system),
	)
	return a, nil
}

func (a *App) RouterOptions() router.Options {
	return router.Options{
		Log:         a.Log,
		CORSOrigins: a.Cfg.App.CORSOrigins,
		Limits:      a.Cfg.Limits,
		JWT:         a.JWT,
		Sessions:    a.Sessions,
	}
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
