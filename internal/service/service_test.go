package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"supplysphere/internal/core/auth"
	"supplysphere/internal/core/database"
	"supplysphere/internal/core/session"
	"supplysphere/internal/domain"
	"supplysphere/internal/repo"
	"supplysphere/pkg/utils"
)

var meta = Meta{IP: "127.0.0.1", UserAgent: "go-test"}

type env struct {
	db        *gorm.DB
	users     *repo.UserRepo
	products  *repo.ProductRepo
	verifs    *repo.VerificationRepo
	shipments *repo.ShipmentRepo
	orders    *repo.OrderRepo
	audits    *repo.AuditRepo
	store     *session.MemoryStore
	jwter     *auth.JWTer
	auditor   *Auditor
	auth      *AuthService
	admin     *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", utils.NewID())
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, LogLevel: "silent", MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	e := &env{
		db:        db,
		users:     repo.NewUserRepo(db),
		products:  repo.NewProductRepo(db),
		verifs:    repo.NewVerificationRepo(db),
		shipments: repo.NewShipmentRepo(db),
		orders:    repo.NewOrderRepo(db),
		audits:    repo.NewAuditRepo(db),
		store:     session.NewMemoryStore(),
		jwter:     &auth.JWTer{Secret: []byte("service-test-secret-0123456789"), Issuer: "ss-test", TTL: time.Hour},
	}
	e.auditor = NewAuditor(e.audits, nil)
	e.auth = NewAuthService(e.users, e.store, e.jwter, e.auditor, nil)
	e.admin = NewUserService(e.users, e.store, e.auditor, nil)

	n, err := Seed(context.Background(), e.users, "", nil)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return e
}

func (e *env) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func (e *env) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	_, n, err := e.audits.List(context.Background(), domain.AuditFilter{Action: action})
	require.NoError(t, err)
	return n
}
