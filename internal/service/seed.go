package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"supplysphere/internal/domain"
)

type seedUser struct {
	email, name string
	role        domain.Role
	prefs       domain.Preferences
}

var seedUsers = []seedUser{
	{"supplier@test.com", "John Supplier", domain.RoleSupplier, domain.Preferences{Theme: domain.ThemeLight, Notifications: true}},
	{"vendor@test.com", "Jane Vendor", domain.RoleVendor, domain.Preferences{Theme: domain.ThemeLight, Notifications: true}},
	{"analyst@test.com", "Mike Analyst", domain.RoleAnalyst, domain.Preferences{Theme: domain.ThemeDark, Notifications: false}},
	{"admin@test.com", "Admin User", domain.RoleAdmin, domain.Preferences{Theme: domain.ThemeDark, Notifications: true}},
}

const DefaultSeedPassword = "password"

// Seed 写入演示账号；已存在的邮箱跳过。返回新建数量
func Seed(ctx context.Context, users domain.UserRepository, password string, l *zap.Logger) (int, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if password == "" {
		password = DefaultSeedPassword
	}
	created := 0
	for _, s := range seedUsers {
		_, err := users.FindByEmail(ctx, s.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, err
		}
		u, err := CreateUser(ctx, users, RegisterInput{Email: s.email, Password: password, Name: s.name, Role: s.role}, time.Now())
		if errors.Is(err, domain.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return created, err
		}
		if s.prefs != u.Preferences {
			u.Preferences = s.prefs
			if err := users.Update(ctx, u, "theme", "notifications"); err != nil {
				return created, err
			}
		}
		created++
		l.Info("seeded user", zap.String("email", s.email), zap.String("role", string(s.role)))
	}
	return created, nil
}
