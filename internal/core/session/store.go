// Package session 服务端会话：登录即写入，登出即删除；存在即视为已登录。
package session

import (
	"context"
	"time"

	"supplysphere/internal/domain"
)

const (
	KeyPrefix     = "supplysphere_user:"
	UserSetPrefix = "supplysphere_user_sessions:"
)

type Session struct {
	ID        string      `json:"id"`
	User      domain.User `json:"user"`
	IssuedAt  time.Time   `json:"issuedAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (s *Session) TTL(now time.Time) time.Duration { return s.ExpiresAt.Sub(now) }

type Store interface {
	Save(ctx context.Context, s *Session) error
	// Get 不存在/过期返回 domain.ErrSessionNotFound
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteUser 踢掉某用户全部会话，返回删除数
	DeleteUser(ctx context.Context, userID string) (int, error)
	Count(ctx context.Context) (int64, error)
}
