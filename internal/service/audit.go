package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"supplysphere/internal/domain"
	"supplysphere/pkg/utils"
)

// Meta 请求来源（审计用）
type Meta struct {
	IP        string
	UserAgent string
}

// Auditor 写审计日志；写失败只记日志，不影响业务
type Auditor struct {
	repo domain.AuditRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewAuditor(repo domain.AuditRepository, l *zap.Logger) *Auditor {
	if l == nil {
		l = zap.NewNop()
	}
	return &Auditor{repo: repo, log: l, now: time.Now}
}

func (a *Auditor) Record(ctx context.Context, u *domain.User, action, resource string, st domain.AuditStatus, details string, m Meta) {
	if a == nil || a.repo == nil {
		return
	}
	e := &domain.AuditLog{
		ID:        utils.NewID(),
		Action:    action,
		Resource:  resource,
		Timestamp: a.now().UTC(),
		IPAddress: m.IP,
		UserAgent: m.UserAgent,
		Status:    st,
		Details:   details,
	}
	if u != nil {
		e.UserID, e.UserName = u.ID, u.Name
	}
	if err := a.repo.Create(context.WithoutCancel(ctx), e); err != nil {
		a.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (a *Auditor) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLog, int64, error) {
	return a.repo.List(ctx, f)
}
