package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"supplysphere/internal/core/session"
	"supplysphere/internal/domain"
)

type Overview struct {
	TotalUsers       int64                 `json:"totalUsers"`
	ActiveUsers      int64                 `json:"activeUsers"`
	InactiveUsers    int64                 `json:"inactiveUsers"`
	SuspendedUsers   int64                 `json:"suspendedUsers"`
	RoleDistribution map[domain.Role]int64 `json:"roleDistribution"`
	ActiveSessions   int64                 `json:"activeSessions"`
}

// UserService 管理端用户运维
type UserService struct {
	users    domain.UserRepository
	sessions session.Store
	audit    *Auditor
	log      *zap.Logger
}

func NewUserService(users domain.UserRepository, sessions session.Store, audit *Auditor, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{users: users, sessions: sessions, audit: audit, log: l}
}

func (s *UserService) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, 0, fmt.Errorf("%w: role", domain.ErrInvalidInput)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: status", domain.ErrInvalidInput)
	}
	return s.users.List(ctx, f)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) target(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if actor != nil && actor.ID == id {
		return nil, fmt.Errorf("%w: cannot modify your own account", domain.ErrForbidden)
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) revoke(ctx context.Context, uid string) int {
	n, err := s.sessions.DeleteUser(ctx, uid)
	if err != nil {
		s.log.Warn("revoke sessions", zap.String("uid", uid), zap.Error(err))
	}
	return n
}

// SetStatus 非 active 时踢掉该用户全部会话
func (s *UserService) SetStatus(ctx context.Context, actor *domain.User, id string, st domain.Status, m Meta) (*domain.User, error) {
	if !st.Valid() {
		return nil, fmt.Errorf("%w: status", domain.ErrInvalidInput)
	}
	u, err := s.target(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	prev := u.Status
	u.Status = st
	if err := s.users.Update(ctx, u, "status"); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	detail := fmt.Sprintf("%s -> %s", prev, st)
	if st != domain.StatusActive {
		detail += fmt.Sprintf(", %d sessions revoked", s.revoke(ctx, u.ID))
	}
	s.audit.Record(ctx, actor, domain.ActionUpdateStatus, "user/"+u.ID, domain.AuditSuccess, detail, m)
	return u, nil
}

// SetRole 重置权限并踢会话
func (s *UserService) SetRole(ctx context.Context, actor *domain.User, id string, r domain.Role, m Meta) (*domain.User, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role", domain.ErrInvalidInput)
	}
	u, err := s.target(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	prev := u.Role
	u.Role = r
	u.Permissions = r.Permissions()
	if err := s.users.Update(ctx, u, "role", "permissions"); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	n := s.revoke(ctx, u.ID)
	s.audit.Record(ctx, actor, domain.ActionUpdateRole, "user/"+u.ID, domain.AuditSuccess,
		fmt.Sprintf("%s -> %s, %d sessions revoked", prev, r, n), m)
	return u, nil
}

// Ban 软删除 + 踢会话
func (s *UserService) Ban(ctx context.Context, actor *domain.User, id string, m Meta) error {
	u, err := s.target(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.users.SoftDelete(ctx, u.ID); err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	n := s.revoke(ctx, u.ID)
	s.audit.Record(ctx, actor, domain.ActionBanUser, "user/"+u.ID, domain.AuditWarning,
		fmt.Sprintf("%s banned, %d sessions revoked", u.Email, n), m)
	return nil
}

func (s *UserService) Overview(ctx context.Context) (*Overview, error) {
	roles, statuses, err := s.users.CountBy(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	o := &Overview{
		ActiveUsers:      statuses[domain.StatusActive],
		InactiveUsers:    statuses[domain.StatusInactive],
		SuspendedUsers:   statuses[domain.StatusSuspended],
		RoleDistribution: roles,
	}
	for _, n := range statuses {
		o.TotalUsers += n
	}
	if n, err := s.sessions.Count(ctx); err == nil {
		o.ActiveSessions = n
	} else {
		s.log.Warn("count sessions", zap.Error(err))
	}
	return o, nil
}
