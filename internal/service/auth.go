package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"supplysphere/internal/core/auth"
	"supplysphere/internal/core/session"
	"supplysphere/internal/domain"
	"supplysphere/internal/feature/nav"
	"supplysphere/pkg/utils"
)

// bcrypt 只取前 72 字节
const MaxPasswordLen = 72

// Policy 公共注册策略
type Policy struct {
	AllowAdminSignup bool
	MinPasswordLen   int
}

func DefaultPolicy() Policy { return Policy{AllowAdminSignup: true, MinPasswordLen: 1} }

// 未知邮箱也跑一次 bcrypt，保证耗时一致
var dummyHash, _ = utils.HashPassword("supplysphere-timing-guard")

var validate = validator.New()

type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
	Redirect  string      `json:"redirect"`
	SessionID string      `json:"-"`
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

type AuthService struct {
	users    domain.UserRepository
	sessions session.Store
	jwt      *auth.JWTer
	audit    *Auditor
	policy   Policy
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(users domain.UserRepository, sessions session.Store, jwter *auth.JWTer, audit *Auditor, l *zap.Logger) *AuthService {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuthService{users: users, sessions: sessions, jwt: jwter, audit: audit, policy: DefaultPolicy(), log: l, now: time.Now}
}

// WithPolicy 替换注册策略；MinPasswordLen < 1 按 1 处理
func (s *AuthService) WithPolicy(p Policy) *AuthService {
	if p.MinPasswordLen < 1 {
		p.MinPasswordLen = 1
	}
	s.policy = p
	return s
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *AuthService) Login(ctx context.Context, email, password string, m Meta) (*AuthResult, error) {
	email = NormalizeEmail(email)
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		utils.CheckPassword(password, dummyHash)
		s.audit.Record(ctx, nil, domain.ActionLoginAttempt, email, domain.AuditFailed, "unknown email", m)
		authAttempts.WithLabelValues("login", "invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		s.audit.Record(ctx, u, domain.ActionLoginAttempt, email, domain.AuditFailed, "wrong password", m)
		authAttempts.WithLabelValues("login", "invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !u.Active() {
		s.audit.Record(ctx, u, domain.ActionLoginAttempt, email, domain.AuditFailed, "account "+string(u.Status), m)
		authAttempts.WithLabelValues("login", "disabled").Inc()
		return nil, domain.ErrAccountDisabled
	}

	now := s.now().UTC()
	u.LastLoginAt = &now
	if err := s.users.Update(ctx, u, "last_login_at"); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.audit.Record(ctx, u, domain.ActionLoginAttempt, email, domain.AuditFailed, "account removed", m)
			authAttempts.WithLabelValues("login", "invalid").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("update last login: %w", err)
	}
	res, err := s.open(ctx, u)
	if err != nil {
		return nil, err
	}
	// 会话落库后复查：与封禁/停用并发时，撤销可能早于 Save
	if err := s.recheck(ctx, u.ID, res); err != nil {
		s.audit.Record(ctx, u, domain.ActionLoginAttempt, email, domain.AuditFailed, "account changed during login", m)
		authAttempts.WithLabelValues("login", "disabled").Inc()
		return nil, err
	}
	s.audit.Record(ctx, u, domain.ActionLogin, "auth", domain.AuditSuccess, "", m)
	authAttempts.WithLabelValues("login", "ok").Inc()
	return res, nil
}

func validateRegister(in *RegisterInput, minPw int) error {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Var(in.Email, "required,email,max=255"); err != nil {
		return fmt.Errorf("%w: email", domain.ErrInvalidInput)
	}
	if in.Name == "" || len(in.Name) > 64 {
		return fmt.Errorf("%w: name", domain.ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: role", domain.ErrInvalidInput)
	}
	if len(in.Password) < minPw || len(in.Password) > MaxPasswordLen {
		return fmt.Errorf("%w: password must be %d-%d characters", domain.ErrInvalidInput, minPw, MaxPasswordLen)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, m Meta) (*AuthResult, error) {
	if err := validateRegister(&in, s.policy.MinPasswordLen); err != nil {
		authAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}
	if in.Role == domain.RoleAdmin && !s.policy.AllowAdminSignup {
		authAttempts.WithLabelValues("register", "forbidden").Inc()
		return nil, fmt.Errorf("%w: admin accounts are provisioned by operators", domain.ErrForbidden)
	}
	u, err := CreateUser(ctx, s.users, in, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			authAttempts.WithLabelValues("register", "conflict").Inc()
		}
		return nil, err
	}
	res, err := s.open(ctx, u)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, u, domain.ActionRegister, "auth", domain.AuditSuccess, string(u.Role), m)
	authAttempts.WithLabelValues("register", "ok").Inc()
	return res, nil
}

// CreateUser 直接建用户（不校验密码长度，不开会话）；供注册、CLI、种子数据复用
func CreateUser(ctx context.Context, users domain.UserRepository, in RegisterInput, now time.Time) (*domain.User, error) {
	if err := validateRegister(&in, 1); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       domain.StatusActive,
		Preferences:  domain.DefaultPreferences(),
		Permissions:  in.Role.Permissions(),
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// open 签发 token 并落会话
func (s *AuthService) open(ctx context.Context, u *domain.User) (*AuthResult, error) {
	tok, err := s.jwt.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	sess := &session.Session{ID: tok.SessionID, User: *u, IssuedAt: tok.IssuedAt, ExpiresAt: tok.ExpiresAt}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	home, _ := nav.DashboardPath(u.Role)
	return &AuthResult{Token: tok.Value, ExpiresAt: tok.ExpiresAt, User: *u, Redirect: home, SessionID: tok.SessionID}, nil
}

// recheck 用户已删除或非 active 时撤回刚开的会话
func (s *AuthService) recheck(ctx context.Context, uid string, res *AuthResult) error {
	u, err := s.users.FindByID(ctx, uid)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		err = domain.ErrInvalidCredentials
	case err != nil:
		err = fmt.Errorf("recheck user: %w", err)
	case !u.Active():
		err = domain.ErrAccountDisabled
	default:
		return nil
	}
	if derr := s.sessions.Delete(ctx, res.SessionID); derr != nil {
		s.log.Warn("drop session", zap.String("sid", res.SessionID), zap.Error(derr))
	}
	return err
}

// Logout 幂等
func (s *AuthService) Logout(ctx context.Context, sess *session.Session, m Meta) error {
	if sess == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.audit.Record(ctx, &sess.User, domain.ActionLogout, "auth", domain.AuditSuccess, "", m)
	authAttempts.WithLabelValues("logout", "ok").Inc()
	return nil
}

// Current 以库为准刷新会话快照；用户已被封禁/停用则销毁会话
func (s *AuthService) Current(ctx context.Context, sid string) (*domain.User, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	u, err := s.users.FindByID(ctx, sess.User.ID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !u.Active()) {
		_ = s.sessions.Delete(ctx, sid)
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	sess.User = *u
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Warn("refresh session snapshot", zap.String("sid", sid), zap.Error(err))
	}
	return u, nil
}

func (s *AuthService) UpdatePreferences(ctx context.Context, sess *session.Session, p domain.Preferences, m Meta) (*domain.User, error) {
	if !domain.ValidTheme(p.Theme) {
		return nil, fmt.Errorf("%w: theme must be light or dark", domain.ErrInvalidInput)
	}
	u, err := s.users.FindByID(ctx, sess.User.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	u.Preferences = p
	if err := s.users.Update(ctx, u, "theme", "notifications"); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	sess.User = *u
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Warn("refresh session snapshot", zap.String("sid", sess.ID), zap.Error(err))
	}
	s.audit.Record(ctx, u, domain.ActionUpdatePrefs, "user/"+u.ID, domain.AuditSuccess, p.Theme, m)
	return u, nil
}
