package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplysphere/internal/domain"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/ez"
	mdw "supplysphere/internal/transport/http/middleware"
)

type AuthHandler struct {
	Kit
	svc *service.AuthService
}

func NewAuthHandler(k Kit, svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Kit: k, svc: svc}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"     binding:"required,max=64"`
	Role     string `json:"role"     binding:"required"`
}

type prefsIn struct {
	Theme         string `json:"theme" binding:"required"`
	Notifications *bool  `json:"notifications"`
}

type okOut struct {
	OK bool `json:"ok"`
}

func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/auth", h.limit()...), h.Log)

	ez.RegisterAction(pub, ez.Action[loginIn, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.AuthResult, error) {
			return h.svc.Login(c.Request.Context(), in.Email, in.Password, meta(c))
		},
	})

	ez.RegisterAction(pub, ez.Action[registerIn, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *registerIn) (*service.AuthResult, error) {
			return h.svc.Register(c.Request.Context(), service.RegisterInput{
				Email: in.Email, Password: in.Password, Name: in.Name, Role: domain.Role(in.Role),
			}, meta(c))
		},
	})

	// 登出幂等：无会话也返回 ok
	opt := pub.Group("", h.Optional)
	ez.RegisterAction(opt, ez.Action[struct{}, okOut]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (okOut, error) {
			s, _ := mdw.CurrentSession(c)
			if err := h.svc.Logout(c.Request.Context(), s, meta(c)); err != nil {
				return okOut{}, err
			}
			return okOut{OK: true}, nil
		},
	})

	me := ez.New(api.Group("/me", h.Auth()), h.Log)

	ez.RegisterAction(me, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Current(c.Request.Context(), c.GetString(mdw.KeySessionID))
		},
	})

	ez.RegisterAction(me, ez.Action[prefsIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/preferences",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *prefsIn) (*domain.User, error) {
			s, u, err := current(c)
			if err != nil {
				return nil, err
			}
			p := domain.Preferences{Theme: in.Theme, Notifications: u.Preferences.Notifications}
			if in.Notifications != nil {
				p.Notifications = *in.Notifications
			}
			return h.svc.UpdatePreferences(c.Request.Context(), s, p, meta(c))
		},
	})
}
