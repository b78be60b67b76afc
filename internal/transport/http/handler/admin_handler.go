package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplysphere/internal/domain"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/ez"
	resp "supplysphere/internal/transport/http/response"
)

// AdminHandler 挂在 /admin/v1（分组已要求 admin 角色）
type AdminHandler struct {
	Kit
	users  *service.UserService
	audit  *service.Auditor
	system *service.SystemService
}

func NewAdminHandler(k Kit, users *service.UserService, audit *service.Auditor, system *service.SystemService) *AdminHandler {
	return &AdminHandler{Kit: k, users: users, audit: audit, system: system}
}

type listUsersIn struct {
	Offset      int    `form:"offset" binding:"min=0"`
	Limit       int    `form:"limit"  binding:"min=0,max=100"`
	Q           string `form:"q"`
	Role        string `form:"role"`
	Status      string `form:"status"`
	WithDeleted bool   `form:"with_deleted"`
}

type statusIn struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
}

type roleIn struct {
	Role string `json:"role" binding:"required,oneof=supplier vendor analyst admin"`
}

type auditIn struct {
	Offset int    `form:"offset" binding:"min=0"`
	Limit  int    `form:"limit"  binding:"min=0,max=100"`
	UserID string `form:"user_id"`
	Action string `form:"action"`
	Status string `form:"status"`
}

type banOut struct {
	ID     string `json:"id"`
	Banned bool   `json:"banned"`
}

func (h *AdminHandler) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g, h.Log)

	ez.RegisterAction(e, ez.Action[listUsersIn, resp.Page[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *listUsersIn) (resp.Page[domain.User], error) {
			items, total, err := h.users.List(c.Request.Context(), domain.UserFilter{
				Q: in.Q, Role: domain.Role(in.Role), Status: domain.Status(in.Status),
				WithDeleted: in.WithDeleted, Offset: in.Offset, Limit: in.Limit,
			})
			if err != nil {
				return resp.Page[domain.User]{}, err
			}
			return resp.NewPage(items, total), nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.users.Get(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[statusIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/status",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *statusIn) (*domain.User, error) {
			_, actor, err := current(c)
			if err != nil {
				return nil, err
			}
			return h.users.SetStatus(c.Request.Context(), actor, c.Param("id"), domain.Status(in.Status), meta(c))
		},
	})

	ez.RegisterAction(e, ez.Action[roleIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/role",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *roleIn) (*domain.User, error) {
			_, actor, err := current(c)
			if err != nil {
				return nil, err
			}
			return h.users.SetRole(c.Request.Context(), actor, c.Param("id"), domain.Role(in.Role), meta(c))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, banOut]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (banOut, error) {
			_, actor, err := current(c)
			if err != nil {
				return banOut{}, err
			}
			if err := h.users.Ban(c.Request.Context(), actor, c.Param("id"), meta(c)); err != nil {
				return banOut{}, err
			}
			return banOut{ID: c.Param("id"), Banned: true}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *service.Overview]{
		Method: http.MethodGet,
		Path:   "/overview",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Overview, error) {
			return h.users.Overview(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []service.Metric]{
		Method: http.MethodGet,
		Path:   "/system",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]service.Metric, error) {
			return h.system.Snapshot(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[auditIn, resp.Page[domain.AuditLog]]{
		Method: http.MethodGet,
		Path:   "/audit",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *auditIn) (resp.Page[domain.AuditLog], error) {
			items, total, err := h.audit.List(c.Request.Context(), domain.AuditFilter{
				UserID: in.UserID, Action: in.Action, Status: domain.AuditStatus(in.Status),
				Offset: in.Offset, Limit: in.Limit,
			})
			if err != nil {
				return resp.Page[domain.AuditLog]{}, err
			}
			return resp.NewPage(items, total), nil
		},
	})
}
