package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/nav"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/ez"
	mdw "supplysphere/internal/transport/http/middleware"
)

// NavHandler 路由守卫 / 侧边栏菜单 / 角色仪表盘
type NavHandler struct {
	Kit
	dash *service.DashboardService
}

func NewNavHandler(k Kit, dash *service.DashboardService) *NavHandler {
	return &NavHandler{Kit: k, dash: dash}
}

type redirectIn struct {
	Path string `form:"path"`
}

type menuOut struct {
	Role  domain.Role `json:"role"`
	Home  string      `json:"home"`
	Items []nav.Item  `json:"items"`
}

func (h *NavHandler) MountAPI(api *gin.RouterGroup) {
	opt := ez.New(api.Group("/nav", h.Optional), h.Log)
	ez.RegisterAction(opt, ez.Action[redirectIn, nav.Decision]{
		Method: http.MethodGet,
		Path:   "/redirect",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *redirectIn) (nav.Decision, error) {
			s, ok := mdw.CurrentSession(c)
			if !ok {
				return nav.Resolve(in.Path, nil), nil
			}
			return nav.Resolve(in.Path, &s.User), nil
		},
	})

	authed := ez.New(api.Group("", h.Auth()), h.Log)
	ez.RegisterAction(authed, ez.Action[struct{}, menuOut]{
		Method: http.MethodGet,
		Path:   "/nav/menu",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (menuOut, error) {
			role := domain.Role(c.GetString(mdw.KeyRole))
			items, ok := nav.Menu(role)
			if !ok {
				return menuOut{}, domain.ErrForbidden
			}
			home, _ := nav.DashboardPath(role)
			return menuOut{Role: role, Home: home, Items: items}, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, *service.Summary]{
		Method: http.MethodGet,
		Path:   "/dashboard/summary",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Summary, error) {
			_, u, err := current(c)
			if err != nil {
				return nil, err
			}
			return h.dash.Summary(c.Request.Context(), u)
		},
	})
}
