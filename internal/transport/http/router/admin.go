package router

import (
	"github.com/gin-gonic/gin"

	"supplysphere/internal/domain"
	mdw "supplysphere/internal/transport/http/middleware"
)

func NewAdminEngine(o Options, reg *Registry) *gin.Engine {
	r := base(o)

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(o.JWT, o.Sessions, string(domain.RoleAdmin)))
	reg.MountAdmin(admin)
	return r
}
