package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/product"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/ez"
	mdw "supplysphere/internal/transport/http/middleware"
	resp "supplysphere/internal/transport/http/response"
)

// ProductHandler 供应商产品（owner 隔离 CRUD）+ 跨供应商检索
type ProductHandler struct {
	Kit
	db       *gorm.DB
	products domain.ProductRepository
	dash     *service.DashboardService
}

func NewProductHandler(k Kit, db *gorm.DB, products domain.ProductRepository, dash *service.DashboardService) *ProductHandler {
	return &ProductHandler{Kit: k, db: db, products: products, dash: dash}
}

type searchIn struct {
	Q        string `form:"q"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Offset   int    `form:"offset" binding:"min=0"`
	Limit    int    `form:"limit"  binding:"min=0,max=100"`
}

func (h *ProductHandler) MountAPI(api *gin.RouterGroup) {
	authed := ez.New(api.Group("", h.Auth()), h.Log)

	ez.RegisterAction(authed, ez.Action[searchIn, resp.Page[domain.Product]]{
		Method: http.MethodGet,
		Path:   "/products/search",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  []string{string(domain.RoleVendor), string(domain.RoleAnalyst), string(domain.RoleAdmin)},
		Handler: func(c *gin.Context, in *searchIn) (resp.Page[domain.Product], error) {
			st := domain.ProductStatus(in.Status)
			if st != "" && !st.Valid() {
				return resp.Page[domain.Product]{}, ez.BadRequest("invalid status")
			}
			items, total, err := h.products.Search(c.Request.Context(), domain.ProductFilter{
				Q: strings.TrimSpace(in.Q), Status: st, Category: in.Category, Offset: in.Offset, Limit: in.Limit,
			})
			if err != nil {
				return resp.Page[domain.Product]{}, err
			}
			return resp.NewPage(items, total), nil
		},
	})

	prepare := func(c *gin.Context, m *product.ProductModel) error {
		if strings.TrimSpace(m.Supplier) == "" {
			m.Supplier = c.GetString(mdw.KeyUserName)
		}
		return m.Prepare()
	}
	ez.Crud(ez.CrudConfig[product.ProductModel]{
		DB:    h.db,
		EZ:    authed,
		Path:  "/products",
		New:   func() *product.ProductModel { return &product.ProductModel{} },
		Roles: []string{string(domain.RoleSupplier)},
		Hooks: ez.CrudHooks[product.ProductModel]{
			BeforeCreate: prepare,
			BeforeUpdate: func(c *gin.Context, _, m *product.ProductModel) error { return prepare(c, m) },
			ScopeList: func(c *gin.Context, q *gorm.DB) *gorm.DB {
				if s := c.Query("status"); s != "" {
					q = q.Where("status = ?", s)
				}
				if cat := c.Query("category"); cat != "" {
					q = q.Where("category = ?", cat)
				}
				if kw := strings.ToLower(strings.TrimSpace(c.Query("q"))); kw != "" {
					q = q.Where("LOWER(name) LIKE ? OR LOWER(batch_id) LIKE ?", "%"+kw+"%", "%"+kw+"%")
				}
				return q
			},
			AfterWrite: func(c *gin.Context, _ *product.ProductModel) {
				_ = h.dash.Invalidate(c.Request.Context(), &domain.User{
					ID: c.GetString(mdw.KeyUserID), Role: domain.RoleSupplier,
				})
			},
		},
		OrderBy: "created_at desc",
	})
}
