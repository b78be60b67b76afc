package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/order"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/ez"
	mdw "supplysphere/internal/transport/http/middleware"
	resp "supplysphere/internal/transport/http/response"
)

// OrderHandler 采购方下单（owner 隔离 CRUD，不可删除）+ 供应商来单处理
type OrderHandler struct {
	Kit
	db       *gorm.DB
	products domain.ProductRepository
	svc      *service.OrderService
	dash     *service.DashboardService
}

func NewOrderHandler(k Kit, db *gorm.DB, products domain.ProductRepository, svc *service.OrderService, dash *service.DashboardService) *OrderHandler {
	return &OrderHandler{Kit: k, db: db, products: products, svc: svc, dash: dash}
}

type incomingIn struct {
	Status string `form:"status"`
	Q      string `form:"q"`
	Offset int    `form:"offset" binding:"min=0"`
	Limit  int    `form:"limit"  binding:"min=0,max=100"`
}

type advanceIn struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed shipped delivered cancelled"`
}

func (h *OrderHandler) refresh(c *gin.Context, vendorID, supplierID string) {
	if err := h.dash.InvalidateOrder(c.Request.Context(), vendorID, supplierID); err != nil {
		h.Log.Warn("invalidate dashboard", zap.Error(err))
	}
}

func (h *OrderHandler) MountAPI(api *gin.RouterGroup) {
	authed := ez.New(api.Group("", h.Auth()), h.Log)
	supplier := []string{string(domain.RoleSupplier)}

	ez.RegisterAction(authed, ez.Action[incomingIn, resp.Page[domain.Order]]{
		Method: http.MethodGet,
		Path:   "/orders/incoming",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  supplier,
		Handler: func(c *gin.Context, in *incomingIn) (resp.Page[domain.Order], error) {
			_, u, err := current(c)
			if err != nil {
				return resp.Page[domain.Order]{}, err
			}
			items, total, err := h.svc.Incoming(c.Request.Context(), u, domain.OrderFilter{
				Status: domain.OrderStatus(in.Status), Q: strings.TrimSpace(in.Q), Offset: in.Offset, Limit: in.Limit,
			})
			if err != nil {
				return resp.Page[domain.Order]{}, err
			}
			return resp.NewPage(items, total), nil
		},
	})

	ez.RegisterAction(authed, ez.Action[advanceIn, *domain.Order]{
		Method: http.MethodPost,
		Path:   "/orders/:id/status",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  supplier,
		Handler: func(c *gin.Context, in *advanceIn) (*domain.Order, error) {
			_, u, err := current(c)
			if err != nil {
				return nil, err
			}
			o, err := h.svc.Advance(c.Request.Context(), u, c.Param("id"), domain.OrderStatus(in.Status), meta(c))
			if err != nil {
				return nil, err
			}
			h.refresh(c, o.OwnerID, u.ID)
			return o, nil
		},
	})

	ez.Crud(ez.CrudConfig[order.OrderModel]{
		DB:    h.db,
		EZ:    authed,
		Path:  "/orders",
		New:   func() *order.OrderModel { return &order.OrderModel{} },
		Roles: []string{string(domain.RoleVendor)},
		Hooks: ez.CrudHooks[order.OrderModel]{
			BeforeCreate: func(c *gin.Context, m *order.OrderModel) error {
				p, err := h.products.FindByID(c.Request.Context(), m.ProductID)
				if errors.Is(err, domain.ErrNotFound) {
					return ez.BadRequest("unknown product")
				}
				if err != nil {
					return err
				}
				return m.Place(p, time.Now())
			},
			BeforeUpdate: func(c *gin.Context, prev, m *order.OrderModel) error {
				return m.Revise(prev, time.Now())
			},
			UpdateWhere: func(prev *order.OrderModel, q *gorm.DB) *gorm.DB {
				return q.Where("status = ?", prev.Status)
			},
			ScopeList: func(c *gin.Context, q *gorm.DB) *gorm.DB {
				if s := c.Query("status"); s != "" {
					q = q.Where("status = ?", s)
				}
				if kw := strings.ToLower(strings.TrimSpace(c.Query("q"))); kw != "" {
					p := "%" + kw + "%"
					q = q.Where("LOWER(product_name) LIKE ? OR LOWER(supplier_name) LIKE ?", p, p)
				}
				return q
			},
			AfterWrite: func(c *gin.Context, m *order.OrderModel) {
				h.refresh(c, c.GetString(mdw.KeyUserID), m.SupplierID)
			},
		},
		AllowCreate: true,
		AllowList:   true,
		AllowGet:    true,
		AllowUpdate: true,
		OrderBy:     "order_date desc",
	})
}
