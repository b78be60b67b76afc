package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/shipment"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/ez"
	mdw "supplysphere/internal/transport/http/middleware"
)

// ShipmentHandler 供应商发货跟踪（owner 隔离 CRUD）
type ShipmentHandler struct {
	Kit
	db       *gorm.DB
	products domain.ProductRepository
	dash     *service.DashboardService
}

func NewShipmentHandler(k Kit, db *gorm.DB, products domain.ProductRepository, dash *service.DashboardService) *ShipmentHandler {
	return &ShipmentHandler{Kit: k, db: db, products: products, dash: dash}
}

func (h *ShipmentHandler) MountAPI(api *gin.RouterGroup) {
	authed := ez.New(api.Group("", h.Auth()), h.Log)

	ez.Crud(ez.CrudConfig[shipment.ShipmentModel]{
		DB:    h.db,
		EZ:    authed,
		Path:  "/shipments",
		New:   func() *shipment.ShipmentModel { return &shipment.ShipmentModel{} },
		Roles: []string{string(domain.RoleSupplier)},
		Hooks: ez.CrudHooks[shipment.ShipmentModel]{
			BeforeCreate: func(c *gin.Context, m *shipment.ShipmentModel) error {
				// 只能给自己的产品发货
				p, err := h.products.FindByID(c.Request.Context(), m.ProductID)
				if errors.Is(err, domain.ErrNotFound) || (err == nil && p.OwnerID != m.OwnerID) {
					return ez.BadRequest("unknown product")
				}
				if err != nil {
					return err
				}
				m.ProductName = p.Name
				return m.Prepare(nil, time.Now())
			},
			BeforeUpdate: func(c *gin.Context, prev, m *shipment.ShipmentModel) error {
				return m.Prepare(prev, time.Now())
			},
			UpdateWhere: func(prev *shipment.ShipmentModel, q *gorm.DB) *gorm.DB {
				return q.Where("status = ?", prev.Status)
			},
			ScopeList: func(c *gin.Context, q *gorm.DB) *gorm.DB {
				if s := c.Query("status"); s != "" {
					q = q.Where("status = ?", s)
				}
				if kw := strings.ToLower(strings.TrimSpace(c.Query("q"))); kw != "" {
					p := "%" + kw + "%"
					q = q.Where("LOWER(product_name) LIKE ? OR LOWER(tracking_number) LIKE ? OR LOWER(destination) LIKE ?", p, p, p)
				}
				return q
			},
			AfterWrite: func(c *gin.Context, _ *shipment.ShipmentModel) {
				_ = h.dash.Invalidate(c.Request.Context(), &domain.User{
					ID: c.GetString(mdw.KeyUserID), Role: domain.RoleSupplier,
				})
			},
		},
		OrderBy: "created_at desc",
	})
}
