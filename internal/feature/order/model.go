package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"supplysphere/internal/domain"
)

// OrderModel OwnerID 为下单的采购方，SupplierID 为产品所属供应商
type OrderModel struct {
	ID               string          `gorm:"primaryKey;type:varchar(32)" json:"id"`
	OwnerID          string          `gorm:"size:32;not null;index" json:"ownerId"`
	SupplierID       string          `gorm:"size:32;not null;index" json:"supplierId"`
	SupplierName     string          `gorm:"size:128" json:"supplierName"`
	ProductID        string          `gorm:"size:32;not null;index" json:"productId" binding:"required"`
	ProductName      string          `gorm:"size:128" json:"productName"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2)" json:"unitPrice"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(14,2)" json:"totalPrice"`
	Status           string          `gorm:"size:16;not null;default:pending;index" json:"status"`
	OrderDate        time.Time       `json:"orderDate"`
	ExpectedDelivery time.Time       `json:"expectedDelivery"`
	ActualDelivery   *time.Time      `json:"actualDelivery,omitempty"`
	Notes            string          `gorm:"size:512" json:"notes,omitempty" binding:"max=512"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (OrderModel) TableName() string { return "orders" }

// Place 新订单：按产品快照定价，状态固定 pending
func (m *OrderModel) Place(p *domain.Product, now time.Time) error {
	if p.Status != domain.ProductActive || (!p.ExpiryDate.IsZero() && p.ExpiryDate.Before(now)) {
		return fmt.Errorf("%w: product %s is not available", domain.ErrInvalidInput, p.BatchID)
	}
	if m.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	now = now.UTC()
	m.ProductID, m.ProductName = p.ID, p.Name
	m.SupplierID, m.SupplierName = p.OwnerID, p.Supplier
	m.UnitPrice = p.Price
	m.Status = string(domain.OrderPending)
	m.OrderDate = now
	m.ActualDelivery = nil
	m.Notes = strings.TrimSpace(m.Notes)
	if m.ExpectedDelivery.IsZero() {
		m.ExpectedDelivery = now.AddDate(0, 0, 7)
	}
	if m.ExpectedDelivery.Before(now.Truncate(24 * time.Hour)) {
		return fmt.Errorf("%w: expectedDelivery is in the past", domain.ErrInvalidInput)
	}
	m.TotalPrice = m.UnitPrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
	return nil
}

// Revise 采购方修改：只有 pending 可改数量与交期，状态按采购方流转
func (m *OrderModel) Revise(prev *OrderModel, now time.Time) error {
	m.SupplierID, m.SupplierName = prev.SupplierID, prev.SupplierName
	m.ProductID, m.ProductName = prev.ProductID, prev.ProductName
	m.UnitPrice, m.OrderDate = prev.UnitPrice, prev.OrderDate
	m.Notes = strings.TrimSpace(m.Notes)

	from, to := domain.OrderStatus(prev.Status), domain.OrderStatus(m.Status)
	if !to.Valid() || !from.CanBecome(to, domain.RoleVendor) {
		return fmt.Errorf("%w: order cannot go from %s to %s", domain.ErrInvalidInput, from, to)
	}
	if from != domain.OrderPending {
		m.Quantity, m.ExpectedDelivery = prev.Quantity, prev.ExpectedDelivery
	}
	if m.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	m.TotalPrice = m.UnitPrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
	m.ActualDelivery = prev.ActualDelivery
	if to == domain.OrderDelivered && m.ActualDelivery == nil {
		t := now.UTC()
		m.ActualDelivery = &t
	}
	return nil
}

func (m *OrderModel) ToDomain() domain.Order {
	return domain.Order{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		SupplierID:       m.SupplierID,
		SupplierName:     m.SupplierName,
		ProductID:        m.ProductID,
		ProductName:      m.ProductName,
		Quantity:         m.Quantity,
		UnitPrice:        m.UnitPrice,
		TotalPrice:       m.TotalPrice,
		Status:           domain.OrderStatus(m.Status),
		OrderDate:        m.OrderDate,
		ExpectedDelivery: m.ExpectedDelivery,
		ActualDelivery:   m.ActualDelivery,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
