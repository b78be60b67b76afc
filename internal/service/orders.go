package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supplysphere/internal/domain"
)

// OrderService 供应商侧的来单处理；采购方自己的订单走 owner 隔离 CRUD
type OrderService struct {
	orders domain.OrderRepository
	audit  *Auditor
	now    func() time.Time
}

func NewOrderService(orders domain.OrderRepository, audit *Auditor) *OrderService {
	return &OrderService{orders: orders, audit: audit, now: time.Now}
}

func (s *OrderService) Incoming(ctx context.Context, supplier *domain.User, f domain.OrderFilter) ([]domain.Order, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: status", domain.ErrInvalidInput)
	}
	f.SupplierID, f.VendorID = supplier.ID, ""
	return s.orders.List(ctx, f)
}

// Advance 供应商确认/发货/取消；别家的订单一律 ErrNotFound
func (s *OrderService) Advance(ctx context.Context, supplier *domain.User, id string, to domain.OrderStatus, m Meta) (*domain.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: status", domain.ErrInvalidInput)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SupplierID != supplier.ID {
		return nil, domain.ErrNotFound
	}
	from := o.Status
	if from == to {
		return o, nil
	}
	if !from.CanBecome(to, domain.RoleSupplier) {
		return nil, fmt.Errorf("%w: order cannot go from %s to %s", domain.ErrInvalidInput, from, to)
	}
	if err := s.orders.Transition(ctx, id, from, to, s.now()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.audit.Record(ctx, supplier, domain.ActionUpdateOrder, "order/"+id, domain.AuditSuccess,
		fmt.Sprintf("%s -> %s", from, to), m)
	return s.orders.FindByID(ctx, id)
}
