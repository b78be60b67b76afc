package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/order"
	"supplysphere/internal/feature/product"
	"supplysphere/internal/feature/shipment"
	"supplysphere/pkg/utils"
)

func (e *env) order(t *testing.T, vendor *domain.User, p *product.ProductModel, qty int) *order.OrderModel {
	t.Helper()
	m := &order.OrderModel{ID: utils.NewID(), OwnerID: vendor.ID, ProductID: p.ID, Quantity: qty}
	d := p.ToDomain()
	require.NoError(t, m.Place(&d, time.Now()))
	require.NoError(t, e.db.Create(m).Error)
	return m
}

func TestOrders_Advance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sup := e.user(t, "supplier@test.com")
	vendor := e.user(t, "vendor@test.com")
	svc := NewOrderService(e.orders, e.auditor)
	o := e.order(t, vendor, e.product(t, sup.ID, "A", nil), 4)

	got, err := svc.Advance(ctx, sup, o.ID, domain.OrderConfirmed, meta)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
	assert.EqualValues(t, 1, e.auditCount(t, domain.ActionUpdateOrder))

	got, err = svc.Advance(ctx, sup, o.ID, domain.OrderConfirmed, meta)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
	assert.EqualValues(t, 1, e.auditCount(t, domain.ActionUpdateOrder))

	_, err = svc.Advance(ctx, sup, o.ID, domain.OrderDelivered, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Advance(ctx, sup, o.ID, "lost", meta)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	other := &domain.User{ID: "someone-else", Role: domain.RoleSupplier}
	_, err = svc.Advance(ctx, other, o.ID, domain.OrderShipped, meta)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Advance(ctx, sup, "missing", domain.OrderShipped, meta)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err = svc.Advance(ctx, sup, o.ID, domain.OrderShipped, meta)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, got.Status)
}

func TestOrders_AdvanceLosesRace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sup := e.user(t, "supplier@test.com")
	vendor := e.user(t, "vendor@test.com")
	o := e.order(t, vendor, e.product(t, sup.ID, "A", nil), 1)

	// 采购方在供应商读取之后取消
	racy := &racingOrders{OrderRepository: e.orders, before: func() {
		require.NoError(t, e.orders.Transition(ctx, o.ID, domain.OrderPending, domain.OrderCancelled, time.Now()))
	}}
	_, err := NewOrderService(racy, e.auditor).Advance(ctx, sup, o.ID, domain.OrderConfirmed, meta)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := e.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)
	assert.EqualValues(t, 0, e.auditCount(t, domain.ActionUpdateOrder))
}

type racingOrders struct {
	domain.OrderRepository
	before func()
}

func (r *racingOrders) Transition(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return r.OrderRepository.Transition(ctx, id, from, to, at)
}

func TestOrders_Incoming(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sup := e.user(t, "supplier@test.com")
	vendor := e.user(t, "vendor@test.com")
	svc := NewOrderService(e.orders, e.auditor)
	e.order(t, vendor, e.product(t, sup.ID, "A", nil), 1)
	e.order(t, vendor, e.product(t, "other-supplier", "B", nil), 1)

	items, total, err := svc.Incoming(ctx, sup, domain.OrderFilter{SupplierID: "other-supplier", VendorID: "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, sup.ID, items[0].SupplierID)

	_, _, err = svc.Incoming(ctx, sup, domain.OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDashboard_Logistics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sup := e.user(t, "supplier@test.com")
	vendor := e.user(t, "vendor@test.com")
	p := e.product(t, sup.ID, "A", nil)

	for _, st := range []string{"pending", "in_transit"} {
		m := &shipment.ShipmentModel{
			ID: utils.NewID(), OwnerID: sup.ID, ProductID: p.ID, Status: st,
			Origin: "California, USA", Destination: "New York, USA", Quantity: 10,
		}
		require.NoError(t, m.Prepare(nil, time.Now()))
		require.NoError(t, e.db.Create(m).Error)
	}
	kept := e.order(t, vendor, p, 10)
	dropped := e.order(t, vendor, p, 3)
	require.NoError(t, e.orders.Transition(ctx, dropped.ID, domain.OrderPending, domain.OrderCancelled, time.Now()))

	d := NewDashboardService(e.products, e.verifs, e.shipments, e.orders, e.admin, nil, 0)

	s, err := d.Summary(ctx, sup)
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.Supplier.Shipments[domain.ShipmentPending])
	assert.EqualValues(t, 1, s.Supplier.Shipments[domain.ShipmentInTransit])
	assert.EqualValues(t, 0, s.Supplier.Shipments[domain.ShipmentDelivered])
	assert.EqualValues(t, 1, s.Supplier.Orders[domain.OrderPending])
	assert.EqualValues(t, 1, s.Supplier.Orders[domain.OrderCancelled])

	s, err = d.Summary(ctx, vendor)
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.Vendor.Orders[domain.OrderPending])
	assert.True(t, s.Vendor.TotalSpent.Equal(kept.TotalPrice), s.Vendor.TotalSpent.String())
	assert.True(t, s.Vendor.TotalSpent.Equal(decimal.RequireFromString("49.9")))
}
