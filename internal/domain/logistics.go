package domain

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentDelayed   ShipmentStatus = "delayed"
)

var ShipmentStatuses = []ShipmentStatus{ShipmentPending, ShipmentInTransit, ShipmentDelivered, ShipmentDelayed}

func (s ShipmentStatus) Valid() bool { return slices.Contains(ShipmentStatuses, s) }

var shipmentFlow = map[ShipmentStatus][]ShipmentStatus{
	ShipmentPending:   {ShipmentInTransit, ShipmentDelayed},
	ShipmentInTransit: {ShipmentDelivered, ShipmentDelayed},
	ShipmentDelayed:   {ShipmentInTransit, ShipmentDelivered},
}

// CanBecome 原状态不变也算合法；delivered 为终态
func (s ShipmentStatus) CanBecome(to ShipmentStatus) bool {
	return s == to || slices.Contains(shipmentFlow[s], to)
}

type Shipment struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"ownerId"`
	ProductID        string         `json:"productId"`
	ProductName      string         `json:"productName"`
	Status           ShipmentStatus `json:"status"`
	Origin           string         `json:"origin"`
	Destination      string         `json:"destination"`
	EstimatedArrival time.Time      `json:"estimatedArrival"`
	ActualArrival    *time.Time     `json:"actualArrival,omitempty"`
	Carrier          string         `json:"carrier"`
	TrackingNumber   string         `json:"trackingNumber"`
	Temperature      *float64       `json:"temperature,omitempty"`
	Humidity         *float64       `json:"humidity,omitempty"`
	Quantity         int            `json:"quantity"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type ShipmentRepository interface {
	CountByStatus(ctx context.Context, ownerID string) (map[ShipmentStatus]int64, error)
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled}

func (s OrderStatus) Valid() bool { return slices.Contains(OrderStatuses, s) }

// 订单流转按角色划分：供应商确认/发货，采购方签收；未发货前双方都可取消
var orderFlow = map[Role]map[OrderStatus][]OrderStatus{
	RoleSupplier: {
		OrderPending:   {OrderConfirmed, OrderCancelled},
		OrderConfirmed: {OrderShipped, OrderCancelled},
	},
	RoleVendor: {
		OrderPending: {OrderCancelled},
		OrderShipped: {OrderDelivered},
	},
}

func (s OrderStatus) CanBecome(to OrderStatus, by Role) bool {
	return s == to || slices.Contains(orderFlow[by][s], to)
}

type Order struct {
	ID               string          `json:"id"`
	OwnerID          string          `json:"ownerId"`
	SupplierID       string          `json:"supplierId"`
	SupplierName     string          `json:"supplierName"`
	ProductID        string          `json:"productId"`
	ProductName      string          `json:"productName"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	Status           OrderStatus     `json:"status"`
	OrderDate        time.Time       `json:"orderDate"`
	ExpectedDelivery time.Time       `json:"expectedDelivery"`
	ActualDelivery   *time.Time      `json:"actualDelivery,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type OrderFilter struct {
	VendorID   string
	SupplierID string
	Status     OrderStatus
	Q          string
	Offset     int
	Limit      int
}

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	CountByStatus(ctx context.Context, f OrderFilter) (map[OrderStatus]int64, error)
	// Spent 采购方未取消订单的金额合计
	Spent(ctx context.Context, vendorID string) (decimal.Decimal, error)
	// Transition 仅当当前状态仍为 from 时写入；否则 ErrConflict
	Transition(ctx context.Context, id string, from, to OrderStatus, at time.Time) error
}
