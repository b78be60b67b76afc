package shipment

import (
	"fmt"
	"strings"
	"time"

	"supplysphere/internal/domain"
	"supplysphere/pkg/utils"
)

type ShipmentModel struct {
	ID               string     `gorm:"primaryKey;type:varchar(32)" json:"id"`
	OwnerID          string     `gorm:"size:32;not null;index" json:"ownerId"`
	ProductID        string     `gorm:"size:32;not null;index" json:"productId" binding:"required"`
	ProductName      string     `gorm:"size:128" json:"productName"`
	Status           string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	Origin           string     `gorm:"size:128;not null" json:"origin" binding:"required,max=128"`
	Destination      string     `gorm:"size:128;not null" json:"destination" binding:"required,max=128"`
	EstimatedArrival time.Time  `json:"estimatedArrival"`
	ActualArrival    *time.Time `json:"actualArrival,omitempty"`
	Carrier          string     `gorm:"size:64" json:"carrier" binding:"max=64"`
	TrackingNumber   string     `gorm:"size:64;uniqueIndex" json:"trackingNumber" binding:"max=64"`
	Temperature      *float64   `json:"temperature,omitempty"`
	Humidity         *float64   `json:"humidity,omitempty" binding:"omitempty,min=0,max=100"`
	Quantity         int        `gorm:"not null" json:"quantity"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ShipmentModel) TableName() string { return "shipments" }

func invalid(field string) error { return fmt.Errorf("%w: %s", domain.ErrInvalidInput, field) }

// Prepare 创建时 prev 为 nil；更新时校验状态流转，产品绑定不可改
func (m *ShipmentModel) Prepare(prev *ShipmentModel, now time.Time) error {
	m.Origin = strings.TrimSpace(m.Origin)
	m.Destination = strings.TrimSpace(m.Destination)
	m.TrackingNumber = strings.ToUpper(strings.TrimSpace(m.TrackingNumber))
	if m.Origin == "" || m.Destination == "" {
		return invalid("origin and destination are required")
	}
	if m.Quantity < 1 {
		return invalid("quantity must be positive")
	}
	if m.Status == "" {
		m.Status = string(domain.ShipmentPending)
	}
	to := domain.ShipmentStatus(m.Status)
	if !to.Valid() {
		return invalid("status")
	}
	if prev != nil {
		m.ProductID, m.ProductName = prev.ProductID, prev.ProductName
		if from := domain.ShipmentStatus(prev.Status); !from.CanBecome(to) {
			return fmt.Errorf("%w: shipment cannot go from %s to %s", domain.ErrInvalidInput, from, to)
		}
	}
	if m.TrackingNumber == "" {
		m.TrackingNumber = "TRK-" + strings.ToUpper(utils.NewID()[20:])
	}
	if m.EstimatedArrival.IsZero() {
		m.EstimatedArrival = now.AddDate(0, 0, 7).UTC()
	}
	switch {
	case to == domain.ShipmentDelivered && m.ActualArrival == nil:
		t := now.UTC()
		m.ActualArrival = &t
	case to != domain.ShipmentDelivered:
		m.ActualArrival = nil
	}
	return nil
}

func (m *ShipmentModel) ToDomain() domain.Shipment {
	return domain.Shipment{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		ProductID:        m.ProductID,
		ProductName:      m.ProductName,
		Status:           domain.ShipmentStatus(m.Status),
		Origin:           m.Origin,
		Destination:      m.Destination,
		EstimatedArrival: m.EstimatedArrival,
		ActualArrival:    m.ActualArrival,
		Carrier:          m.Carrier,
		TrackingNumber:   m.TrackingNumber,
		Temperature:      m.Temperature,
		Humidity:         m.Humidity,
		Quantity:         m.Quantity,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
