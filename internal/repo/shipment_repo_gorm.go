package repo

import (
	"context"

	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/shipment"
)

type ShipmentRepo struct{ db *gorm.DB }

func NewShipmentRepo(db *gorm.DB) *ShipmentRepo { return &ShipmentRepo{db: db} }

var _ domain.ShipmentRepository = (*ShipmentRepo)(nil)

func (r *ShipmentRepo) CountByStatus(ctx context.Context, ownerID string) (map[domain.ShipmentStatus]int64, error) {
	tx := r.db.WithContext(ctx).Model(&shipment.ShipmentModel{})
	if ownerID != "" {
		tx = tx.Where("owner_id = ?", ownerID)
	}
	var rows []countRow
	if err := tx.Select("status AS k, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.ShipmentStatus]int64, len(domain.ShipmentStatuses))
	for _, s := range domain.ShipmentStatuses {
		out[s] = 0
	}
	for _, x := range rows {
		out[domain.ShipmentStatus(x.K)] = x.N
	}
	return out, nil
}
