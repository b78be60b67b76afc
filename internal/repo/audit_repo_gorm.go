package repo

import (
	"context"

	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/audit"
)

type AuditRepo struct{ db *gorm.DB }

func NewAuditRepo(db *gorm.DB) *AuditRepo { return &AuditRepo{db: db} }

var _ domain.AuditRepository = (*AuditRepo)(nil)

func (r *AuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(audit.FromDomain(a)).Error
}

func (r *AuditRepo) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLog, int64, error) {
	tx := r.db.WithContext(ctx).Model(&audit.LogModel{})
	if f.UserID != "" {
		tx = tx.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		tx = tx.Where("action = ?", f.Action)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", string(f.Status))
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(f.Offset, f.Limit)
	var rows []audit.LogModel
	if err := tx.Offset(offset).Limit(limit).Order("timestamp desc").Order("id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.AuditLog, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, total, nil
}
