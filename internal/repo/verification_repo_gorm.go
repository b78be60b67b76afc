package repo

import (
	"context"

	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/product"
)

type VerificationRepo struct{ db *gorm.DB }

func NewVerificationRepo(db *gorm.DB) *VerificationRepo { return &VerificationRepo{db: db} }

var _ domain.VerificationRepository = (*VerificationRepo)(nil)

// Create 未带 ProductOwnerID 时从产品表回填
func (r *VerificationRepo) Create(ctx context.Context, v *domain.Verification) error {
	m := product.VerificationModel{
		ID:               v.ID,
		ProductID:        v.ProductID,
		ProductOwnerID:   v.ProductOwnerID,
		ProductName:      v.ProductName,
		BatchID:          v.BatchID,
		QRCode:           v.QRCode,
		VerificationDate: v.VerificationDate,
		Status:           string(v.Status),
		BlockchainHash:   v.BlockchainHash,
		VerifiedBy:       v.VerifiedBy,
		VerifierID:       v.VerifierID,
		Location:         v.Location,
		Temperature:      v.Temperature,
		Humidity:         v.Humidity,
		Notes:            v.Notes,
	}
	if v.ProductID != "" && v.ProductOwnerID == "" {
		var owners []string
		if err := r.db.WithContext(ctx).Model(&product.ProductModel{}).
			Where("id = ?", v.ProductID).Limit(1).Pluck("owner_id", &owners).Error; err != nil {
			return err
		}
		if len(owners) > 0 {
			m.ProductOwnerID = owners[0]
			v.ProductOwnerID = owners[0]
		}
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *VerificationRepo) scope(ctx context.Context, f domain.VerificationFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&product.VerificationModel{})
	if f.VerifierID != "" {
		tx = tx.Where("verifier_id = ?", f.VerifierID)
	}
	if f.OwnerID != "" {
		tx = tx.Where("product_owner_id = ?", f.OwnerID)
	}
	return tx
}

func (r *VerificationRepo) List(ctx context.Context, f domain.VerificationFilter) ([]domain.Verification, int64, error) {
	tx := r.scope(ctx, f)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(f.Offset, f.Limit)
	var rows []product.VerificationModel
	if err := tx.Offset(offset).Limit(limit).Order("verification_date desc").Order("id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Verification, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, total, nil
}

func (r *VerificationRepo) CountByStatus(ctx context.Context, f domain.VerificationFilter) (map[domain.VerificationStatus]int64, error) {
	type row struct {
		K string
		N int64
	}
	var rows []row
	if err := r.scope(ctx, f).Select("status AS k, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[domain.VerificationStatus]int64{
		domain.VerificationVerified:   0,
		domain.VerificationSuspicious: 0,
		domain.VerificationFailed:     0,
	}
	for _, x := range rows {
		out[domain.VerificationStatus(x.K)] = x.N
	}
	return out, nil
}
